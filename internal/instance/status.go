package instance

import (
	"time"

	"sweep_bot/internal/models"
)

// StatusSnapshot — консистентный срез для /status и health-лога.
type StatusSnapshot struct {
	Balance       float64
	InitialBalance float64
	OpenPositions int
	PendingSweeps int
	Stats         models.Stats
	LastBarAt     time.Time
	WindowLen     int
}

func (i *Instance) Status() StatusSnapshot {
	i.mu.Lock()
	defer i.mu.Unlock()

	s := StatusSnapshot{
		Balance:        i.balance,
		InitialBalance: i.cfg.InitialBalance,
		OpenPositions:  len(i.positions),
		PendingSweeps:  i.tracker.PendingSweeps(),
		Stats:          i.stats,
		WindowLen:      i.win.Len(),
	}
	if b, ok := i.win.Last(); ok {
		s.LastBarAt = b.OpenTime
	}
	return s
}

// LastTrades — хвост истории сделок, свежие в конце.
func (i *Instance) LastTrades(n int) []models.Trade {
	i.mu.Lock()
	defer i.mu.Unlock()
	if n <= 0 || n > len(i.trades) {
		n = len(i.trades)
	}
	return append([]models.Trade(nil), i.trades[len(i.trades)-n:]...)
}
