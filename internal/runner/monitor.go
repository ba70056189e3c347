package runner

import (
	"context"
	"time"

	"sweep_bot/internal/instance"
	"sweep_bot/internal/models"
	"sweep_bot/pkg/logger"
)

// сколько подряд тиков без цены терпим молча
const staleTicksBeforeWarn = 30

// watchPosition — монитор одной позиции: опрашивает кеш цены на тикере
// и закрывает по первому сработавшему уровню. Если позицию успел
// закрыть кто-то другой, Close вернёт false и монитор молча уходит.
func (m *Manager) watchPosition(ctx context.Context, inst *instance.Instance, p models.Position) {
	defer m.wg.Done()

	t := time.NewTicker(m.cfg.MonitorInterval)
	defer t.Stop()

	stale := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		px, ok := m.prices.Get(p.Symbol)
		if !ok {
			stale++
			if stale%staleTicksBeforeWarn == 0 {
				logger.Warn("[%s] monitor %s: no fresh price for %d ticks", inst.Key, p.ID, stale)
			}
			continue
		}
		stale = 0

		reason, hit := levelHit(p, px)
		if !hit {
			continue
		}
		if _, closed := inst.Close(ctx, p.ID, px, reason); !closed {
			logger.Info("[%s] monitor %s: already closed", inst.Key, p.ID)
		}
		return
	}
}

// levelHit проверяет уровни стороны позиции; при гэпе сквозь оба
// уровня побеждает стоп.
func levelHit(p models.Position, px float64) (models.CloseReason, bool) {
	switch p.Side {
	case models.SideLong:
		if px <= p.SL {
			return models.CloseStopLoss, true
		}
		if px >= p.TP {
			return models.CloseTakeProfit, true
		}
	case models.SideShort:
		if px >= p.SL {
			return models.CloseStopLoss, true
		}
		if px <= p.TP {
			return models.CloseTakeProfit, true
		}
	}
	return "", false
}
