package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"sweep_bot/internal/instance"
	"sweep_bot/internal/market"
	"sweep_bot/internal/models"
	"sweep_bot/internal/modules/config"
	"sweep_bot/internal/notify"
	"sweep_bot/internal/storage"
	"sweep_bot/pkg/logger"
)

// Manager владеет всеми инстансами (символ × профиль), гоняет поток
// баров и мониторы позиций. Один Manager на процесс.
type Manager struct {
	cfg      *config.Config
	profiles config.Profiles
	feed     market.Feed
	prices   *market.PriceCache
	store    storage.Store
	n        notify.Notifier

	instances map[models.InstanceKey]*instance.Instance

	wg sync.WaitGroup // мониторы позиций
}

func NewManager(
	cfg *config.Config,
	profiles config.Profiles,
	feed market.Feed,
	prices *market.PriceCache,
	store storage.Store,
	n notify.Notifier,
) *Manager {
	m := &Manager{
		cfg:       cfg,
		profiles:  profiles,
		feed:      feed,
		prices:    prices,
		store:     store,
		n:         n,
		instances: make(map[models.InstanceKey]*instance.Instance),
	}
	for _, sym := range cfg.Symbols {
		for name, p := range profiles {
			key := models.InstanceKey{Symbol: sym, Profile: name}
			m.instances[key] = instance.New(key, p, cfg.DataWindow, cfg.ProximityThreshold, store, n)
		}
	}
	return m
}

// Start поднимает состояние, греет окна историей и запускает живой
// поток, мониторы и health-цикл. Блокирует только на restore+backfill,
// дальше живёт в горутинах до отмены ctx.
func (m *Manager) Start(ctx context.Context) error {
	for key, inst := range m.instances {
		if err := inst.Restore(ctx); err != nil {
			return errors.Wrapf(err, "restore %s", key)
		}
		// мониторы переживших рестарт позиций
		for _, p := range inst.OpenPositions() {
			m.startMonitor(ctx, inst, p)
		}
	}

	if err := m.backfill(ctx); err != nil {
		return err
	}

	go m.prices.Run(ctx, m.cfg.Symbols)
	go m.streamLoop(ctx)
	go m.healthLoop(ctx)
	return nil
}

// Wait дожидается мониторов при останове.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) instancesFor(symbol string) []*instance.Instance {
	out := make([]*instance.Instance, 0, len(m.profiles))
	for name := range m.profiles {
		if inst, ok := m.instances[models.InstanceKey{Symbol: symbol, Profile: name}]; ok {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Profile < out[j].Key.Profile })
	return out
}

func (m *Manager) sortedKeys() []models.InstanceKey {
	keys := make([]models.InstanceKey, 0, len(m.instances))
	for k := range m.instances {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Symbol != keys[j].Symbol {
			return keys[i].Symbol < keys[j].Symbol
		}
		return keys[i].Profile < keys[j].Profile
	})
	return keys
}

// StatusText реализует notify.StatusProvider для /status.
func (m *Manager) StatusText(symbol, profile string) (string, error) {
	inst, ok := m.instances[models.InstanceKey{Symbol: symbol, Profile: profile}]
	if !ok {
		return "", errors.Errorf("нет инстанса %s/%s", symbol, profile)
	}
	st := inst.Status()

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] баланс %.2f (старт %.2f)\n", inst.Key, st.Balance, st.InitialBalance)
	if px, ok := m.prices.Get(symbol); ok {
		fmt.Fprintf(&b, "цена %.4f\n", px)
	}
	fmt.Fprintf(&b, "открыто позиций: %d, активных свипов: %d\n", st.OpenPositions, st.PendingSweeps)
	fmt.Fprintf(&b, "сделок: %d всего, %d за месяц (TP %d / SL %d)\n",
		st.Stats.TotalTrades, st.Stats.MonthlyTrades, st.Stats.TPCount, st.Stats.SLCount)
	if !st.LastBarAt.IsZero() {
		fmt.Fprintf(&b, "окно: %d баров, последний %s", st.WindowLen, st.LastBarAt.Format("02.01 15:04"))
	}
	return b.String(), nil
}

// BalancesText реализует notify.StatusProvider для /balance.
func (m *Manager) BalancesText() string {
	var b strings.Builder
	b.WriteString("💰 Балансы:\n")
	for _, key := range m.sortedKeys() {
		st := m.instances[key].Status()
		fmt.Fprintf(&b, "[%s] %.2f (%+.2f)\n", key, st.Balance, st.Balance-st.InitialBalance)
	}
	return b.String()
}

// TradesText реализует notify.StatusProvider для /trades.
func (m *Manager) TradesText(symbol, profile string, n int) (string, error) {
	inst, ok := m.instances[models.InstanceKey{Symbol: symbol, Profile: profile}]
	if !ok {
		return "", errors.Errorf("нет инстанса %s/%s", symbol, profile)
	}
	trades := inst.LastTrades(n)
	if len(trades) == 0 {
		return fmt.Sprintf("[%s/%s] сделок ещё нет", symbol, profile), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s/%s] последние сделки:\n", symbol, profile)
	for _, tr := range trades {
		fmt.Fprintf(&b, "%s %s %s: вход %.4f выход %.4f %+.2f\n",
			tr.ExitTime.Format("02.01 15:04"), tr.Side, tr.Reason,
			tr.EntryPrice, tr.ExitPrice, tr.Profit)
	}
	return b.String(), nil
}

// healthLoop шлёт периодический хартбит, чтобы тишину в канале можно
// было отличить от мёртвого движка.
func (m *Manager) healthLoop(ctx context.Context) {
	if m.cfg.HealthInterval <= 0 {
		return
	}
	t := time.NewTicker(m.cfg.HealthInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		open := 0
		for _, inst := range m.instances {
			open += inst.Status().OpenPositions
		}
		m.n.Sendf("❤️ Движок жив: %d инстансов, %d открытых позиций", len(m.instances), open)
		logger.Info("[HEALTH] instances=%d open=%d", len(m.instances), open)
	}
}
