package runner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"sweep_bot/internal/instance"
	"sweep_bot/internal/models"
	"sweep_bot/pkg/logger"
)

const backfillRetryDelay = 5 * time.Second

// backfill прогревает окна историей. Входы на прогреве не исполняются,
// но пивоты и свипы проживаются как в реальном времени, чтобы движок
// стартовал с той же таблицей свипов, с какой работал бы непрерывно.
func (m *Manager) backfill(ctx context.Context) error {
	for _, sym := range m.cfg.Symbols {
		bars, err := m.fetchHistory(ctx, sym)
		if err != nil {
			return errors.Wrapf(err, "backfill %s", sym)
		}
		for _, inst := range m.instancesFor(sym) {
			last := inst.LastBarTime()
			fed := 0
			for _, b := range bars {
				// бары, уже прожитые до рестарта, не повторяем
				if !b.OpenTime.After(last) {
					continue
				}
				inst.OnBar(ctx, b, false)
				fed++
			}
			logger.Info("[%s] backfill: %d of %d bars fed", inst.Key, fed, len(bars))
		}
	}
	return nil
}

// fetchHistory ретраит REST до успеха: без прогрева стартовать нельзя.
func (m *Manager) fetchHistory(ctx context.Context, symbol string) ([]models.Bar, error) {
	for {
		bars, err := m.feed.HistoricalBars(ctx, symbol, m.cfg.Interval, m.cfg.BackfillLimit)
		if err == nil {
			return bars, nil
		}
		logger.Warn("[%s] history fetch failed: %v", symbol, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backfillRetryDelay):
		}
	}
}

// streamLoop — живой путь: один combined-стрим на все символы, каждый
// закрытый бар раздаётся всем профилям своего символа по порядку.
// Переподключения прячет Feed, стейт инстансов их переживает.
func (m *Manager) streamLoop(ctx context.Context) {
	ch := m.feed.StreamBars(ctx, m.cfg.Symbols, m.cfg.Interval)
	for bar := range ch {
		for _, inst := range m.instancesFor(bar.Symbol) {
			// после реконнекта стрим может повторить хвост
			if !bar.OpenTime.After(inst.LastBarTime()) {
				continue
			}
			opened := inst.OnBar(ctx, bar, true)
			for _, p := range opened {
				m.startMonitor(ctx, inst, p)
			}
		}
	}
	logger.Info("[RUN] bar stream closed")
}

// startMonitor регистрирует монитор в группе до запуска горутины,
// чтобы останов не проскочил мимо только что открытой позиции.
func (m *Manager) startMonitor(ctx context.Context, inst *instance.Instance, p models.Position) {
	m.wg.Add(1)
	go m.watchPosition(ctx, inst, p)
}
