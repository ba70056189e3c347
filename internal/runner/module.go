package runner

import (
	"context"

	"go.uber.org/fx"

	"sweep_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewManager, // *Manager
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			m *Manager,
			tg *notify.Telegram,
			appCtx context.Context,
			cancel context.CancelFunc,
		) {
			if tg != nil {
				tg.SetProvider(m)
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if tg != nil {
						tg.Start(appCtx)
					}
					return m.Start(appCtx)
				},
				OnStop: func(_ context.Context) error {
					// сначала гасим все горутины, потом ждём мониторы
					cancel()
					m.Wait()
					return nil
				},
			})
		}),
	)
}
