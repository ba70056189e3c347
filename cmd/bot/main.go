package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"sweep_bot/internal/market"
	"sweep_bot/internal/modules/config"
	"sweep_bot/internal/notify"
	"sweep_bot/internal/runner"
	"sweep_bot/internal/storage"
	"sweep_bot/pkg/logger"
	"sweep_bot/pkg/tracing"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() (context.Context, context.CancelFunc) {
				return context.WithCancel(context.Background())
			},
		),
		config.Module(),
		storage.Module(),
		market.Module(),
		notify.Module(),
		runner.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if cfg.Jaeger.Host == "" {
				return nil
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	app.Run()
}
