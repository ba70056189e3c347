package storage

import (
	"context"

	"go.uber.org/fx"

	"sweep_bot/internal/modules/config"
	"sweep_bot/pkg/db"
	"sweep_bot/pkg/logger"
)

// NewStore выбирает реализацию: постгрес при заданном DSN, иначе
// json-файлы на диске.
func NewStore(lc fx.Lifecycle, appCtx context.Context, cfg *config.Config) (Store, error) {
	if cfg.DB == "" {
		logger.Info("[STORE] no DSN, using file store at %s", cfg.DataDir)
		return NewFileStore(cfg.DataDir)
	}

	pool, err := db.NewPool(appCtx, db.PoolConfig{DSN: cfg.DB})
	if err != nil {
		return nil, err
	}
	tx := db.NewPgTxManager(pool)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			tx.Close()
			return nil
		},
	})
	return NewPgStore(appCtx, tx)
}

func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(
			NewStore, // Store
		),
	)
}
