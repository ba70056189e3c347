package market

import (
	"go.uber.org/fx"

	"sweep_bot/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("market",
		fx.Provide(
			func(cfg *config.Config) Feed {
				return NewBinanceFeed(cfg.Binance.APIKey, cfg.Binance.APISecret)
			},
			func(cfg *config.Config, feed Feed) *PriceCache {
				return NewPriceCache(feed, cfg.PricePollInterval)
			},
		),
	)
}
