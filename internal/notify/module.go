package notify

import (
	"go.uber.org/fx"

	"sweep_bot/internal/modules/config"
	"sweep_bot/pkg/logger"
)

// NewNotifier выбирает транспорт: телеграм при заданном токене, иначе
// всё уходит в лог. *Telegram отдаётся отдельно (может быть nil), чтобы
// раннер мог подвязать команды.
func NewNotifier(cfg *config.Config) (*Telegram, Notifier, error) {
	if cfg.Telegram.Token == "" {
		logger.Info("[TG] token not set, notifications go to log")
		return nil, NewStdout(), nil
	}
	tg, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		return nil, nil, err
	}
	return tg, tg, nil
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			NewNotifier, // *Telegram, Notifier
		),
	)
}
