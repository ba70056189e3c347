package notify

import (
	"fmt"

	"sweep_bot/pkg/logger"
)

// Notifier — исходящие уведомления, fire-and-forget: ошибка отправки
// никогда не влияет на торговое состояние.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Stdout — заглушка, когда телеграм не сконфигурен: всё в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(msg string) { logger.Info("[NOTIFY] %s", msg) }

func (s *Stdout) Sendf(format string, args ...any) { s.Send(fmt.Sprintf(format, args...)) }
