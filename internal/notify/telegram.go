package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sweep_bot/pkg/logger"
)

// StatusProvider — то, что телеграм может спросить у движка.
// Реализует runner.Manager, подвязывается через SetProvider (fx-инвок),
// чтобы не городить цикл в конструкторах.
type StatusProvider interface {
	StatusText(symbol, profile string) (string, error)
	BalancesText() string
	TradesText(symbol, profile string, n int) (string, error)
}

// Telegram — пассивный нотифайер + пара команд для опроса движка.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	mu       sync.Mutex
	provider StatusProvider
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) SetProvider(p StatusProvider) {
	t.mu.Lock()
	t.provider = p
	t.mu.Unlock()
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Warn("[TG] send failed: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// Start — long-polling команд. /status SYMBOL PROFILE, /balance,
// /trades SYMBOL PROFILE.
func (t *Telegram) Start(ctx context.Context) {
	if t == nil || t.bot == nil {
		return
	}
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				t.handleCommand(upd.Message)
			}
		}
	}()
}

func (t *Telegram) handleCommand(msg *tgbot.Message) {
	t.mu.Lock()
	p := t.provider
	t.mu.Unlock()
	if p == nil {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "balance":
		t.Send(p.BalancesText())
	case "status":
		if len(args) < 2 {
			t.Send("Использование: /status SYMBOL PROFILE")
			return
		}
		out, err := p.StatusText(strings.ToUpper(args[0]), strings.ToLower(args[1]))
		if err != nil {
			t.Sendf("❗️ %v", err)
			return
		}
		t.Send(out)
	case "trades":
		if len(args) < 2 {
			t.Send("Использование: /trades SYMBOL PROFILE")
			return
		}
		out, err := p.TradesText(strings.ToUpper(args[0]), strings.ToLower(args[1]), 5)
		if err != nil {
			t.Sendf("❗️ %v", err)
			return
		}
		t.Send(out)
	}
}
