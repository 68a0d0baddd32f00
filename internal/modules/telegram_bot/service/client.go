package service

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/config"
	healthsvc "signal_bridge/internal/modules/health/service"
	"signal_bridge/pkg/logger"
)

const pollTimeoutSec = 30

// Telegram слушает посты каналов и пишет отчёты в служебный чат.
type Telegram struct {
	bot           *tgbot.BotAPI
	allow         map[int64]struct{}
	serviceChatID int64
	state         *healthsvc.State

	stopOnce sync.Once
}

func NewTelegram(cfg *config.Config, state *healthsvc.State) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram auth")
	}
	logger.Info("[TG] authorized as @%s", b.Self.UserName)
	state.SetTelegramConnected(true)

	return &Telegram{
		bot:           b,
		allow:         allowList(cfg.Channels),
		serviceChatID: cfg.Telegram.ServiceChatID,
		state:         state,
	}, nil
}

func allowList(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// Start запускает long polling; сообщения из разрешённых каналов уходят в out.
func (t *Telegram) Start(ctx context.Context, out chan<- models.Message) {
	u := tgbot.NewUpdate(0)
	u.Timeout = pollTimeoutSec
	u.AllowedUpdates = []string{"channel_post", "message"}
	updates := t.bot.GetUpdatesChan(u)

	logger.Info("[TG] listening to %d channel(s)", len(t.allow))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				msg, ok := messageFromUpdate(update, t.allow)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (t *Telegram) Stop() {
	t.stopOnce.Do(func() {
		t.bot.StopReceivingUpdates()
		t.state.SetTelegramConnected(false)
	})
}

// SendService пишет в служебный чат. Без service_chat_id ничего не делает.
func (t *Telegram) SendService(_ context.Context, format string, args ...any) error {
	if t.serviceChatID == 0 {
		return nil
	}
	_, err := t.bot.Send(tgbot.NewMessage(t.serviceChatID, fmt.Sprintf(format, args...)))
	if err != nil {
		return errors.Wrap(err, "telegram send")
	}
	return nil
}
