package telegram

import (
	"context"

	"go.uber.org/fx"

	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/telegram_bot/service"
	"signal_bridge/internal/runner"
)

const inboxSize = 64

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram, // func(*config.Config, *healthsvc.State) (*service.Telegram, error)
		),

		// *service.Telegram -> runner.Notifier
		fx.Provide(
			func(t *service.Telegram) runner.Notifier {
				return t
			},
		),

		// входящие посты каналов
		fx.Provide(
			func() chan models.Message {
				return make(chan models.Message, inboxSize)
			},
		),

		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram, inbox chan models.Message, ctx context.Context) {
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						t.Start(ctx, inbox)
						return nil
					},
					OnStop: func(_ context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
