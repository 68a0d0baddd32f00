package venue

import (
	"context"

	"go.uber.org/fx"

	"signal_bridge/internal/executor"
	healthsvc "signal_bridge/internal/modules/health/service"
	"signal_bridge/internal/modules/venue/service"
)

// Module поднимает соединение с терминалом. Ошибка на старте валит приложение.
func Module() fx.Option {
	return fx.Module("venue",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) executor.Venue { return c },
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client, state *healthsvc.State) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if err := c.Initialize(ctx); err != nil {
						return err
					}
					state.SetVenue(c.Connected)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return c.Shutdown(ctx)
				},
			})
		}),
	)
}
