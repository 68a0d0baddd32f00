package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/health"
	telegram "signal_bridge/internal/modules/telegram_bot"
	"signal_bridge/internal/modules/venue"
	"signal_bridge/internal/runner"
	"signal_bridge/pkg/logger"
	"signal_bridge/pkg/tracing"
)

const serviceName = "signal_bridge"

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger.SetServiceName(serviceName)
	syncLog, err := logger.Init(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer syncLog()

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		// корневой контекст, гасится на OnStop
		fx.Provide(
			func(lc fx.Lifecycle) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						cancel()
						return nil
					},
				})
				return ctx
			},
		),
		config.Module(cfg),
		health.Module(),
		venue.Module(),
		telegram.Module(),
		runner.Module(),
		fx.Invoke(initTracing),
	)

	app.Run()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.Tracing.Enabled {
		return nil
	}
	_, closer, err := tracing.InitTracer(serviceName, tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}
