package runner

import (
	"context"

	"go.uber.org/fx"

	"signal_bridge/internal/executor"
	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/parser"
)

func NewParser(cfg *config.Config) *parser.Parser {
	symbols := make([]parser.SymbolMapping, 0, len(cfg.SymbolMap))
	for _, m := range cfg.SymbolMap {
		symbols = append(symbols, parser.SymbolMapping{Key: m.Key, Symbol: m.Symbol})
	}
	return parser.New(parser.Config{
		SymbolMap: symbols,
		Buy:       cfg.Keywords.Buy,
		Sell:      cfg.Keywords.Sell,
		TP:        cfg.Keywords.TP,
		SL:        cfg.Keywords.SL,
	})
}

func NewExecutor(cfg *config.Config, venue executor.Venue) *executor.Executor {
	return executor.New(venue, executor.Config{
		TPThreshold:   cfg.Thresholds.TP,
		SLThreshold:   cfg.Thresholds.SL,
		MinLot:        cfg.Trading.MinLot,
		RiskAmount:    cfg.Trading.RiskAmount,
		PendingExpiry: cfg.Trading.PendingExpiry,
	})
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewParser,
			NewExecutor,
			func(p *parser.Parser) Parser { return p },
			func(e *executor.Executor) SignalExecutor { return e },
			NewBridge, // *Bridge
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			b *Bridge,
			inbox chan models.Message,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go b.Run(ctx, inbox)
					return nil
				},
			})
		}),
	)
}
