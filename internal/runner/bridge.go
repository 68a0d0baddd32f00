package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"signal_bridge/internal/executor"
	"signal_bridge/internal/models"
	healthsvc "signal_bridge/internal/modules/health/service"
	"signal_bridge/pkg/logger"
)

const (
	resultDiscarded = "discarded"
	resultAborted   = "aborted"
	resultExecuted  = "executed"
)

// Parser текст поста -> сигнал, nil если сигнала нет.
type Parser interface {
	Parse(text string, channelID int64) *models.TradingSignal
}

type SignalExecutor interface {
	Execute(ctx context.Context, sig *models.TradingSignal) executor.Report
}

// Notifier служебные отчёты оператору.
type Notifier interface {
	SendService(ctx context.Context, format string, args ...any) error
}

// Bridge обрабатывает посты по одному: разбор, исполнение, отчёт.
type Bridge struct {
	parser   Parser
	exec     SignalExecutor
	notifier Notifier
	state    *healthsvc.State
	metrics  *healthsvc.Metrics
}

func NewBridge(p Parser, exec SignalExecutor, n Notifier, state *healthsvc.State, metrics *healthsvc.Metrics) *Bridge {
	return &Bridge{
		parser:   p,
		exec:     exec,
		notifier: n,
		state:    state,
		metrics:  metrics,
	}
}

// Run до отмены ctx или закрытия канала.
func (b *Bridge) Run(ctx context.Context, inbox <-chan models.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			b.Handle(ctx, msg)
		}
	}
}

// Handle одно сообщение. Наружу ничего не выпускает, включая панику.
func (b *Bridge) Handle(ctx context.Context, msg models.Message) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "bridge.handle")
	span.SetTag("channel_id", msg.ChannelID)
	defer span.Finish()

	defer func() {
		if p := recover(); p != nil {
			ext.Error.Set(span, true)
			span.SetTag("outcome", "panic")
			logger.Error("[BRIDGE] error processing message from %d: %v", msg.ChannelID, p)
		}
	}()

	received := msg.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	b.metrics.Messages.Inc()
	b.state.TouchMessage(received)

	logger.Info("[BRIDGE] Received message from %d: %.100s", msg.ChannelID, msg.Text)

	sig := b.parser.Parse(msg.Text, msg.ChannelID)
	if sig == nil {
		b.metrics.Signals.WithLabelValues(resultDiscarded).Inc()
		span.SetTag("outcome", resultDiscarded)
		logger.Info("[BRIDGE] No valid signal found in message")
		return
	}

	b.state.TouchSignal(received)
	logger.Info("[BRIDGE] Parsed signal: %s %s entry=%s best=%s tp=%v sl=%s",
		sig.Action, sig.Symbol, fmtPrice(sig.EntryPrice), fmtPrice(sig.BestPrice), sig.TPLevels, fmtPrice(sig.SLLevel))

	report := b.exec.Execute(ctx, sig)

	if report.Aborted != "" {
		b.metrics.Signals.WithLabelValues(resultAborted).Inc()
		span.SetTag("outcome", resultAborted)
	} else {
		b.metrics.Signals.WithLabelValues(resultExecuted).Inc()
		span.SetTag("outcome", resultExecuted)
	}
	for _, leg := range []*executor.LegResult{report.Market, report.Pending} {
		if leg != nil {
			b.metrics.Orders.WithLabelValues(string(leg.Leg), string(leg.Outcome)).Inc()
		}
	}

	if err := b.notifier.SendService(ctx, "%s", formatReport(sig, report)); err != nil {
		logger.Warn("[BRIDGE] service report not sent: %v", err)
	}
}

func fmtPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *p)
}
