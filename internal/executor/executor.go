package executor

import (
	"context"
	"math"
	"time"

	"signal_bridge/internal/models"
	"signal_bridge/pkg/logger"
)

// Venue: то, что нужно исполнителю от терминала. Все вызовы блокирующие.
type Venue interface {
	Connected() bool
	SymbolSelect(ctx context.Context, symbol string) (bool, error)
	SymbolInfo(ctx context.Context, symbol string) (*models.SymbolInfo, error)
	SymbolInfoTick(ctx context.Context, symbol string) (*models.Tick, error)
	OrderSend(ctx context.Context, req models.TradeRequest) (*models.TradeResult, error)
	LastError(ctx context.Context) (models.VenueError, error)
}

// Config пороги и параметры сайзинга, читаются один раз при старте.
type Config struct {
	TPThreshold   float64
	SLThreshold   float64
	MinLot        float64
	RiskAmount    float64
	PendingExpiry time.Duration
}

const (
	tpOverrideMark = " TPT"
	slOverrideMark = " SLT"
	pendingSuffix  = "_pend"

	defaultPendingExpiry = 15 * time.Minute
)

// Executor строит рыночный и отложенный ордер по сигналу.
// Лока на терминал нет: два сигнала подряд могут перемежать вызовы.
type Executor struct {
	venue Venue
	cfg   Config
	now   func() time.Time
}

func New(venue Venue, cfg Config) *Executor {
	if cfg.PendingExpiry <= 0 {
		cfg.PendingExpiry = defaultPendingExpiry
	}
	return &Executor{
		venue: venue,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Report итог исполнения. Вызывающему он не обязателен.
type Report struct {
	// Aborted причина, если до терминала дело не дошло
	Aborted string

	Market  *LegResult
	Pending *LegResult

	TPOverridden bool
	SLOverridden bool
}

// Execute никогда не паникует наружу из-за терминала и ничего не ретраит.
func (e *Executor) Execute(ctx context.Context, sig *models.TradingSignal) Report {
	if !e.venue.Connected() {
		logger.Error("[EXEC] venue not initialized")
		return Report{Aborted: "venue not initialized"}
	}

	ok, err := e.venue.SymbolSelect(ctx, sig.Symbol)
	if err != nil || !ok {
		logger.Error("[EXEC] failed to select symbol %s: %v", sig.Symbol, err)
		return Report{Aborted: "symbol not selectable"}
	}

	info, err := e.venue.SymbolInfo(ctx, sig.Symbol)
	if err != nil || info == nil {
		logger.Error("[EXEC] symbol %s not found: %v", sig.Symbol, err)
		return Report{Aborted: "symbol info unavailable"}
	}

	lot := LotSize(info, e.cfg.MinLot, e.cfg.RiskAmount)

	tick, err := e.venue.SymbolInfoTick(ctx, sig.Symbol)
	if err != nil || tick == nil {
		logger.Error("[EXEC] failed to get tick data for %s: %v", sig.Symbol, err)
		return Report{Aborted: "tick unavailable"}
	}

	currentPrice := tick.Bid
	if sig.Action == models.SideBuy {
		currentPrice = tick.Ask
	}

	entry := currentPrice
	if models.Has(sig.EntryPrice) {
		entry = *sig.EntryPrice
	}
	if entry <= 0 {
		logger.Error("[EXEC] %s: no usable entry price (signal=%v current=%v)", sig.Symbol, sig.EntryPrice, currentPrice)
		return Report{Aborted: "no entry price"}
	}

	var tpCandidate *float64
	if len(sig.TPLevels) > 0 {
		tpCandidate = models.Price(sig.TPLevels[0])
	}
	tp, tpOverridden := resolveTP(sig.Action, entry, tpCandidate, e.cfg.TPThreshold)
	if tpOverridden {
		logger.Info("[EXEC] TP adjusted to %v using threshold", tp)
	}
	sl, slOverridden := resolveSL(sig.Action, entry, sig.SLLevel, e.cfg.SLThreshold)
	if slOverridden {
		logger.Info("[EXEC] SL adjusted to %v using threshold", sl)
	}

	currentPrice = roundPrice(currentPrice, info.Digits)
	tp = roundPrice(tp, info.Digits)
	sl = roundPrice(sl, info.Digits)

	magic := MagicNumber(sig.ChannelID)
	comment := ChannelTag(sig.ChannelID)
	if tpOverridden {
		comment += tpOverrideMark
	}
	if slOverridden {
		comment += slOverrideMark
	}
	comment = SanitizeComment(comment)

	report := Report{TPOverridden: tpOverridden, SLOverridden: slOverridden}

	market := models.TradeRequest{
		Action:      models.TradeActionDeal,
		Symbol:      sig.Symbol,
		Volume:      lot,
		Type:        marketOrderType(sig.Action),
		Price:       currentPrice,
		Magic:       magic,
		Comment:     comment,
		TypeTime:    models.OrderTimeGTC,
		TypeFilling: models.OrderFillingIOC,
		SL:          sl,
		TP:          tp,
	}
	res := e.send(ctx, LegMarket, market)
	report.Market = &res

	switch res.Outcome {
	case OutcomeDone:
		logger.Info("[EXEC] market order executed: %s %s at %v", sig.Action, sig.Symbol, currentPrice)
	case OutcomeRejected:
		// отказ по коду не мешает поставить отложку
	default:
		return report
	}

	if !models.Has(sig.BestPrice) || math.Abs(*sig.BestPrice-currentPrice) <= info.TickSize {
		return report
	}

	best := roundPrice(*sig.BestPrice, info.Digits)
	pending := models.TradeRequest{
		Action:     models.TradeActionPending,
		Symbol:     sig.Symbol,
		Volume:     lot,
		Type:       pendingOrderType(sig.Action, best, currentPrice),
		Price:      best,
		Magic:      magic,
		Comment:    SanitizeComment(truncate(comment, 26) + pendingSuffix),
		TypeTime:   models.OrderTimeSpecified,
		Expiration: e.now().Add(e.cfg.PendingExpiry).Unix(),
		SL:         sl,
		TP:         tp,
	}
	pres := e.send(ctx, LegPending, pending)
	report.Pending = &pres

	if pres.Outcome == OutcomeDone {
		logger.Info("[EXEC] pending order placed: %s %s %s at %v", sig.Action, sig.Symbol, pending.Type, best)
	}
	return report
}

func marketOrderType(side models.Side) models.OrderType {
	if side == models.SideBuy {
		return models.OrderTypeBuy
	}
	return models.OrderTypeSell
}

// pendingOrderType: BUY ниже рынка: лимит, выше: стоп. Для SELL зеркально.
func pendingOrderType(side models.Side, best, current float64) models.OrderType {
	if side == models.SideBuy {
		if best < current {
			return models.OrderTypeBuyLimit
		}
		return models.OrderTypeBuyStop
	}
	if best > current {
		return models.OrderTypeSellLimit
	}
	return models.OrderTypeSellStop
}
