package executor

import (
	"context"
	"errors"
	"fmt"

	"signal_bridge/internal/models"
	"signal_bridge/pkg/logger"
)

type Leg string

const (
	LegMarket  Leg = "market"
	LegPending Leg = "pending"
)

type Outcome string

const (
	OutcomeDone     Outcome = "done"
	OutcomeRejected Outcome = "rejected"  // терминал ответил, retcode != DONE
	OutcomeNoResult Outcome = "no_result" // null вместо результата
	OutcomeFailed   Outcome = "failed"    // транспорт/паника
)

// LegResult результат одной ноги, вместо глотания исключений.
type LegResult struct {
	Leg     Leg
	Request models.TradeRequest
	Outcome Outcome
	Result  *models.TradeResult
	Detail  string
}

func (e *Executor) send(ctx context.Context, leg Leg, req models.TradeRequest) (res LegResult) {
	res = LegResult{Leg: leg, Request: req}

	defer func() {
		if p := recover(); p != nil {
			res.Outcome = OutcomeFailed
			res.Result = nil
			res.Detail = fmt.Sprintf("panic: %v", p)
			logger.Error("[EXEC] exception during %s order: %v", leg, p)
		}
	}()

	logger.Info("[EXEC] sending %s order: %+v", leg, req)
	result, err := e.venue.OrderSend(ctx, req)

	switch {
	case errors.Is(err, models.ErrNoResult) || (err == nil && result == nil):
		res.Outcome = OutcomeNoResult
		lastErr, lerr := e.venue.LastError(ctx)
		if lerr != nil {
			res.Detail = fmt.Sprintf("last error unavailable: %v", lerr)
		} else {
			res.Detail = lastErr.String()
		}
		logger.Error("[EXEC] %s order send returned nothing, last error: %s", leg, res.Detail)

	case err != nil:
		res.Outcome = OutcomeFailed
		res.Detail = err.Error()
		logger.Error("[EXEC] exception during %s order: %v", leg, err)

	case result.Retcode != models.RetcodeDone:
		res.Outcome = OutcomeRejected
		res.Result = result
		res.Detail = fmt.Sprintf("%d - %s", result.Retcode, result.Comment)
		logger.Error("[EXEC] %s order failed: %s", leg, res.Detail)

	default:
		res.Outcome = OutcomeDone
		res.Result = result
		res.Detail = fmt.Sprintf("order=%d deal=%d", result.Order, result.Deal)
	}
	return res
}
