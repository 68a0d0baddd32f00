package service

import (
	"context"
	"errors"
	"fmt"

	"signal_bridge/internal/models"
)

// OrderSend: null от терминала отдаём как (nil, nil), причину смотреть через LastError.
func (c *Client) OrderSend(ctx context.Context, req models.TradeRequest) (*models.TradeResult, error) {
	if req.Volume <= 0 {
		return nil, fmt.Errorf("OrderSend: volume <= 0")
	}
	if req.Symbol == "" {
		return nil, fmt.Errorf("OrderSend: empty symbol")
	}

	var res models.TradeResult
	err := c.call(ctx, "order_send", req, &res)
	if errors.Is(err, models.ErrNoResult) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("OrderSend %s: %w", req.Symbol, err)
	}
	return &res, nil
}
