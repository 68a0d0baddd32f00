package service

import (
	"context"
	"fmt"
	"time"

	"signal_bridge/internal/models"
)

type symbolInfoPayload struct {
	Name           string  `json:"name"`
	Digits         int     `json:"digits"`
	Point          float64 `json:"point"`
	VolumeMin      float64 `json:"volume_min"`
	VolumeMax      float64 `json:"volume_max"`
	VolumeStep     float64 `json:"volume_step"`
	TradeTickSize  float64 `json:"trade_tick_size"`
	TradeTickValue float64 `json:"trade_tick_value"`
}

type tickPayload struct {
	Time int64   `json:"time"`
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Last float64 `json:"last"`
}

type accountPayload struct {
	Login    int64   `json:"login"`
	Server   string  `json:"server"`
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

type lastErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SymbolSelect включает символ в Market Watch.
func (c *Client) SymbolSelect(ctx context.Context, symbol string) (bool, error) {
	var ok bool
	if err := c.call(ctx, "symbol_select", map[string]any{"symbol": symbol, "enable": true}, &ok); err != nil {
		return false, fmt.Errorf("SymbolSelect %s: %w", symbol, err)
	}
	return ok, nil
}

func (c *Client) SymbolInfo(ctx context.Context, symbol string) (*models.SymbolInfo, error) {
	var p symbolInfoPayload
	if err := c.call(ctx, "symbol_info", map[string]any{"symbol": symbol}, &p); err != nil {
		return nil, fmt.Errorf("SymbolInfo %s: %w", symbol, err)
	}
	return &models.SymbolInfo{
		Digits:     p.Digits,
		Point:      p.Point,
		VolumeMin:  p.VolumeMin,
		VolumeMax:  p.VolumeMax,
		VolumeStep: p.VolumeStep,
		TickSize:   p.TradeTickSize,
		TickValue:  p.TradeTickValue,
	}, nil
}

func (c *Client) SymbolInfoTick(ctx context.Context, symbol string) (*models.Tick, error) {
	var p tickPayload
	if err := c.call(ctx, "symbol_info_tick", map[string]any{"symbol": symbol}, &p); err != nil {
		return nil, fmt.Errorf("SymbolInfoTick %s: %w", symbol, err)
	}
	return &models.Tick{
		Bid:  p.Bid,
		Ask:  p.Ask,
		Last: p.Last,
		Time: time.Unix(p.Time, 0),
	}, nil
}

func (c *Client) AccountInfo(ctx context.Context) (*models.AccountInfo, error) {
	var p accountPayload
	if err := c.call(ctx, "account_info", nil, &p); err != nil {
		return nil, fmt.Errorf("AccountInfo: %w", err)
	}
	return &models.AccountInfo{
		Login:    p.Login,
		Server:   p.Server,
		Currency: p.Currency,
		Balance:  p.Balance,
	}, nil
}

// LastError последняя ошибка терминала.
func (c *Client) LastError(ctx context.Context) (models.VenueError, error) {
	var p lastErrorPayload
	if err := c.call(ctx, "last_error", nil, &p); err != nil {
		return models.VenueError{}, fmt.Errorf("LastError: %w", err)
	}
	return models.VenueError{Code: p.Code, Message: p.Message}, nil
}
