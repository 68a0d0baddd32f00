package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/config"
)

type call struct {
	Method string
	Params json.RawMessage
}

// reply nil и skip=false => result: null
type handler func(method string, params json.RawMessage) (result any, rpcErr *RPCError, skip bool)

type gateway struct {
	mu    sync.Mutex
	calls []call
}

func (g *gateway) methods() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.calls))
	for _, c := range g.calls {
		out = append(out, c.Method)
	}
	return out
}

func (g *gateway) last(method string) json.RawMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.calls) - 1; i >= 0; i-- {
		if g.calls[i].Method == method {
			return g.calls[i].Params
		}
	}
	return nil
}

func startGateway(t *testing.T, h handler) (*gateway, string) {
	t.Helper()
	g := &gateway{}
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req struct {
				ID     uint64          `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := json.Unmarshal(data, &req); err != nil {
				return
			}
			g.mu.Lock()
			g.calls = append(g.calls, call{Method: req.Method, Params: req.Params})
			g.mu.Unlock()

			result, rpcErr, skip := h(req.Method, req.Params)
			if skip {
				continue
			}
			resp := map[string]any{"id": req.ID, "result": result}
			if rpcErr != nil {
				resp["error"] = rpcErr
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return g, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func defaultHandler(method string, _ json.RawMessage) (any, *RPCError, bool) {
	switch method {
	case "initialize", "symbol_select", "shutdown":
		return true, nil, false
	case "account_info":
		return map[string]any{"login": 5012345, "server": "Demo", "currency": "USD", "balance": 1000}, nil, false
	case "symbol_info":
		return map[string]any{
			"name": "EURUSD", "digits": 5, "point": 0.00001,
			"volume_min": 0.01, "volume_max": 500, "volume_step": 0.01,
			"trade_tick_size": 0.00001, "trade_tick_value": 1,
		}, nil, false
	case "symbol_info_tick":
		return map[string]any{"time": 1760443200, "bid": 1.1988, "ask": 1.199, "last": 0}, nil, false
	case "order_send":
		return map[string]any{"retcode": 10009, "order": 77, "deal": 78, "volume": 0.01, "price": 1.199, "comment": "Request executed"}, nil, false
	case "last_error":
		return map[string]any{"code": 1, "message": "Success"}, nil, false
	}
	return nil, &RPCError{Code: -32601, Message: "method not found"}, false
}

func newTestClient(url string, timeout time.Duration) *Client {
	cfg := &config.Config{}
	cfg.Venue.URL = url
	cfg.Venue.TerminalPath = `C:\MT5\terminal64.exe`
	cfg.Venue.RequestTimeout = timeout
	return NewClient(cfg)
}

func TestClientFlow(t *testing.T) {
	g, url := startGateway(t, defaultHandler)
	c := newTestClient(url, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx))
	assert.True(t, c.Connected())
	assert.JSONEq(t, `{"path":"C:\\MT5\\terminal64.exe"}`, string(g.last("initialize")))

	ok, err := c.SymbolSelect(ctx, "EURUSD")
	require.NoError(t, err)
	assert.True(t, ok)

	info, err := c.SymbolInfo(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 5, info.Digits)
	assert.Equal(t, 0.00001, info.TickSize)
	assert.Equal(t, 500.0, info.VolumeMax)

	tick, err := c.SymbolInfoTick(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.199, tick.Ask)
	assert.Equal(t, int64(1760443200), tick.Time.Unix())

	res, err := c.OrderSend(ctx, models.TradeRequest{
		Action:      models.TradeActionDeal,
		Symbol:      "EURUSD",
		Volume:      0.01,
		Type:        models.OrderTypeBuy,
		Price:       1.199,
		Magic:       456789,
		Comment:     "456789",
		TypeFilling: models.OrderFillingIOC,
		SL:          1.19,
		TP:          1.21,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, models.RetcodeDone, res.Retcode)
	assert.Equal(t, uint64(77), res.Order)
	assert.JSONEq(t, `{
		"action":1,"symbol":"EURUSD","volume":0.01,"type":0,"price":1.199,
		"magic":456789,"comment":"456789","type_time":0,"type_filling":1,"sl":1.19,"tp":1.21
	}`, string(g.last("order_send")))

	require.NoError(t, c.Shutdown(ctx))
	assert.False(t, c.Connected())
	assert.Equal(t, []string{
		"initialize", "account_info", "symbol_select", "symbol_info",
		"symbol_info_tick", "order_send", "shutdown",
	}, g.methods())
}

func TestClientOrderSendNull(t *testing.T) {
	_, url := startGateway(t, func(method string, params json.RawMessage) (any, *RPCError, bool) {
		if method == "order_send" {
			return nil, nil, false
		}
		if method == "last_error" {
			return map[string]any{"code": -10004, "message": "No IPC connection"}, nil, false
		}
		return defaultHandler(method, params)
	})
	c := newTestClient(url, time.Second)
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))

	res, err := c.OrderSend(ctx, models.TradeRequest{Symbol: "EURUSD", Volume: 0.01})
	require.NoError(t, err)
	assert.Nil(t, res)

	lastErr, err := c.LastError(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.VenueError{Code: -10004, Message: "No IPC connection"}, lastErr)
}

func TestClientRPCError(t *testing.T) {
	_, url := startGateway(t, func(method string, params json.RawMessage) (any, *RPCError, bool) {
		if method == "symbol_info" {
			return nil, &RPCError{Code: 404, Message: "symbol not found"}, false
		}
		return defaultHandler(method, params)
	})
	c := newTestClient(url, time.Second)
	require.NoError(t, c.Initialize(context.Background()))

	info, err := c.SymbolInfo(context.Background(), "NOPE")
	assert.Nil(t, info)
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 404, rpcErr.Code)
}

func TestClientInitializeRejected(t *testing.T) {
	_, url := startGateway(t, func(method string, params json.RawMessage) (any, *RPCError, bool) {
		switch method {
		case "initialize":
			return false, nil, false
		case "last_error":
			return map[string]any{"code": -6, "message": "Terminal: Authorization failed"}, nil, false
		}
		return defaultHandler(method, params)
	})
	c := newTestClient(url, time.Second)

	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authorization failed")
	assert.False(t, c.Connected())
}

func TestClientRequestTimeout(t *testing.T) {
	_, url := startGateway(t, func(method string, params json.RawMessage) (any, *RPCError, bool) {
		if method == "symbol_info_tick" {
			return nil, nil, true
		}
		return defaultHandler(method, params)
	})
	c := newTestClient(url, 100*time.Millisecond)
	require.NoError(t, c.Initialize(context.Background()))

	_, err := c.SymbolInfoTick(context.Background(), "EURUSD")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClientNotConnected(t *testing.T) {
	c := newTestClient("ws://127.0.0.1:1/ws", time.Second)

	_, err := c.SymbolSelect(context.Background(), "EURUSD")
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.False(t, c.Connected())
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestOrderSendValidates(t *testing.T) {
	c := newTestClient("ws://127.0.0.1:1/ws", time.Second)

	_, err := c.OrderSend(context.Background(), models.TradeRequest{Symbol: "EURUSD"})
	assert.Error(t, err)
}
