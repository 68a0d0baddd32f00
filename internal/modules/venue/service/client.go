package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/config"
	"signal_bridge/pkg/logger"
)

var (
	ErrNotConnected     = errors.New("venue: not connected")
	ErrConnectionClosed = errors.New("venue: connection closed")
)

// RPCError ошибка, которую вернул шлюз терминала.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("venue rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error,omitempty"`
}

// Client: одно WebSocket-соединение с шлюзом терминала.
// Ответы сопоставляются запросам по id, поэтому вызовы можно делать из разных горутин.
type Client struct {
	url          string
	terminalPath string
	login        int64
	password     string
	server       string
	timeout      time.Duration

	wsDialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	done    chan struct{}
	waiters map[uint64]chan rpcResponse

	writeMu     sync.Mutex
	seq         atomic.Uint64
	initialized atomic.Bool
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		url:          cfg.Venue.URL,
		terminalPath: cfg.Venue.TerminalPath,
		login:        cfg.Venue.Login,
		password:     cfg.Venue.Password,
		server:       cfg.Venue.Server,
		timeout:      cfg.Venue.RequestTimeout,
		wsDialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		waiters:      make(map[uint64]chan rpcResponse),
	}
}

// Initialize подключается к шлюзу и поднимает терминал.
func (c *Client) Initialize(ctx context.Context) error {
	conn, _, err := c.wsDialer.DialContext(ctx, c.url, http.Header{})
	if err != nil {
		return errors.Wrapf(err, "venue dial %s", c.url)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.done = done
	c.mu.Unlock()

	go c.readLoop(conn, done)

	params := map[string]any{"path": c.terminalPath}
	if c.login != 0 {
		params["login"] = c.login
		params["password"] = c.password
		params["server"] = c.server
	}

	var ok bool
	if err := c.call(ctx, "initialize", params, &ok); err != nil {
		c.closeConn()
		return errors.Wrap(err, "venue initialize")
	}
	if !ok {
		lastErr, _ := c.LastError(ctx)
		c.closeConn()
		return fmt.Errorf("venue initialize failed: %s", lastErr)
	}

	c.initialized.Store(true)
	logger.Info("[VENUE] initialized successfully")

	if acc, err := c.AccountInfo(ctx); err == nil {
		logger.Info("[VENUE] connected to account: %d (%s, %s)", acc.Login, acc.Server, acc.Currency)
	}
	return nil
}

// Shutdown отпускает терминал и закрывает соединение.
func (c *Client) Shutdown(ctx context.Context) error {
	if !c.initialized.Swap(false) {
		c.closeConn()
		return nil
	}
	err := c.call(ctx, "shutdown", nil, nil)
	c.closeConn()
	if err != nil && !errors.Is(err, models.ErrNoResult) {
		return errors.Wrap(err, "venue shutdown")
	}
	return nil
}

func (c *Client) Connected() bool {
	return c.initialized.Load()
}

func (c *Client) closeConn() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		close(done)
		c.initialized.Store(false)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Warn("[VENUE] read loop stopped: %v", err)
			}
			return
		}

		var resp rpcResponse
		if err := sonic.Unmarshal(data, &resp); err != nil {
			logger.Warn("[VENUE] bad frame: %v; body=%s", err, string(data))
			continue
		}

		c.mu.Lock()
		ch, ok := c.waiters[resp.ID]
		delete(c.waiters, resp.ID)
		c.mu.Unlock()
		if !ok {
			logger.Debug("[VENUE] response for unknown id %d", resp.ID)
			continue
		}
		ch <- resp
	}
}

// call отправляет запрос и ждёт ответ не дольше request_timeout.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	id := c.seq.Add(1)
	ch := make(chan rpcResponse, 1)
	c.waiters[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := sonic.Marshal(rpcRequest{ID: id, Method: method, Params: params})
	if err != nil {
		return errors.Wrapf(err, "%s marshal", method)
	}

	c.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		return errors.Wrapf(err, "%s write", method)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if len(resp.Result) == 0 || string(resp.Result) == "null" {
			return models.ErrNoResult
		}
		if out == nil {
			return nil
		}
		if err := sonic.Unmarshal(resp.Result, out); err != nil {
			return errors.Wrapf(err, "%s decode; body=%s", method, string(resp.Result))
		}
		return nil
	case <-done:
		return ErrConnectionClosed
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "%s wait", method)
	}
}
