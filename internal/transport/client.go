package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/signer"
)

var (
	// ErrNotConnected is returned by Send when the socket is not open.
	ErrNotConnected = errors.New("transport not connected")
	// ErrReconnectExhausted is reported through OnError when the client gives up.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
	// ErrSignerFailed wraps signer errors reported through OnError.
	ErrSignerFailed = errors.New("signer failed")
	// ErrSendRateLimited is returned by Send when the outbound limiter refuses.
	ErrSendRateLimited = errors.New("send rate limited")
)

// Drop reasons reported to the Observer.
const (
	DropMalformed    = "malformed"
	DropNotConnected = "not_connected"
	DropRateLimited  = "rate_limited"
	DropWriteFailed  = "write_failed"
)

// Handlers are the lifecycle callbacks. Any may be nil. They run on client
// goroutines, never while the client holds its lock, and OnMessage is
// called in arrival order.
type Handlers struct {
	OnConnected    func(connectionID string)
	OnDisconnected func(Disconnect)
	OnMessage      func(protocol.Envelope)
	OnError        func(error)
}

// Observer receives transport metrics.
type Observer interface {
	SetConnectionState(state string)
	RecordReconnect(attempt int, delay time.Duration)
	RecordReconnectExhausted()
	RecordSendDropped(reason string)
	RecordFrameDropped(reason string)
}

// Options configures a Client.
type Options struct {
	Signer   signer.Signer
	Handlers Handlers
	Backoff  Backoff

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Header           http.Header

	// SendRate limits outbound messages per second. Zero disables limiting.
	SendRate  rate.Limit
	SendBurst int

	Dialer   *websocket.Dialer
	Clock    clock.Clock
	Logger   *zap.Logger
	Observer Observer
}

// Client maintains one logical connection to the event stream.
type Client struct {
	opts    Options
	clock   clock.Clock
	logger  *zap.Logger
	dialer  *websocket.Dialer
	limiter *rate.Limiter

	mu              sync.Mutex
	state           State
	shouldReconnect bool
	attempt         int
	gen             uint64
	timer           clock.Timer
	cancelDial      context.CancelFunc
	conn            *websocket.Conn
	connID          string

	writeMu sync.Mutex
}

// New creates an idle client. Nothing is dialed until Connect.
func New(opts Options) (*Client, error) {
	if opts.Signer == nil {
		return nil, errors.New("transport: signer is required")
	}
	if opts.Backoff.Base <= 0 || opts.Backoff.MaxAttempts <= 0 {
		defaults := DefaultBackoff()
		if opts.Backoff.Base <= 0 {
			opts.Backoff.Base = defaults.Base
		}
		if opts.Backoff.MaxAttempts <= 0 {
			opts.Backoff.MaxAttempts = defaults.MaxAttempts
		}
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	dialer := opts.Dialer
	if dialer == nil {
		d := *websocket.DefaultDialer
		dialer = &d
	}
	dialer.HandshakeTimeout = opts.HandshakeTimeout

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.SendRate > 0 {
		burst := opts.SendBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.SendRate, burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		opts:    opts,
		clock:   clock.OrReal(opts.Clock),
		logger:  logger,
		dialer:  dialer,
		limiter: limiter,
	}
	c.observeState(StateIdle)
	return c, nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the socket is open.
func (c *Client) IsConnected() bool {
	return c.State() == StateOpen
}

// Attempt returns the number of reconnect attempts since the last open.
func (c *Client) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// Connect starts connecting and returns immediately. It is a no-op while
// connecting or open. While a reconnect is pending it dials now instead of
// waiting out the backoff.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConnecting, StateOpen:
		c.logger.Debug("Connect ignored", zap.String("state", c.state.String()))
		return
	case StateClosed:
		c.stopTimerLocked()
	}

	c.attempt = 0
	c.shouldReconnect = true
	c.startDialLocked()
}

// Disconnect closes the connection and cancels any pending reconnect or
// in-flight dial. Safe to call in any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.shouldReconnect = false
	c.gen++
	c.stopTimerLocked()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	conn, connID := c.conn, c.connID
	c.conn = nil
	prev := c.state
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	if conn == nil {
		return
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	_ = conn.Close()

	c.logger.Info("Disconnected", zap.String("connection_id", connID))
	if prev == StateOpen && c.opts.Handlers.OnDisconnected != nil {
		c.opts.Handlers.OnDisconnected(Disconnect{
			ConnectionID: connID,
			Code:         websocket.CloseNormalClosure,
			Reason:       "client disconnect",
			Deliberate:   true,
		})
	}
}

// Send writes one envelope. Messages are never queued: if the socket is not
// open the message is dropped and ErrNotConnected returned.
func (c *Client) Send(kind protocol.MessageKind, payload interface{}) error {
	c.mu.Lock()
	conn, open := c.conn, c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		c.logger.Warn("Dropping send, not connected", zap.String("kind", string(kind)))
		c.sendDropped(DropNotConnected)
		return ErrNotConnected
	}
	if !c.limiter.Allow() {
		c.logger.Warn("Dropping send, rate limited", zap.String("kind", string(kind)))
		c.sendDropped(DropRateLimited)
		return ErrSendRateLimited
	}

	data, err := protocol.Encode(kind, payload, c.clock.Now())
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.sendDropped(DropWriteFailed)
		return fmt.Errorf("write %s: %w", kind, err)
	}
	return nil
}

// Ping sends a keep-alive ping frame.
func (c *Client) Ping() error {
	return c.Send(protocol.KindPing, nil)
}

func (c *Client) startDialLocked() {
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(tracing.WithTraceID(context.Background(), tracing.New()))
	c.cancelDial = cancel
	c.setStateLocked(StateConnecting)
	go c.dial(ctx, gen)
}

func (c *Client) dial(ctx context.Context, gen uint64) {
	signCtx, cancelSign := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	url, err := c.opts.Signer.SignURL(signCtx)
	cancelSign()
	if err != nil {
		c.connectFailed(ctx, gen, fmt.Errorf("%w: %v", ErrSignerFailed, err))
		return
	}

	conn, resp, err := c.dialer.DialContext(ctx, url, c.opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("dial: %s: %w", resp.Status, err)
		} else {
			err = fmt.Errorf("dial: %w", err)
		}
		c.connectFailed(ctx, gen, err)
		return
	}

	c.mu.Lock()
	if gen != c.gen || c.state != StateConnecting {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	connID := tracing.FromContext(ctx).String()
	c.conn = conn
	c.connID = connID
	c.attempt = 0
	c.setStateLocked(StateOpen)
	c.mu.Unlock()

	c.logger.Info("Connected", zap.String("connection_id", connID))
	if c.opts.Handlers.OnConnected != nil {
		c.opts.Handlers.OnConnected(connID)
	}

	go c.readLoop(conn, gen, connID)
}

func (c *Client) connectFailed(ctx context.Context, gen uint64, err error) {
	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()
	if stale {
		return
	}

	c.logger.Warn("Connection attempt failed", tracing.Field(ctx), zap.Error(err))
	c.reportError(err)
	c.dropped(gen, Disconnect{Err: err}, false)
}

func (c *Client) readLoop(conn *websocket.Conn, gen uint64, connID string) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			info := Disconnect{ConnectionID: connID, Err: err, Code: websocket.CloseAbnormalClosure}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				info.Code, info.Reason = ce.Code, ce.Text
			}
			c.dropped(gen, info, true)
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		env, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("Dropping malformed frame",
				zap.String("connection_id", connID),
				zap.Int("bytes", len(data)),
				zap.Error(err))
			if c.opts.Observer != nil {
				c.opts.Observer.RecordFrameDropped(DropMalformed)
			}
			continue
		}
		if env.Kind.IsControl() {
			continue
		}
		if !c.current(gen) {
			return
		}
		if c.opts.Handlers.OnMessage != nil {
			c.opts.Handlers.OnMessage(env)
		}
	}
}

// dropped handles the end of a connection or a failed attempt: schedule the
// next attempt with backoff, or give up once attempts are exhausted.
func (c *Client) dropped(gen uint64, info Disconnect, wasOpen bool) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.cancelDial = nil

	if !c.shouldReconnect {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		if wasOpen {
			info.Deliberate = true
			c.reportDisconnect(info)
		}
		return
	}

	next := c.attempt + 1
	delay, ok := c.opts.Backoff.Delay(next)
	if !ok {
		c.shouldReconnect = false
		c.setStateLocked(StateIdle)
		c.mu.Unlock()

		c.logger.Error("Reconnect attempts exhausted", zap.Int("attempts", c.attempt))
		if c.opts.Observer != nil {
			c.opts.Observer.RecordReconnectExhausted()
		}
		info.Terminal = true
		info.Attempt = c.opts.Backoff.MaxAttempts
		c.reportDisconnect(info)
		c.reportError(ErrReconnectExhausted)
		return
	}

	c.attempt = next
	c.setStateLocked(StateClosed)
	c.timer = c.clock.AfterFunc(delay, func() { c.reconnect(gen) })
	c.mu.Unlock()

	c.logger.Info("Reconnect scheduled",
		zap.Int("attempt", next),
		zap.Duration("delay", delay),
		zap.Int("code", info.Code))
	if c.opts.Observer != nil {
		c.opts.Observer.RecordReconnect(next, delay)
	}
	if wasOpen {
		info.Attempt, info.Delay = next, delay
		c.reportDisconnect(info)
	}
}

func (c *Client) reconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != StateClosed || !c.shouldReconnect {
		return
	}
	c.timer = nil
	c.startDialLocked()
}

func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

func (c *Client) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Client) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.observeState(s)
}

func (c *Client) observeState(s State) {
	if c.opts.Observer != nil {
		c.opts.Observer.SetConnectionState(s.String())
	}
}

func (c *Client) sendDropped(reason string) {
	if c.opts.Observer != nil {
		c.opts.Observer.RecordSendDropped(reason)
	}
}

func (c *Client) reportError(err error) {
	if c.opts.Handlers.OnError != nil {
		c.opts.Handlers.OnError(err)
	}
}

func (c *Client) reportDisconnect(info Disconnect) {
	if c.opts.Handlers.OnDisconnected != nil {
		c.opts.Handlers.OnDisconnected(info)
	}
}
