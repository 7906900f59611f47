package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

const (
	defaultMinBackoff = 250 * time.Millisecond
	defaultMaxBackoff = 10 * time.Second
)

// Conn owns the lifecycle of one persistent channel to the game server. It
// dials, reads and re-dials on a single goroutine, so every handler runs to
// completion before the next event is dispatched. Dial failures are retried
// silently with exponential backoff; they are never fatal.
//
// Missed events are not replayed after a reconnect. Consumers get a synthetic
// disconnected/connected pair and must wait for a fresh snapshot instead of
// assuming continuity.
type Conn struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration

	mu        sync.Mutex
	handlers  map[string]map[int]Handler
	nextSub   int
	ws        *websocket.Conn
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}

	writeMu sync.Mutex
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithLogger sets the connection logger.
func WithLogger(log zerolog.Logger) ConnOption {
	return func(c *Conn) { c.log = log }
}

// WithBackoff bounds the reconnect backoff window.
func WithBackoff(min, max time.Duration) ConnOption {
	return func(c *Conn) {
		c.minBackoff = min
		c.maxBackoff = max
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) ConnOption {
	return func(c *Conn) { c.dialer = d }
}

// NewConn builds a connection manager for the given ws:// URL. The channel is
// not established until Open is called.
func NewConn(url string, opts ...ConnOption) *Conn {
	c := &Conn{
		url:        url,
		dialer:     websocket.DefaultDialer,
		log:        zerolog.Nop(),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		handlers:   make(map[string]map[int]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts the dial/read loop. Calling Open while the loop is already
// running is a no-op.
func (c *Conn) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// Close tears the channel down and waits for the loop to exit. A closed Conn
// can be reopened.
func (c *Conn) Close() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	ws := c.ws
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if ws != nil {
		_ = ws.Close()
	}
	<-done
}

// Connected reports whether the channel is currently established.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// On registers a handler for a named event. The returned release function is
// synchronous: once it returns, the handler will not be invoked again.
func (c *Conn) On(event string, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]Handler)
	}
	id := c.nextSub
	c.nextSub++
	c.handlers[event][id] = h
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], id)
	}
}

// Emit sends one typed payload to the server.
func (c *Conn) Emit(event string, payload any) error {
	env, err := domain.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	ws := c.ws
	connected := c.connected
	c.mu.Unlock()
	if !connected || ws == nil {
		return domain.ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return ws.WriteJSON(env)
}

func (c *Conn) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	backoff := c.minBackoff

	for {
		ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Debug().Err(err).Dur("backoff", backoff).Msg("dial failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
			continue
		}
		backoff = c.minBackoff

		c.mu.Lock()
		c.ws = ws
		c.connected = true
		c.mu.Unlock()
		c.log.Debug().Str("url", c.url).Msg("channel established")
		c.dispatch(domain.EventConnected, nil)

		c.readLoop(ws)

		c.mu.Lock()
		c.ws = nil
		c.connected = false
		c.mu.Unlock()
		_ = ws.Close()
		c.log.Debug().Msg("channel lost")
		c.dispatch(domain.EventDisconnected, nil)

		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			// Malformed frames are logged and ignored; current state
			// is preserved.
			c.log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}
		c.dispatch(env.Type, env.Payload)
	}
}

func (c *Conn) dispatch(event string, payload json.RawMessage) {
	c.mu.Lock()
	subs := make([]Handler, 0, len(c.handlers[event]))
	for _, h := range c.handlers[event] {
		subs = append(subs, h)
	}
	c.mu.Unlock()

	for _, h := range subs {
		h(payload)
	}
}
