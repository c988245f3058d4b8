package stream

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"csd-runlab/modules/platform/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 512 * 1024
)

// TokenSource supplies the bearer token attached to the websocket handshake
type TokenSource func() string

// Client owns the single logical event channel to the runlab server.
// It reconnects forever with bounded backoff; transport failures are
// surfaced only through the status handler, never as errors.
type Client struct {
	streamURL    string
	token        TokenSource
	initialDelay time.Duration
	maxDelay     time.Duration

	// Callbacks
	onEvent  func(*Event)
	onStatus func(Status)

	// Buffered events (received before the handler is set)
	pendingEvents []*Event

	mu        sync.Mutex
	conn      *websocket.Conn
	status    Status
	started   bool
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewClient creates a new stream client
func NewClient(streamURL string, token TokenSource, initialDelay, maxDelay time.Duration) *Client {
	if initialDelay <= 0 {
		initialDelay = 500 * time.Millisecond
	}
	if maxDelay < initialDelay {
		maxDelay = 30 * time.Second
	}
	return &Client{
		streamURL:    streamURL,
		token:        token,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		status:       Status{State: StateDisconnected},
		done:         make(chan struct{}),
	}
}

// StreamURL derives the websocket endpoint from an API base URL
func StreamURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return apiURL
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/events"
	return u.String()
}

// SetEventHandler sets the callback for decoded server events.
// Also flushes any events that arrived before the handler was set.
func (c *Client) SetEventHandler(handler func(*Event)) {
	c.mu.Lock()
	c.onEvent = handler
	pending := c.pendingEvents
	c.pendingEvents = nil
	c.mu.Unlock()

	if handler != nil {
		for _, ev := range pending {
			handler(ev)
		}
	}
}

// SetStatusHandler sets the callback for connectivity changes
func (c *Client) SetStatusHandler(handler func(Status)) {
	c.mu.Lock()
	c.onStatus = handler
	current := c.status
	c.mu.Unlock()

	if handler != nil {
		handler(current)
	}
}

// Status returns the current connection status
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect starts the connection loop. It returns immediately; connectivity
// is reported through the status handler.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(ctx)
}

// Close tears down the connection and stops reconnecting
func (c *Client) Close() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
}

// run dials, reads until failure, then backs off and redials. Each successful
// dial negotiates a fresh session id; the server answers with a full init
// snapshot, so no delta replay is needed after a gap.
func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()

	delay := c.initialDelay
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		sessionID := uuid.NewString()
		c.setStatus(Status{State: StateConnecting, SessionID: sessionID, Since: time.Now()})

		conn, err := c.dial(ctx, sessionID)
		if err != nil {
			logger.Debug("stream: dial failed: %v", err)
			c.setStatus(Status{State: StateDisconnected, SessionID: sessionID, Since: time.Now()})
			if !c.sleep(ctx, delay) {
				return
			}
			delay = c.nextDelay(delay)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		c.setStatus(Status{State: StateConnected, SessionID: sessionID, Since: time.Now()})
		delay = c.initialDelay

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		c.setStatus(Status{State: StateDisconnected, SessionID: sessionID, Since: time.Now()})
		if !c.sleep(ctx, delay) {
			return
		}
		delay = c.nextDelay(delay)
	}
}

func (c *Client) dial(ctx context.Context, sessionID string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("X-Session-ID", sessionID)
	if c.token != nil {
		if tok := c.token(); tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.streamURL, header)
	return conn, err
}

// readLoop pumps frames from the connection until it breaks
func (c *Client) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	pingStop := make(chan struct{})
	go c.pingLoop(conn, pingStop)
	defer close(pingStop)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("stream: read error: %v", err)
			}
			conn.Close()
			return
		}

		ev, err := DecodeEvent(message)
		if err != nil {
			logger.Warn("stream: dropping malformed frame: %v", err)
			continue
		}

		c.dispatch(ev)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-stop:
			return
		case <-c.done:
			return
		}
	}
}

func (c *Client) dispatch(ev *Event) {
	c.mu.Lock()
	handler := c.onEvent
	if handler == nil {
		// Buffer until a handler is attached
		c.pendingEvents = append(c.pendingEvents, ev)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	handler(ev)
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	handler := c.onStatus
	c.mu.Unlock()
	if handler != nil {
		handler(s)
	}
}

// sleep waits for the backoff delay, returning false if shutdown began
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// nextDelay doubles the backoff with jitter, capped at maxDelay
func (c *Client) nextDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > c.maxDelay {
		next = c.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(next) / 4))
	return next - jitter
}
