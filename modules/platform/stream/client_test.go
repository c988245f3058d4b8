package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// streamServer is a minimal websocket endpoint for exercising the client
type streamServer struct {
	t *testing.T

	mu       sync.Mutex
	conns    []*websocket.Conn
	sessions []string
	auth     []string

	server *httptest.Server
}

func newStreamServer(t *testing.T) *streamServer {
	s := &streamServer{t: t}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.sessions = append(s.sessions, r.Header.Get("X-Session-ID"))
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		s.mu.Unlock()

		// Keep the connection open; frames are pushed by the tests
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *streamServer) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *streamServer) send(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(s.t, s.conns)
	conn := s.conns[len(s.conns)-1]
	require.NoError(s.t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (s *streamServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
}

func (s *streamServer) handshakes() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]string, len(s.sessions))
	copy(sessions, s.sessions)
	auth := make([]string, len(s.auth))
	copy(auth, s.auth)
	return sessions, auth
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestClientConnectsAndDeliversEvents(t *testing.T) {
	server := newStreamServer(t)

	client := NewClient(server.url(), func() string { return "tok-123" }, 50*time.Millisecond, time.Second)
	defer client.Close()

	var mu sync.Mutex
	var events []*Event
	var statuses []Status
	client.SetEventHandler(func(ev *Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	client.SetStatusHandler(func(s Status) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	})

	client.Connect(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		return client.Status().State == StateConnected
	})

	server.send(`{"type":"analysisStatus","data":{"analysisId":"an-1","status":"running"}}`)
	server.send(`{"type":"not json`) // malformed frames are dropped, not fatal
	server.send(`{"type":"log","data":{"analysisId":"an-1"}}`)

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	})

	mu.Lock()
	assert.Equal(t, TypeAnalysisStatus, events[0].Type)
	assert.Equal(t, TypeLog, events[1].Type)
	mu.Unlock()

	sessions, auth := server.handshakes()
	require.Len(t, sessions, 1)
	assert.NotEmpty(t, sessions[0])
	assert.Equal(t, "Bearer tok-123", auth[0])
}

func TestClientReconnectsWithFreshSession(t *testing.T) {
	server := newStreamServer(t)

	client := NewClient(server.url(), nil, 20*time.Millisecond, 100*time.Millisecond)
	defer client.Close()
	client.Connect(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		sessions, _ := server.handshakes()
		return len(sessions) == 1
	})

	server.dropAll()

	waitFor(t, 3*time.Second, func() bool {
		sessions, _ := server.handshakes()
		return len(sessions) == 2
	})

	sessions, _ := server.handshakes()
	assert.NotEqual(t, sessions[0], sessions[1], "each dial negotiates a new session id")

	waitFor(t, 2*time.Second, func() bool {
		return client.Status().State == StateConnected
	})
}

func TestClientBuffersEventsUntilHandlerAttached(t *testing.T) {
	server := newStreamServer(t)

	client := NewClient(server.url(), nil, 50*time.Millisecond, time.Second)
	defer client.Close()
	client.Connect(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		return client.Status().State == StateConnected
	})

	server.send(`{"type":"log","data":{"analysisId":"an-1"}}`)
	// Give the frame time to arrive before the handler exists
	time.Sleep(100 * time.Millisecond)

	var mu sync.Mutex
	var events []*Event
	client.SetEventHandler(func(ev *Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	mu.Lock()
	require.Len(t, events, 1, "buffered events flush when the handler attaches")
	assert.Equal(t, TypeLog, events[0].Type)
	mu.Unlock()
}

func TestClientCloseStopsReconnecting(t *testing.T) {
	server := newStreamServer(t)

	client := NewClient(server.url(), nil, 20*time.Millisecond, 100*time.Millisecond)
	client.Connect(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		return client.Status().State == StateConnected
	})

	client.Close()

	sessionsBefore, _ := server.handshakes()
	time.Sleep(300 * time.Millisecond)
	sessionsAfter, _ := server.handshakes()
	assert.Equal(t, len(sessionsBefore), len(sessionsAfter), "no redial after Close")
}

func TestConnectIsIdempotent(t *testing.T) {
	server := newStreamServer(t)

	client := NewClient(server.url(), nil, 50*time.Millisecond, time.Second)
	defer client.Close()

	ctx := context.Background()
	client.Connect(ctx)
	client.Connect(ctx)

	waitFor(t, 2*time.Second, func() bool {
		return client.Status().State == StateConnected
	})
	time.Sleep(100 * time.Millisecond)

	sessions, _ := server.handshakes()
	assert.Len(t, sessions, 1, "a second Connect does not open a second loop")
}
