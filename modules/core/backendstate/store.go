package backendstate

import (
	"sync"
	"time"

	"csd-runlab/modules/platform/logger"
	"csd-runlab/modules/platform/stream"
)

// Metrics is the server-side health snapshot pushed over the stream
type Metrics struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemPercent    float64   `json:"memPercent"`
	DiskPercent   float64   `json:"diskPercent"`
	RunningCount  int       `json:"runningCount"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
	ServerTime    time.Time `json:"serverTime"`
	Version       string    `json:"version,omitempty"`
}

type initPayload struct {
	Backend *Metrics `json:"backend"`
}

type metricsPayload struct {
	Metrics *Metrics `json:"metrics"`
}

// Store is the projection of backend health/metrics state
type Store struct {
	mu      sync.RWMutex
	metrics Metrics
	seen    bool
	version uint64
}

// NewStore creates an empty backend state store
func NewStore() *Store {
	return &Store{}
}

// Version returns the store epoch
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ApplyEvent mutates the projection from a server event. Dropped events do
// not advance the epoch.
func (s *Store) ApplyEvent(ev *stream.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := false
	switch ev.Type {
	case stream.TypeInit:
		var payload initPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Warn("backendstate: malformed init payload: %v", err)
			break
		}
		if payload.Backend != nil {
			s.metrics = *payload.Backend
			s.seen = true
			applied = true
		}
	case stream.TypeMetricsUpdate:
		var payload metricsPayload
		if err := ev.Decode(&payload); err != nil || payload.Metrics == nil {
			logger.Warn("backendstate: malformed metricsUpdate payload")
			break
		}
		s.metrics = *payload.Metrics
		s.seen = true
		applied = true
	default:
		logger.Debug("backendstate: ignoring event %q", ev.Type)
	}

	if applied {
		s.version++
	}
}

// Snapshot returns the last known metrics and whether any have been received
func (s *Store) Snapshot() (Metrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics, s.seen
}
