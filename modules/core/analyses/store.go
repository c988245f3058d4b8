package analyses

import (
	"sort"
	"sync"

	"csd-runlab/modules/platform/logger"
	"csd-runlab/modules/platform/stream"
)

// Store is the authoritative projection of analysis state. Like the teams
// store it is mutated only through routed server events and hands out copies
// on every read.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]*Analysis
	maxLines int
	version  uint64
}

// NewStore creates an empty analyses store. maxLines bounds the per-analysis
// log ring.
func NewStore(maxLines int) *Store {
	if maxLines <= 0 {
		maxLines = 1000
	}
	return &Store{
		byID:     make(map[string]*Analysis),
		maxLines: maxLines,
	}
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
		applied = s.applyInit(ev)
	case stream.TypeAnalysisCreated, stream.TypeAnalysisUpdated:
		applied = s.applyUpsert(ev)
	case stream.TypeAnalysisDeleted:
		applied = s.applyDeleted(ev)
	case stream.TypeAnalysisStatus:
		applied = s.applyStatus(ev)
	case stream.TypeLog:
		applied = s.applyLog(ev)
	case stream.TypeTeamDeleted:
		// Cascade: the router sends this after the teams store handled it
		applied = s.applyTeamDeleted(ev)
	default:
		logger.Debug("analyses: ignoring event %q", ev.Type)
	}

	if applied {
		s.version++
	}
}

func (s *Store) applyInit(ev *stream.Event) bool {
	var payload initPayload
	if err := ev.Decode(&payload); err != nil {
		logger.Warn("analyses: malformed init payload: %v", err)
		return false
	}

	// Full snapshot replaces everything; log rings from the previous
	// connection are carried over so a reconnect doesn't blank the log view.
	old := s.byID
	s.byID = make(map[string]*Analysis, len(payload.Analyses))
	for _, a := range payload.Analyses {
		if a == nil || a.ID == "" {
			continue
		}
		if prev, ok := old[a.ID]; ok {
			a.LogLines = prev.LogLines
		}
		s.byID[a.ID] = a
	}
	return true
}

func (s *Store) applyUpsert(ev *stream.Event) bool {
	var payload analysisPayload
	if err := ev.Decode(&payload); err != nil || payload.Analysis == nil || payload.Analysis.ID == "" {
		logger.Warn("analyses: malformed analysis payload")
		return false
	}
	a := payload.Analysis
	if prev, ok := s.byID[a.ID]; ok {
		a.LogLines = prev.LogLines
	}
	s.byID[a.ID] = a
	return true
}

func (s *Store) applyDeleted(ev *stream.Event) bool {
	var payload analysisDeletedPayload
	if err := ev.Decode(&payload); err != nil || payload.AnalysisID == "" {
		logger.Warn("analyses: malformed analysisDeleted payload")
		return false
	}
	if _, ok := s.byID[payload.AnalysisID]; !ok {
		logger.Debug("analyses: delete for unknown analysis %s", payload.AnalysisID)
		return false
	}
	delete(s.byID, payload.AnalysisID)
	return true
}

func (s *Store) applyStatus(ev *stream.Event) bool {
	var payload analysisStatusPayload
	if err := ev.Decode(&payload); err != nil || payload.AnalysisID == "" {
		logger.Warn("analyses: malformed analysisStatus payload")
		return false
	}
	a, ok := s.byID[payload.AnalysisID]
	if !ok {
		logger.Debug("analyses: status for unknown analysis %s", payload.AnalysisID)
		return false
	}
	a.Status = payload.Status
	if payload.Status == StatusRunning && !payload.At.IsZero() {
		a.LastRunAt = payload.At
	}
	return true
}

func (s *Store) applyLog(ev *stream.Event) bool {
	var payload logPayload
	if err := ev.Decode(&payload); err != nil || payload.AnalysisID == "" {
		logger.Warn("analyses: malformed log payload")
		return false
	}
	a, ok := s.byID[payload.AnalysisID]
	if !ok {
		logger.Debug("analyses: log for unknown analysis %s", payload.AnalysisID)
		return false
	}
	a.LogLines = append(a.LogLines, payload.Line)
	if len(a.LogLines) > s.maxLines {
		a.LogLines = a.LogLines[len(a.LogLines)-s.maxLines:]
	}
	return true
}

func (s *Store) applyTeamDeleted(ev *stream.Event) bool {
	var payload teamDeletedPayload
	if err := ev.Decode(&payload); err != nil || payload.TeamID == "" {
		logger.Warn("analyses: malformed teamDeleted payload")
		return false
	}
	purged := false
	for id, a := range s.byID {
		if a.TeamID == payload.TeamID {
			delete(s.byID, id)
			purged = true
		}
	}
	return purged
}

// Get returns a copy of one analysis, or nil if unknown
func (s *Store) Get(id string) *Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil
	}
	return s.copyAnalysis(a)
}

// All returns copies of every analysis, sorted by name
func (s *Store) All() []*Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Analysis, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, s.copyAnalysis(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByTeam returns copies of the analyses belonging to one team, sorted by name
func (s *Store) ByTeam(teamID string) []*Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Analysis
	for _, a := range s.byID {
		if a.TeamID == teamID {
			out = append(out, s.copyAnalysis(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of known analyses
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// RunningCount returns how many analyses are currently running
func (s *Store) RunningCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.byID {
		if a.Status == StatusRunning {
			count++
		}
	}
	return count
}

func (s *Store) copyAnalysis(a *Analysis) *Analysis {
	c := *a
	if len(a.LogLines) > 0 {
		c.LogLines = make([]LogLine, len(a.LogLines))
		copy(c.LogLines, a.LogLines)
	}
	return &c
}
