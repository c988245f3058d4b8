package analyses

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"csd-runlab/modules/platform/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkEvent(t *testing.T, typ string, payload interface{}) *stream.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &stream.Event{Type: typ, Data: data, Timestamp: time.Now()}
}

func logEvent(t *testing.T, analysisID, message string) *stream.Event {
	t.Helper()
	return mkEvent(t, stream.TypeLog, map[string]interface{}{
		"analysisId": analysisID,
		"line":       LogLine{Timestamp: time.Now(), Level: "info", Message: message},
	})
}

func seedStore(t *testing.T, maxLines int) *Store {
	t.Helper()
	s := NewStore(maxLines)
	s.ApplyEvent(mkEvent(t, stream.TypeInit, map[string]interface{}{
		"analyses": []*Analysis{
			{ID: "an-1", Name: "ingest", TeamID: "t1", Status: StatusRunning},
			{ID: "an-2", Name: "align", TeamID: "t1", Status: StatusStopped},
			{ID: "an-3", Name: "report", TeamID: "t2", Status: StatusCrashed},
		},
	}))
	return s
}

func TestStoreInitAndReads(t *testing.T) {
	s := seedStore(t, 100)

	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 1, s.RunningCount())

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "align", all[0].Name, "sorted by name")

	byTeam := s.ByTeam("t1")
	require.Len(t, byTeam, 2)

	assert.Nil(t, s.Get("missing"))
}

func TestInitPreservesLogRingsAcrossReconnect(t *testing.T) {
	s := seedStore(t, 100)
	s.ApplyEvent(logEvent(t, "an-1", "line one"))
	s.ApplyEvent(logEvent(t, "an-1", "line two"))

	// Reconnect: the server replays a full snapshot with no log history
	s.ApplyEvent(mkEvent(t, stream.TypeInit, map[string]interface{}{
		"analyses": []*Analysis{
			{ID: "an-1", Name: "ingest", TeamID: "t1", Status: StatusStopped},
		},
	}))

	a := s.Get("an-1")
	require.NotNil(t, a)
	assert.Equal(t, StatusStopped, a.Status, "snapshot state wins")
	require.Len(t, a.LogLines, 2, "log ring survives the snapshot swap")
	assert.Equal(t, "line one", a.LogLines[0].Message)
}

func TestUpsertPreservesLogRing(t *testing.T) {
	s := seedStore(t, 100)
	s.ApplyEvent(logEvent(t, "an-2", "output"))

	s.ApplyEvent(mkEvent(t, stream.TypeAnalysisUpdated, map[string]interface{}{
		"analysis": &Analysis{ID: "an-2", Name: "align-v2", TeamID: "t1", Status: StatusStopped},
	}))

	a := s.Get("an-2")
	assert.Equal(t, "align-v2", a.Name)
	require.Len(t, a.LogLines, 1)
}

func TestStatusEvent(t *testing.T) {
	s := seedStore(t, 100)
	startedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.ApplyEvent(mkEvent(t, stream.TypeAnalysisStatus, map[string]interface{}{
		"analysisId": "an-2",
		"status":     StatusRunning,
		"at":         startedAt,
	}))

	a := s.Get("an-2")
	assert.Equal(t, StatusRunning, a.Status)
	assert.True(t, a.LastRunAt.Equal(startedAt))

	// Stopping does not clobber the last run timestamp
	s.ApplyEvent(mkEvent(t, stream.TypeAnalysisStatus, map[string]interface{}{
		"analysisId": "an-2",
		"status":     StatusStopped,
	}))
	a = s.Get("an-2")
	assert.Equal(t, StatusStopped, a.Status)
	assert.True(t, a.LastRunAt.Equal(startedAt))

	// Status for an unknown analysis is dropped
	s.ApplyEvent(mkEvent(t, stream.TypeAnalysisStatus, map[string]interface{}{
		"analysisId": "ghost",
		"status":     StatusRunning,
	}))
	assert.Nil(t, s.Get("ghost"))
}

func TestLogRingIsBounded(t *testing.T) {
	s := seedStore(t, 5)

	for i := 0; i < 8; i++ {
		s.ApplyEvent(logEvent(t, "an-1", fmt.Sprintf("line %d", i)))
	}

	a := s.Get("an-1")
	require.Len(t, a.LogLines, 5)
	assert.Equal(t, "line 3", a.LogLines[0].Message, "oldest lines are dropped first")
	assert.Equal(t, "line 7", a.LogLines[4].Message)
}

func TestTeamDeletedCascade(t *testing.T) {
	s := seedStore(t, 100)

	s.ApplyEvent(mkEvent(t, stream.TypeTeamDeleted, map[string]string{"teamId": "t1"}))

	assert.Nil(t, s.Get("an-1"))
	assert.Nil(t, s.Get("an-2"))
	require.NotNil(t, s.Get("an-3"), "other teams' analyses are untouched")
	assert.Equal(t, 1, s.Count())
}

func TestDeleteEvent(t *testing.T) {
	s := seedStore(t, 100)

	s.ApplyEvent(mkEvent(t, stream.TypeAnalysisDeleted, map[string]string{"analysisId": "an-3"}))
	assert.Nil(t, s.Get("an-3"))

	version := s.Version()
	s.ApplyEvent(mkEvent(t, stream.TypeAnalysisDeleted, map[string]string{"analysisId": "an-3"}))
	assert.Equal(t, version, s.Version(), "a repeat delete is dropped without advancing the epoch")
	assert.Equal(t, 2, s.Count())
}

func TestReadsAreCopies(t *testing.T) {
	s := seedStore(t, 100)
	s.ApplyEvent(logEvent(t, "an-1", "original"))

	a := s.Get("an-1")
	a.Name = "mutated"
	a.LogLines[0].Message = "mutated"

	fresh := s.Get("an-1")
	assert.Equal(t, "ingest", fresh.Name)
	assert.Equal(t, "original", fresh.LogLines[0].Message)
}

func TestDroppedEventsDoNotAdvanceEpoch(t *testing.T) {
	s := seedStore(t, 100)
	version := s.Version()

	s.ApplyEvent(mkEvent(t, stream.TypeAnalysisStatus, "not-an-object"))
	assert.Equal(t, version, s.Version())

	s.ApplyEvent(mkEvent(t, stream.TypeLog, map[string]interface{}{
		"analysisId": "ghost",
		"line":       LogLine{Message: "hi"},
	}))
	assert.Equal(t, version, s.Version())

	// A cascade that purges nothing leaves the epoch alone too
	s.ApplyEvent(mkEvent(t, stream.TypeTeamDeleted, map[string]string{"teamId": "t-none"}))
	assert.Equal(t, version, s.Version())
}
