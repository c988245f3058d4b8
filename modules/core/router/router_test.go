package router

import (
	"encoding/json"
	"testing"
	"time"

	"csd-runlab/modules/core/analyses"
	"csd-runlab/modules/core/backendstate"
	"csd-runlab/modules/core/teams"
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

func newFixture(hooks Hooks) (*Router, *teams.Store, *analyses.Store, *backendstate.Store) {
	teamStore := teams.NewStore()
	analysisStore := analyses.NewStore(100)
	backendStore := backendstate.NewStore()
	return New(teamStore, analysisStore, backendStore, hooks), teamStore, analysisStore, backendStore
}

func TestInitReachesAllStores(t *testing.T) {
	r, teamStore, analysisStore, backendStore := newFixture(Hooks{})

	r.Route(mkEvent(t, stream.TypeInit, map[string]interface{}{
		"user":     teams.CurrentUser{ID: "u1"},
		"teams":    []*teams.Team{{ID: "t1", Name: "Genomics"}},
		"analyses": []*analyses.Analysis{{ID: "an-1", Name: "ingest", TeamID: "t1"}},
		"backend":  map[string]interface{}{"cpuPercent": 5.0},
	}))

	require.NotNil(t, teamStore.Team("t1"))
	require.NotNil(t, analysisStore.Get("an-1"))
	_, seen := backendStore.Snapshot()
	assert.True(t, seen)
}

func TestTeamDeletedCascadesToAnalyses(t *testing.T) {
	r, teamStore, analysisStore, _ := newFixture(Hooks{})

	r.Route(mkEvent(t, stream.TypeInit, map[string]interface{}{
		"teams": []*teams.Team{{ID: "t1"}, {ID: "t2"}},
		"analyses": []*analyses.Analysis{
			{ID: "an-1", TeamID: "t1"},
			{ID: "an-2", TeamID: "t2"},
		},
	}))

	r.Route(mkEvent(t, stream.TypeTeamDeleted, map[string]string{"teamId": "t1"}))

	assert.Nil(t, teamStore.Team("t1"))
	assert.Nil(t, analysisStore.Get("an-1"), "the deleted team's analyses are purged")
	assert.NotNil(t, analysisStore.Get("an-2"))
}

func TestUnknownEventTypeIsDropped(t *testing.T) {
	r, teamStore, _, _ := newFixture(Hooks{})
	version := teamStore.Version()

	assert.NotPanics(t, func() {
		r.Route(mkEvent(t, "somethingNewer", map[string]string{"k": "v"}))
		r.Route(nil)
		r.Route(&stream.Event{})
	})
	assert.Equal(t, version, teamStore.Version())
}

func TestForceLogoutHook(t *testing.T) {
	var gotReason string
	r, teamStore, _, _ := newFixture(Hooks{
		ForceLogout: func(reason string) { gotReason = reason },
	})

	version := teamStore.Version()
	r.Route(mkEvent(t, stream.TypeForceLogout, map[string]string{"reason": "session revoked"}))

	assert.Equal(t, "session revoked", gotReason)
	assert.Equal(t, version, teamStore.Version(), "hooks bypass the stores")
}

func TestRoleChangedHook(t *testing.T) {
	var gotRole string
	r, teamStore, _, _ := newFixture(Hooks{
		RoleChanged: func(role string) { gotRole = role },
	})

	r.Route(mkEvent(t, stream.TypeUserRoleUpdated, map[string]string{"role": "admin"}))

	assert.Equal(t, "admin", gotRole)
	// No store mutation: the follow-up init carries the new permission set
	assert.Equal(t, uint64(0), teamStore.Version())
}

func TestHookEventsWithNoHooksConfigured(t *testing.T) {
	r, _, _, _ := newFixture(Hooks{})

	assert.NotPanics(t, func() {
		r.Route(mkEvent(t, stream.TypeForceLogout, map[string]string{"reason": "x"}))
		r.Route(mkEvent(t, stream.TypeUserRoleUpdated, map[string]string{"role": "x"}))
	})
}
