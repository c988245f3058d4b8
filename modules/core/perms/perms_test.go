package perms

import (
	"encoding/json"
	"testing"
	"time"

	"csd-runlab/modules/core/analyses"
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

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	teamStore := teams.NewStore()
	analysisStore := analyses.NewStore(100)

	teamStore.ApplyEvent(mkEvent(t, stream.TypeInit, map[string]interface{}{
		"user": teams.CurrentUser{ID: "u1", Name: "Dana"},
		"teams": []*teams.Team{
			{ID: "owned", Name: "Owned", Members: map[string]teams.Role{"u1": teams.RoleOwner}},
			{ID: "edits", Name: "Edits", Members: map[string]teams.Role{"u1": teams.RoleEditor}},
			{ID: "views", Name: "Views", Members: map[string]teams.Role{"u1": teams.RoleViewer}},
			{ID: "other", Name: "Other", Members: map[string]teams.Role{"u2": teams.RoleOwner}},
		},
	}))
	analysisStore.ApplyEvent(mkEvent(t, stream.TypeInit, map[string]interface{}{
		"analyses": []*analyses.Analysis{
			{ID: "an-1", Name: "ingest", TeamID: "views"},
			{ID: "an-2", Name: "secret", TeamID: "other"},
		},
	}))

	return NewResolver(teamStore, analysisStore)
}

func TestCanMatrix(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		teamID string
		action Action
		want   bool
	}{
		{"owned", ActionView, true},
		{"owned", ActionReorder, true},
		{"owned", ActionDelete, true},
		{"edits", ActionRun, true},
		{"edits", ActionUpload, true},
		{"edits", ActionReorder, true},
		{"edits", ActionDelete, false},
		{"views", ActionView, true},
		{"views", ActionRun, false},
		{"views", ActionReorder, false},
		{"other", ActionView, false},
		{"missing", ActionView, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Can(tt.teamID, tt.action),
			"team %s action %s", tt.teamID, tt.action)
	}
}

func TestVisibleTeamsExcludesNonMemberships(t *testing.T) {
	r := newResolver(t)

	visible := r.VisibleTeams()
	require.Len(t, visible, 3)
	for _, team := range visible {
		assert.NotEqual(t, "other", team.ID)
	}
}

func TestVisibleAnalyses(t *testing.T) {
	r := newResolver(t)

	list := r.VisibleAnalyses("views")
	require.Len(t, list, 1)
	assert.Equal(t, "an-1", list[0].ID)

	assert.Nil(t, r.VisibleAnalyses("other"), "non-members see nothing")
}

func TestVisibleTree(t *testing.T) {
	r := newResolver(t)

	assert.NotPanics(t, func() { r.VisibleTree("views") })
	assert.Nil(t, r.VisibleTree("other"))
}
