package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppStateDefaults(t *testing.T) {
	s := NewAppState()

	assert.Equal(t, VMDashboard, s.CurrentView)
	assert.True(t, s.Initializing)
	assert.True(t, s.Logs.AutoScroll)
	require.NotNil(t, s.GetCurrentViewModel())
	assert.Equal(t, VMDashboard, s.GetCurrentViewModel().Type())
}

func TestUpdateViewModel(t *testing.T) {
	s := NewAppState()

	s.UpdateViewModel(&TeamsVM{
		BaseViewModel: BaseViewModel{VMType: VMTeams},
		Teams:         Teams{{ID: "t1", Name: "Genomics"}},
	})

	s.SetCurrentView(VMTeams)
	vm, ok := s.GetCurrentViewModel().(*TeamsVM)
	require.True(t, ok)
	require.Len(t, vm.Teams, 1)
	assert.Equal(t, "Genomics", vm.Teams[0].Name)
}

func TestNotificationLifecycle(t *testing.T) {
	s := NewAppState()

	s.AddNotification(NewNotification(NotifyInfo, "Info", "first"))
	s.AddNotification(NewNotification(NotifyError, "Error", "second"))
	require.Len(t, SelectNotifications(s), 2)

	s.RemoveNotification(0)
	notifications := SelectNotifications(s)
	require.Len(t, notifications, 1)
	assert.Equal(t, "second", notifications[0].Message)

	s.RemoveNotification(99) // out of range is ignored
	require.Len(t, SelectNotifications(s), 1)

	s.ClearNotifications()
	assert.Empty(t, SelectNotifications(s))
}

func TestSelectors(t *testing.T) {
	s := NewAppState()
	s.UpdateViewModel(&AnalysesVM{
		BaseViewModel: BaseViewModel{VMType: VMAnalyses},
		Analyses: []AnalysisVM{
			{ID: "an-1", Name: "ingest", Status: "running"},
			{ID: "an-2", Name: "align", Status: "stopped"},
		},
	})

	running := SelectRunningAnalyses(s)
	require.Len(t, running, 1)
	assert.Equal(t, "an-1", running[0].ID)

	found := SelectAnalysisByID(s, "an-2")
	require.NotNil(t, found)
	assert.Equal(t, "align", found.Name)
	assert.Nil(t, SelectAnalysisByID(s, "missing"))
}

func TestTeamsByID(t *testing.T) {
	teams := Teams{
		{ID: "t1", Name: "Genomics"},
		{ID: "t2", Name: "Astro"},
	}

	team := teams.ByID("t2")
	require.NotNil(t, team)
	assert.Equal(t, "Astro", team.Name)
	assert.Nil(t, teams.ByID("missing"))
}
