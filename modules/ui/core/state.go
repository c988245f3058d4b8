package core

import (
	"sync"
	"time"

	"csd-runlab/modules/platform/stream"
)

// AppState represents the global application state
type AppState struct {
	mu sync.RWMutex

	// Current view
	CurrentView ViewModelType

	// View models (cached)
	Dashboard *DashboardVM
	Teams     *TeamsVM
	Analyses  *AnalysesVM
	Logs      *LogsVM
	Config    *ConfigVM

	// Global state
	Connection    stream.Status
	LoggedIn      bool
	Initializing  bool // True until the first init snapshot arrives
	LastRefresh   time.Time
	Notifications []*Notification
}

// NewAppState creates a new application state
func NewAppState() *AppState {
	return &AppState{
		CurrentView:   VMDashboard,
		Initializing:  true,
		Dashboard:     &DashboardVM{BaseViewModel: BaseViewModel{VMType: VMDashboard}},
		Teams:         &TeamsVM{BaseViewModel: BaseViewModel{VMType: VMTeams}},
		Analyses:      &AnalysesVM{BaseViewModel: BaseViewModel{VMType: VMAnalyses}},
		Logs:          &LogsVM{BaseViewModel: BaseViewModel{VMType: VMLogs}, AutoScroll: true, MaxLines: 1000},
		Config:        &ConfigVM{BaseViewModel: BaseViewModel{VMType: VMConfig}},
		Notifications: make([]*Notification, 0),
	}
}

// GetCurrentViewModel returns the view model for the current view
func (s *AppState) GetCurrentViewModel() ViewModel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.CurrentView {
	case VMDashboard:
		return s.Dashboard
	case VMTeams:
		return s.Teams
	case VMAnalyses:
		return s.Analyses
	case VMLogs:
		return s.Logs
	case VMConfig:
		return s.Config
	default:
		return s.Dashboard
	}
}

// SetCurrentView changes the current view
func (s *AppState) SetCurrentView(view ViewModelType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentView = view
}

// UpdateViewModel updates a specific view model
func (s *AppState) UpdateViewModel(vm ViewModel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := vm.(type) {
	case *DashboardVM:
		s.Dashboard = v
	case *TeamsVM:
		s.Teams = v
	case *AnalysesVM:
		s.Analyses = v
	case *LogsVM:
		s.Logs = v
	case *ConfigVM:
		s.Config = v
	}
}

// SetConnection records the latest stream connection status
func (s *AppState) SetConnection(status stream.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Connection = status
}

// GetConnection returns the latest stream connection status
func (s *AppState) GetConnection() stream.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Connection
}

// AddNotification adds a notification
func (s *AppState) AddNotification(n *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notifications = append(s.Notifications, n)
}

// RemoveNotification removes a notification
func (s *AppState) RemoveNotification(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.Notifications) {
		s.Notifications = append(s.Notifications[:index], s.Notifications[index+1:]...)
	}
}

// ClearNotifications clears all notifications
func (s *AppState) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notifications = make([]*Notification, 0)
}

// ============================================
// State selectors (for views to query state)
// ============================================

// SelectTeams returns all teams
func SelectTeams(state *AppState) []TeamVM {
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.Teams == nil {
		return nil
	}
	return state.Teams.Teams
}

// SelectRunningAnalyses returns analyses currently running
func SelectRunningAnalyses(state *AppState) []AnalysisVM {
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.Analyses == nil {
		return nil
	}

	var running []AnalysisVM
	for _, a := range state.Analyses.Analyses {
		if a.Status == "running" {
			running = append(running, a)
		}
	}
	return running
}

// SelectAnalysisByID returns an analysis by ID
func SelectAnalysisByID(state *AppState, analysisID string) *AnalysisVM {
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.Analyses == nil {
		return nil
	}

	for _, a := range state.Analyses.Analyses {
		if a.ID == analysisID {
			return &a
		}
	}
	return nil
}

// SelectNotifications returns all notifications
func SelectNotifications(state *AppState) []*Notification {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.Notifications
}
