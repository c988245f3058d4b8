package core

import (
	"csd-runlab/modules/core/reorder"
)

// EventType identifies the type of UI event
type EventType string

const (
	// Navigation events
	EventNavigate EventType = "navigate"
	EventBack     EventType = "back"
	EventRefresh  EventType = "refresh"
	EventQuit     EventType = "quit"

	// Team events
	EventSelectTeam EventType = "select_team"
	EventToggleNode EventType = "toggle_node"

	// Reorder events
	EventReorderBegin     EventType = "reorder_begin"
	EventReorderDrop      EventType = "reorder_drop"
	EventReorderNewFolder EventType = "reorder_new_folder"
	EventReorderCancel    EventType = "reorder_cancel"
	EventReorderCommit    EventType = "reorder_commit"

	// Analysis events
	EventRunAnalysis    EventType = "run_analysis"
	EventStopAnalysis   EventType = "stop_analysis"
	EventDeleteAnalysis EventType = "delete_analysis"
	EventUploadAnalysis EventType = "upload_analysis"
	EventViewLogs       EventType = "view_logs"

	// Auth events
	EventLogin  EventType = "login"
	EventLogout EventType = "logout"

	// Config events
	EventSaveConfig   EventType = "save_config"
	EventReloadConfig EventType = "reload_config"

	// UI state events
	EventFilter EventType = "filter"
	EventToggle EventType = "toggle"
	EventScroll EventType = "scroll"
)

// Event represents a user action in the UI
type Event struct {
	Type       EventType           `json:"type"`
	Target     string              `json:"target,omitempty"` // View or element target
	TeamID     string              `json:"team_id,omitempty"`
	AnalysisID string              `json:"analysis_id,omitempty"`
	NodeID     string              `json:"node_id,omitempty"`
	Drop       *reorder.DropTarget `json:"drop,omitempty"`
	Value      interface{}         `json:"value,omitempty"` // Generic payload
	Data       map[string]string   `json:"data,omitempty"`  // Additional data
}

// NewEvent creates a new event
func NewEvent(eventType EventType) *Event {
	return &Event{
		Type: eventType,
		Data: make(map[string]string),
	}
}

// WithTarget sets the target
func (e *Event) WithTarget(target string) *Event {
	e.Target = target
	return e
}

// WithTeam sets the team ID
func (e *Event) WithTeam(teamID string) *Event {
	e.TeamID = teamID
	return e
}

// WithAnalysis sets the analysis ID
func (e *Event) WithAnalysis(analysisID string) *Event {
	e.AnalysisID = analysisID
	return e
}

// WithNode sets the tree node ID
func (e *Event) WithNode(nodeID string) *Event {
	e.NodeID = nodeID
	return e
}

// WithDrop sets the drop target for a reorder drop
func (e *Event) WithDrop(target reorder.DropTarget) *Event {
	e.Drop = &target
	return e
}

// WithValue sets the value
func (e *Event) WithValue(value interface{}) *Event {
	e.Value = value
	return e
}

// WithData adds data key-value pairs
func (e *Event) WithData(key, value string) *Event {
	if e.Data == nil {
		e.Data = make(map[string]string)
	}
	e.Data[key] = value
	return e
}

// ============================================
// Notification events (from presenter to view)
// ============================================

// NotificationType identifies the type of notification
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// Notification represents a message to display to the user
type Notification struct {
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Duration    int              `json:"duration"` // seconds, 0 = persistent
	Dismissable bool             `json:"dismissable"`
}

// NewNotification creates a new notification
func NewNotification(ntype NotificationType, title, message string) *Notification {
	return &Notification{
		Type:        ntype,
		Title:       title,
		Message:     message,
		Duration:    5,
		Dismissable: true,
	}
}

// ============================================
// State update events (from presenter to view)
// ============================================

// StateUpdate represents a state change notification
type StateUpdate struct {
	ViewType  ViewModelType `json:"view_type"`
	ViewModel ViewModel     `json:"view_model"`
}

// ============================================
// Common event helpers
// ============================================

// NavigateEvent creates a navigation event
func NavigateEvent(target ViewModelType) *Event {
	return NewEvent(EventNavigate).WithTarget(string(target))
}

// SelectTeamEvent creates a team selection event
func SelectTeamEvent(teamID string) *Event {
	return NewEvent(EventSelectTeam).WithTeam(teamID)
}

// DropEvent creates a reorder drop event
func DropEvent(nodeID string, target reorder.DropTarget) *Event {
	return NewEvent(EventReorderDrop).WithNode(nodeID).WithDrop(target)
}

// FilterEvent creates a filter event
func FilterEvent(filterText string) *Event {
	return NewEvent(EventFilter).WithValue(filterText)
}
