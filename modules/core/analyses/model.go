package analyses

import "time"

// Status is the lifecycle state of a hosted analysis script
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusCrashed  Status = "crashed"
	StatusDeleting Status = "deleting"
)

// Analysis is one remotely hosted analysis script
type Analysis struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeamID    string    `json:"teamId"`
	FileName  string    `json:"fileName,omitempty"`
	Status    Status    `json:"status"`
	LastRunAt time.Time `json:"lastRunAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`

	// Recent log output, bounded by the store's line limit. Not part of the
	// wire payload for analysis events; filled by log events.
	LogLines []LogLine `json:"-"`
}

// LogLine is one line of analysis output pushed by the server
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level,omitempty"`
	Message   string    `json:"message"`
}

// Wire payloads decoded from stream event data

type initPayload struct {
	Analyses []*Analysis `json:"analyses"`
}

type analysisPayload struct {
	Analysis *Analysis `json:"analysis"`
}

type analysisDeletedPayload struct {
	AnalysisID string `json:"analysisId"`
}

type analysisStatusPayload struct {
	AnalysisID string `json:"analysisId"`
	Status     Status `json:"status"`
	At         time.Time `json:"at,omitempty"`
}

type logPayload struct {
	AnalysisID string  `json:"analysisId"`
	Line       LogLine `json:"line"`
}

type teamDeletedPayload struct {
	TeamID string `json:"teamId"`
}
