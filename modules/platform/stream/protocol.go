package stream

import (
	"encoding/json"
	"time"
)

// Server event vocabulary. The server may add new types at any time;
// unknown types must be ignored by consumers, never treated as fatal.
const (
	TypeInit                 = "init"
	TypeTeamCreated          = "teamCreated"
	TypeTeamDeleted          = "teamDeleted"
	TypeTeamStructureUpdated = "teamStructureUpdated"
	TypeFolderCreated        = "folderCreated"
	TypeFolderUpdated        = "folderUpdated"
	TypeFolderDeleted        = "folderDeleted"
	TypeAnalysisCreated      = "analysisCreated"
	TypeAnalysisUpdated      = "analysisUpdated"
	TypeAnalysisDeleted      = "analysisDeleted"
	TypeAnalysisStatus       = "analysisStatus"
	TypeLog                  = "log"
	TypeMetricsUpdate        = "metricsUpdate"
	TypeForceLogout          = "forceLogout"
	TypeUserRoleUpdated      = "userRoleUpdated"
)

// Event is the envelope for every frame the server pushes
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Decode decodes the event data into the given target
func (e *Event) Decode(target interface{}) error {
	if e.Data == nil {
		return nil
	}
	return json.Unmarshal(e.Data, target)
}

// DecodeEvent deserializes an event frame from JSON
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ConnectionState describes the transport state
type ConnectionState string

const (
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

// Status is the connectivity signal surfaced to the UI
type Status struct {
	State     ConnectionState `json:"state"`
	SessionID string          `json:"session_id"`
	Since     time.Time       `json:"since"`
}
