package core

import (
	"time"

	"csd-runlab/modules/core/analyses"
	"csd-runlab/modules/core/teams"
)

// ViewModelType identifies the type of view model
type ViewModelType string

const (
	VMDashboard ViewModelType = "dashboard"
	VMTeams     ViewModelType = "teams"
	VMAnalyses  ViewModelType = "analyses"
	VMLogs      ViewModelType = "logs"
	VMConfig    ViewModelType = "config"
)

// ViewModel is the base interface for all view models
type ViewModel interface {
	Type() ViewModelType
	LastUpdated() time.Time
}

// BaseViewModel provides common fields for all view models
type BaseViewModel struct {
	VMType    ViewModelType `json:"type"`
	UpdatedAt time.Time     `json:"updated_at"`
	Error     string        `json:"error,omitempty"`
	IsLoading bool          `json:"is_loading"`
}

func (vm *BaseViewModel) Type() ViewModelType    { return vm.VMType }
func (vm *BaseViewModel) LastUpdated() time.Time { return vm.UpdatedAt }

// TeamVM represents a team for display
type TeamVM struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Role          teams.Role `json:"role"`
	AnalysisCount int        `json:"analysis_count"`
	RunningCount  int        `json:"running_count"`
	CanReorder    bool       `json:"can_reorder"`
	CanRun        bool       `json:"can_run"`
	CanUpload     bool       `json:"can_upload"`
}

// TreeRowVM is one flattened row of a team's tree, ready to render.
// Rows come out in display order with Depth giving the indent level.
type TreeRowVM struct {
	NodeID     string          `json:"node_id"`
	Name       string          `json:"name"`
	Depth      int             `json:"depth"`
	IsFolder   bool            `json:"is_folder"`
	Expanded   bool            `json:"expanded"`
	ChildCount int             `json:"child_count"`
	AnalysisID string          `json:"analysis_id,omitempty"`
	Status     analyses.Status `json:"status,omitempty"`
	Pending    bool            `json:"pending"` // part of an uncommitted reorder
}

// AnalysisVM represents an analysis for display
type AnalysisVM struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	TeamID    string          `json:"team_id"`
	TeamName  string          `json:"team_name"`
	FileName  string          `json:"file_name"`
	Status    analyses.Status `json:"status"`
	LastRunAt *time.Time      `json:"last_run_at,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
	Uptime    string          `json:"uptime,omitempty"`
	CanRun    bool            `json:"can_run"`
	CanStop   bool            `json:"can_stop"`
	CanDelete bool            `json:"can_delete"`
}

// LogLineVM represents a log line for display
type LogLineVM struct {
	Timestamp    time.Time `json:"timestamp"`
	TimeStr      string    `json:"time_str"`
	AnalysisID   string    `json:"analysis_id"`
	AnalysisName string    `json:"analysis_name"`
	Level        string    `json:"level"`
	Message      string    `json:"message"`
}

// BackendVM represents server-pushed backend metrics for display
type BackendVM struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemPercent    float64   `json:"mem_percent"`
	DiskPercent   float64   `json:"disk_percent"`
	RunningCount  int       `json:"running_count"`
	Uptime        string    `json:"uptime"`
	ServerTime    time.Time `json:"server_time"`
	ServerVersion string    `json:"server_version"`
	HasData       bool      `json:"has_data"`
}

// LocalVM represents local machine metrics for display
type LocalVM struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
	MemUsedGB  float64 `json:"mem_used_gb"`
	MemTotalGB float64 `json:"mem_total_gb"`
	LoadAvg1   float64 `json:"load_avg_1"`
	NumCPU     int     `json:"num_cpu"`
}

// ============================================
// Composite View Models (for each view/page)
// ============================================

// DashboardVM is the view model for the dashboard
type DashboardVM struct {
	BaseViewModel
	UserName      string       `json:"user_name"`
	UserRole      string       `json:"user_role"`
	TeamCount     int          `json:"team_count"`
	AnalysisCount int          `json:"analysis_count"`
	RunningCount  int          `json:"running_count"`
	Teams         []TeamVM     `json:"teams"`
	Running       []AnalysisVM `json:"running"`
	Backend       BackendVM    `json:"backend"`
	Local         LocalVM      `json:"local"`
	RecentLogs    []LogLineVM  `json:"recent_logs"`
}

// TeamsVM is the view model for the teams tree view
type TeamsVM struct {
	BaseViewModel
	Teams          Teams       `json:"teams"`
	SelectedTeamID string      `json:"selected_team_id"`
	Rows           []TreeRowVM `json:"rows"`
	SelectedIndex  int         `json:"selected_index"`

	// Reorder session
	Reordering     bool `json:"reordering"`
	PendingFolders int  `json:"pending_folders"`
	PendingMoves   int  `json:"pending_moves"`
	RootEscape     bool `json:"root_escape"` // show the "drop to root" affordance
	Committing     bool `json:"committing"`
}

// Teams is a list of TeamVM with lookup helpers
type Teams []TeamVM

// ByID returns the team with the given id, or nil
func (t Teams) ByID(id string) *TeamVM {
	for i := range t {
		if t[i].ID == id {
			return &t[i]
		}
	}
	return nil
}

// AnalysesVM is the view model for the analyses list
type AnalysesVM struct {
	BaseViewModel
	Analyses      []AnalysisVM `json:"analyses"`
	SelectedIndex int          `json:"selected_index"`
	FilterTeam    string       `json:"filter_team"`
	FilterText    string       `json:"filter_text"`
}

// LogsVM is the view model for the logs view
type LogsVM struct {
	BaseViewModel
	Lines          []LogLineVM `json:"lines"`
	FilterAnalysis string      `json:"filter_analysis"`
	FilterLevel    string      `json:"filter_level"`
	AutoScroll     bool        `json:"auto_scroll"`
	MaxLines       int         `json:"max_lines"`
}

// ConfigVM is the view model for the config view
type ConfigVM struct {
	BaseViewModel
	ConfigPath string                 `json:"config_path"`
	ServerURL  string                 `json:"server_url"`
	Settings   map[string]interface{} `json:"settings"`
	IsEditing  bool                   `json:"is_editing"`
}
