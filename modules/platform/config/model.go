package config

// Config represents the main configuration
type Config struct {
	Version  string    `yaml:"version"`
	Server   *Server   `yaml:"server"`
	Settings *Settings `yaml:"settings"`
}

// Server represents the connection settings for the runlab backend
type Server struct {
	// Base URL of the REST API (e.g., "https://runlab.example.com/api/v1")
	URL string `yaml:"url" json:"url"`

	// WebSocket endpoint for the event stream (empty = derived from URL)
	StreamURL string `yaml:"stream_url,omitempty" json:"stream_url,omitempty"`

	// Path to the session token file written by `csd-runlab login`
	TokenFile string `yaml:"token_file,omitempty" json:"token_file,omitempty"`

	// Request timeout in seconds for REST calls
	RequestTimeout int `yaml:"request_timeout" json:"request_timeout"`

	// Skip TLS certificate verification (self-hosted setups)
	InsecureTLS bool `yaml:"insecure_tls,omitempty" json:"insecure_tls,omitempty"`
}

// LoggerConfig represents logger configuration
type LoggerConfig struct {
	Level      string `yaml:"level" json:"level"`             // debug, info, warn, error
	FilePath   string `yaml:"file_path" json:"file_path"`     // Log file path (empty = no file)
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"` // Max log file size before rotation
	BufferSize int    `yaml:"buffer_size" json:"buffer_size"` // Log buffer size for TUI
}

// ReconnectConfig tunes the event stream retry behavior
type ReconnectConfig struct {
	InitialDelayMS int `yaml:"initial_delay_ms" json:"initial_delay_ms"`
	MaxDelayMS     int `yaml:"max_delay_ms" json:"max_delay_ms"`
}

// Settings represents global application settings
type Settings struct {
	// Logger configuration
	Logger *LoggerConfig `yaml:"logger,omitempty" json:"logger,omitempty"`

	// Event stream reconnect tuning
	Reconnect *ReconnectConfig `yaml:"reconnect,omitempty" json:"reconnect,omitempty"`

	// UI settings
	Theme          string `yaml:"theme" json:"theme"`             // dark, light, auto
	RefreshRate    int    `yaml:"refresh_rate" json:"refresh_rate"` // ms
	ShowTimestamps bool   `yaml:"show_timestamps" json:"show_timestamps"`

	// Lines of analysis log output kept per analysis
	LogBufferLines int `yaml:"log_buffer_lines" json:"log_buffer_lines"`

	// Hover interval before a collapsed folder auto-expands in reorder mode (ms)
	AutoExpandDelayMS int `yaml:"auto_expand_delay_ms" json:"auto_expand_delay_ms"`

	// Local system metrics sampling interval (seconds, 0 = disabled)
	MetricsInterval int `yaml:"metrics_interval" json:"metrics_interval"`
}

// GetLoggerConfig returns the logger config, applying defaults when absent
func (s *Settings) GetLoggerConfig() *LoggerConfig {
	if s.Logger != nil {
		return s.Logger
	}
	return DefaultLoggerConfig()
}

// Validate validates the configuration
func (c *Config) Validate() []string {
	var errors []string

	if c.Server == nil || c.Server.URL == "" {
		errors = append(errors, "server.url is required")
	}

	if c.Settings == nil {
		errors = append(errors, "settings is required")
		return errors
	}

	if c.Settings.LogBufferLines < 100 {
		errors = append(errors, "log_buffer_lines must be at least 100")
	}

	if c.Settings.RefreshRate < 100 {
		errors = append(errors, "refresh_rate must be at least 100ms")
	}

	if r := c.Settings.Reconnect; r != nil {
		if r.InitialDelayMS < 1 {
			errors = append(errors, "reconnect.initial_delay_ms must be positive")
		}
		if r.MaxDelayMS < r.InitialDelayMS {
			errors = append(errors, "reconnect.max_delay_ms must be >= initial_delay_ms")
		}
	}

	return errors
}

// Merge merges another config into this one (other takes precedence)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Version != "" {
		c.Version = other.Version
	}

	if other.Server != nil {
		c.Server = other.Server
	}

	if other.Settings != nil {
		c.Settings = other.Settings
	}
}
