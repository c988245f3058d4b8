package config

import (
	"os"
	"path/filepath"
)

// DefaultLoggerConfig returns default logger configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:      "info",
		FilePath:   "", // Will default to ~/.csd-runlab/client.log
		MaxSizeMB:  10,
		BufferSize: 10000,
	}
}

// DefaultReconnectConfig returns default stream reconnect tuning
func DefaultReconnectConfig() *ReconnectConfig {
	return &ReconnectConfig{
		InitialDelayMS: 500,
		MaxDelayMS:     30000,
	}
}

// DefaultServer returns default server connection settings
func DefaultServer() *Server {
	return &Server{
		URL:            "http://localhost:8090/runlab/api/latest",
		RequestTimeout: 15,
	}
}

// DefaultSettings returns default configuration settings
func DefaultSettings() *Settings {
	return &Settings{
		Logger:    DefaultLoggerConfig(),
		Reconnect: DefaultReconnectConfig(),

		Theme:          "dark",
		RefreshRate:    1000,
		ShowTimestamps: true,

		LogBufferLines:    1000,
		AutoExpandDelayMS: 400,
		MetricsInterval:   5,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  "1.0",
		Server:   DefaultServer(),
		Settings: DefaultSettings(),
	}
}

// GetUserConfigDir returns the user's config directory for csd-runlab
func GetUserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "csd-runlab"), nil
}

// GetDataDir returns the data directory for csd-runlab
func GetDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".local", "share", "csd-runlab"), nil
}

// DefaultTokenFile returns the default session token path
func DefaultTokenFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".csd-runlab-token"
	}
	return filepath.Join(homeDir, ".csd-runlab", "token")
}
