package commands

import (
	"time"

	"csd-runlab/modules/platform/api"
	"csd-runlab/modules/platform/config"
	"csd-runlab/modules/platform/eventbus"
	"csd-runlab/modules/platform/stream"
)

// AppContext holds application-wide context
type AppContext struct {
	Config       *config.Config
	Session      *api.Session
	APIClient    *api.Client
	StreamClient *stream.Client
	Bus          *eventbus.Bus
}

var globalContext *AppContext

// InitContext initializes the application context
func InitContext() error {
	cfg := config.GetGlobal()

	tokenFile := config.DefaultTokenFile()
	timeout := 15 * time.Second
	insecure := false
	baseURL := ""
	streamURL := ""
	if cfg.Server != nil {
		baseURL = cfg.Server.URL
		streamURL = cfg.Server.StreamURL
		if cfg.Server.TokenFile != "" {
			tokenFile = cfg.Server.TokenFile
		}
		if cfg.Server.RequestTimeout > 0 {
			timeout = time.Duration(cfg.Server.RequestTimeout) * time.Second
		}
		insecure = cfg.Server.InsecureTLS
	}
	if streamURL == "" {
		streamURL = stream.StreamURL(baseURL)
	}

	session := api.NewSession(tokenFile)
	apiClient := api.NewClient(baseURL, session, timeout, insecure)

	reconnect := config.DefaultReconnectConfig()
	if cfg.Settings != nil && cfg.Settings.Reconnect != nil {
		reconnect = cfg.Settings.Reconnect
	}
	streamClient := stream.NewClient(
		streamURL,
		session.Token,
		time.Duration(reconnect.InitialDelayMS)*time.Millisecond,
		time.Duration(reconnect.MaxDelayMS)*time.Millisecond,
	)

	globalContext = &AppContext{
		Config:       cfg,
		Session:      session,
		APIClient:    apiClient,
		StreamClient: streamClient,
		Bus:          eventbus.Global(),
	}

	return nil
}

// GetContext returns the global application context
func GetContext() *AppContext {
	return globalContext
}

// registerSessionCommands registers login/logout/status commands
func registerSessionCommands() {
	RegisterCommand(&Command{
		Name:        "login",
		Category:    "Session",
		Description: "Authenticate against the runlab server",
		Usage:       "csd-runlab login <username>",
		Examples: []string{
			"csd-runlab login alice",
		},
		Handler: loginCommand,
		Order:   10,
	})

	RegisterCommand(&Command{
		Name:        "logout",
		Category:    "Session",
		Description: "Invalidate the stored session token",
		Usage:       "csd-runlab logout",
		Handler:     logoutCommand,
		Order:       11,
	})

	RegisterCommand(&Command{
		Name:        "status",
		Aliases:     []string{"st"},
		Category:    "Session",
		Description: "Show server and session status",
		Usage:       "csd-runlab status",
		Handler:     statusCommand,
		Order:       12,
	})
}

// registerTeamCommands registers team listing commands
func registerTeamCommands() {
	RegisterCommand(&Command{
		Name:        "teams",
		Aliases:     []string{"t"},
		Category:    "Teams",
		Description: "List teams you belong to",
		Usage:       "csd-runlab teams",
		Handler:     teamsCommand,
		Order:       20,
	})
}

// registerAnalysisCommands registers analysis lifecycle commands
func registerAnalysisCommands() {
	RegisterCommand(&Command{
		Name:        "list",
		Aliases:     []string{"ls"},
		Category:    "Analyses",
		Description: "List analyses",
		Usage:       "csd-runlab list [--team <team-id>]",
		Examples: []string{
			"csd-runlab list",
			"csd-runlab ls --team t-42",
		},
		Handler: listCommand,
		Order:   30,
	})

	RegisterCommand(&Command{
		Name:        "run",
		Category:    "Analyses",
		Description: "Start an analysis",
		Usage:       "csd-runlab run <analysis-id>",
		Handler:     runCommand,
		Order:       31,
	})

	RegisterCommand(&Command{
		Name:        "stop",
		Category:    "Analyses",
		Description: "Stop a running analysis",
		Usage:       "csd-runlab stop <analysis-id>",
		Handler:     stopCommand,
		Order:       32,
	})

	RegisterCommand(&Command{
		Name:        "upload",
		Aliases:     []string{"up"},
		Category:    "Analyses",
		Description: "Upload a script as a new analysis",
		Usage:       "csd-runlab upload <team-id> <path> [--name <name>]",
		Examples: []string{
			"csd-runlab upload t-42 ./ingest.py",
			"csd-runlab upload t-42 ./ingest.py --name 'Nightly ingest'",
		},
		Handler: uploadCommand,
		Order:   33,
	})

	RegisterCommand(&Command{
		Name:        "delete",
		Aliases:     []string{"rm"},
		Category:    "Analyses",
		Description: "Delete an analysis",
		Usage:       "csd-runlab delete <analysis-id>",
		Handler:     deleteCommand,
		Order:       34,
	})

	RegisterCommand(&Command{
		Name:        "logs",
		Category:    "Analyses",
		Description: "Show stored output for an analysis",
		Usage:       "csd-runlab logs <analysis-id> [--lines <n>] [--follow]",
		Examples: []string{
			"csd-runlab logs a-17",
			"csd-runlab logs a-17 --lines 200",
			"csd-runlab logs a-17 --follow",
		},
		Handler: logsCommand,
		Order:   35,
	})
}

// registerConfigCommands registers configuration commands
func registerConfigCommands() {
	RegisterCommand(&Command{
		Name:        "config",
		Category:    "Configuration",
		Description: "Manage configuration",
		Usage:       "csd-runlab config <show|path|init>",
		SubCommands: []SubCommand{
			{Name: "show", Description: "Show current configuration", Handler: configShowCommand},
			{Name: "path", Description: "Show config file path", Handler: configPathCommand},
			{Name: "init", Description: "Create a default config file", Handler: configInitCommand},
		},
		Handler: configCommand,
		Order:   40,
	})
}

// registerUICommands registers interface commands
func registerUICommands() {
	RegisterCommand(&Command{
		Name:        "ui",
		Aliases:     []string{"tui"},
		Category:    "Interface",
		Description: "Open the interactive dashboard",
		Usage:       "csd-runlab ui",
		Handler:     uiCommand,
		Order:       50,
	})

	RegisterCommand(&Command{
		Name:        "shell",
		Category:    "Interface",
		Description: "Start the interactive shell",
		Usage:       "csd-runlab shell",
		Handler:     shellCommand,
		Order:       51,
	})

	RegisterCommand(&Command{
		Name:        "version",
		Category:    "Interface",
		Description: "Show version information",
		Usage:       "csd-runlab version",
		Handler:     versionCommand,
		Order:       52,
	})
}
