package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"time"

	"csd-runlab/modules"
	"csd-runlab/modules/platform/config"
	"csd-runlab/modules/platform/gitinfo"
	"csd-runlab/modules/platform/stream"
	uicore "csd-runlab/modules/ui/core"
	"csd-runlab/modules/ui/tui"

	"golang.org/x/term"
)

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// ============================================
// Session commands
// ============================================

func loginCommand(args []string) error {
	appCtx := GetContext()
	if len(args) < 1 {
		return fmt.Errorf("usage: login <username>")
	}
	username := args[0]

	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := appCtx.APIClient.Login(ctx, username, string(pwBytes)); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s. Token stored in %s\n", username, tokenFilePath(appCtx.Config))
	return nil
}

func logoutCommand(args []string) error {
	appCtx := GetContext()

	ctx, cancel := commandContext()
	defer cancel()

	if err := appCtx.APIClient.Logout(ctx); err != nil {
		// Token is cleared locally either way
		fmt.Printf("Warning: server logout failed: %v\n", err)
	}
	fmt.Println("Logged out.")
	return nil
}

func statusCommand(args []string) error {
	appCtx := GetContext()

	if appCtx.Session.Valid() {
		fmt.Printf("Session:  valid until %s\n", appCtx.Session.ExpiresAt().Format(time.RFC1123))
	} else {
		fmt.Println("Session:  not logged in")
	}

	ctx, cancel := commandContext()
	defer cancel()

	info, err := appCtx.APIClient.ServerInfo(ctx)
	if err != nil {
		fmt.Printf("Server:   unreachable (%v)\n", err)
		return nil
	}

	fmt.Printf("Server:   %s, up %s\n", info.Version, (time.Duration(info.UptimeSeconds) * time.Second).String())
	fmt.Printf("Load:     cpu %.1f%%  mem %.1f%%  running analyses %d\n",
		info.CPUPercent, info.MemPercent, info.RunningCount)
	return nil
}

// ============================================
// Team commands
// ============================================

func teamsCommand(args []string) error {
	appCtx := GetContext()

	ctx, cancel := commandContext()
	defer cancel()

	teams, err := appCtx.APIClient.ListTeams(ctx)
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		fmt.Println("No teams.")
		return nil
	}

	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })

	fmt.Printf("%-12s %-28s %-8s %s\n", "ID", "NAME", "ROLE", "ANALYSES")
	for _, t := range teams {
		fmt.Printf("%-12s %-28s %-8s %d\n", t.ID, t.Name, t.Role, t.AnalysisCount)
	}
	return nil
}

// ============================================
// Analysis commands
// ============================================

func listCommand(args []string) error {
	appCtx := GetContext()

	teamID := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "--team" && i+1 < len(args) {
			teamID = args[i+1]
			i++
		}
	}

	ctx, cancel := commandContext()
	defer cancel()

	list, err := appCtx.APIClient.ListAnalyses(ctx, teamID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No analyses.")
		return nil
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	fmt.Printf("%-12s %-28s %-12s %-10s %s\n", "ID", "NAME", "TEAM", "STATUS", "FILE")
	for _, a := range list {
		fmt.Printf("%-12s %-28s %-12s %-10s %s\n", a.ID, a.Name, a.TeamID, a.Status, a.FileName)
	}
	return nil
}

func runCommand(args []string) error {
	appCtx := GetContext()
	if len(args) < 1 {
		return fmt.Errorf("usage: run <analysis-id>")
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := appCtx.APIClient.RunAnalysis(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Start requested for %s.\n", args[0])
	return nil
}

func stopCommand(args []string) error {
	appCtx := GetContext()
	if len(args) < 1 {
		return fmt.Errorf("usage: stop <analysis-id>")
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := appCtx.APIClient.StopAnalysis(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Stop requested for %s.\n", args[0])
	return nil
}

func uploadCommand(args []string) error {
	appCtx := GetContext()
	if len(args) < 2 {
		return fmt.Errorf("usage: upload <team-id> <path> [--name <name>]")
	}
	teamID := args[0]
	path := args[1]
	name := filepath.Base(path)
	for i := 2; i < len(args); i++ {
		if args[i] == "--name" && i+1 < len(args) {
			name = args[i+1]
			i++
		}
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("script not found: %w", err)
	}

	prov, err := gitinfo.Detect(path)
	if err != nil {
		fmt.Printf("Warning: could not read git info: %v\n", err)
	}
	if prov != nil {
		state := "clean"
		if prov.Dirty {
			state = "dirty"
		}
		fmt.Printf("Provenance: %s@%.8s (%s)\n", prov.Branch, prov.Commit, state)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := appCtx.APIClient.UploadAnalysis(ctx, teamID, name, path, prov); err != nil {
		return err
	}
	fmt.Printf("Uploaded %s to team %s.\n", name, teamID)
	return nil
}

func deleteCommand(args []string) error {
	appCtx := GetContext()
	if len(args) < 1 {
		return fmt.Errorf("usage: delete <analysis-id>")
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := appCtx.APIClient.DeleteAnalysis(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Delete requested for %s.\n", args[0])
	return nil
}

func logsCommand(args []string) error {
	appCtx := GetContext()
	if len(args) < 1 {
		return fmt.Errorf("usage: logs <analysis-id> [--lines <n>] [--follow]")
	}
	analysisID := args[0]
	lines := 100
	follow := false
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--lines", "-n":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil && n > 0 {
					lines = n
				}
				i++
			}
		case "--follow", "-f":
			follow = true
		}
	}

	ctx, cancel := commandContext()
	defer cancel()

	entries, err := appCtx.APIClient.AnalysisLogs(ctx, analysisID, lines)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s [%s] %s\n", e.Timestamp.Format("15:04:05"), e.Level, e.Message)
	}

	if follow {
		return followLogs(appCtx, analysisID)
	}
	return nil
}

// followLogs attaches to the event stream and prints log events as they
// arrive, until interrupted.
func followLogs(appCtx *AppContext, analysisID string) error {
	type logPayload struct {
		AnalysisID string `json:"analysisId"`
		Level      string `json:"level"`
		Message    string `json:"message"`
		Timestamp  time.Time `json:"timestamp"`
	}

	appCtx.StreamClient.SetEventHandler(func(ev *stream.Event) {
		if ev.Type != stream.TypeLog {
			return
		}
		var payload logPayload
		if err := ev.Decode(&payload); err != nil {
			return
		}
		if payload.AnalysisID != analysisID {
			return
		}
		fmt.Printf("%s [%s] %s\n", payload.Timestamp.Format("15:04:05"), payload.Level, payload.Message)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	appCtx.StreamClient.Connect(ctx)
	defer appCtx.StreamClient.Close()

	fmt.Println("Following output, Ctrl+C to stop...")
	waitForInterrupt()
	return nil
}

// ============================================
// Configuration commands
// ============================================

func configCommand(args []string) error {
	if len(args) == 0 {
		return configShowCommand(nil)
	}

	cmd := GetCommand("config")
	if sub := findSubCommand(cmd, args[0]); sub != nil {
		return sub.Handler(args[1:])
	}
	return fmt.Errorf("unknown config sub-command: %s", args[0])
}

func configShowCommand(args []string) error {
	cfg := config.GetGlobal()

	fmt.Printf("Config file: %s\n\n", config.FindConfigFile())
	if cfg.Server != nil {
		fmt.Printf("server.url          %s\n", cfg.Server.URL)
		fmt.Printf("server.stream_url   %s\n", cfg.Server.StreamURL)
		fmt.Printf("server.token_file   %s\n", tokenFilePath(cfg))
	}
	if cfg.Settings != nil {
		fmt.Printf("theme               %s\n", cfg.Settings.Theme)
		fmt.Printf("refresh_rate        %d\n", cfg.Settings.RefreshRate)
		fmt.Printf("log_buffer_lines    %d\n", cfg.Settings.LogBufferLines)
		fmt.Printf("metrics_interval    %d\n", cfg.Settings.MetricsInterval)
	}
	return nil
}

func configPathCommand(args []string) error {
	path := config.FindConfigFile()
	if path == "" {
		fmt.Println("No config file found. Run 'config init' to create one.")
		return nil
	}
	fmt.Println(path)
	return nil
}

func configInitCommand(args []string) error {
	dir, err := config.GetUserConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, config.DefaultConfigFileName)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}

	loader := config.NewLoader(path)
	if err := loader.Save(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", path)
	return nil
}

// ============================================
// Interface commands
// ============================================

func uiCommand(args []string) error {
	appCtx := GetContext()

	if !appCtx.Session.Valid() {
		return fmt.Errorf("not logged in; run 'login <username>' first")
	}

	presenter := uicore.NewPresenter(appCtx.Config, appCtx.APIClient, appCtx.StreamClient, appCtx.Bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := presenter.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize presenter: %w", err)
	}
	defer presenter.Shutdown()

	view := tui.NewTUIView()
	if err := view.Initialize(presenter); err != nil {
		return err
	}

	return view.Run(ctx)
}

func shellCommand(args []string) error {
	return StartShell()
}

func versionCommand(args []string) error {
	fmt.Printf("%s %s (%s)\n", modules.AppName, modules.AppVersion, modules.BuildHash())
	return nil
}

// ============================================
// Helpers
// ============================================

func tokenFilePath(cfg *config.Config) string {
	if cfg != nil && cfg.Server != nil && cfg.Server.TokenFile != "" {
		return cfg.Server.TokenFile
	}
	return config.DefaultTokenFile()
}

func waitForInterrupt() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
