package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"csd-runlab/modules"
	"csd-runlab/modules/commands"
	"csd-runlab/modules/platform/config"
	"csd-runlab/modules/platform/logger"
)

func main() {
	args := os.Args[1:]
	configPath := ""
	verbose := false

	// Extract global flags
	var cmdArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--verbose" || arg == "-v":
			verbose = true
		case arg == "--version" || arg == "-V":
			printVersion()
			return
		case arg == "--help" || arg == "-h":
			printHelp()
			return
		default:
			cmdArgs = append(cmdArgs, arg)
		}
	}

	// Load configuration
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	if err := config.LoadGlobal(configPath); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		}
	}

	initLogger(verbose)

	// Initialize command registry and shared services
	commands.InitRegistry()
	if err := commands.InitContext(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Default to the interactive shell
	if len(cmdArgs) == 0 {
		cmdArgs = []string{"shell"}
	}

	cmdName := cmdArgs[0]
	cmdRemainingArgs := cmdArgs[1:]

	switch cmdName {
	case "version":
		printVersion()
		return
	case "help":
		if len(cmdRemainingArgs) > 0 {
			commands.PrintCommandHelp(cmdRemainingArgs[0])
		} else {
			printHelp()
		}
		return
	}

	cmd := commands.GetCommand(cmdName)
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmdName)
		fmt.Fprintf(os.Stderr, "Run 'csd-runlab help' for usage.\n")
		os.Exit(1)
	}

	if err := cmd.Handler(cmdRemainingArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogger sets up the global logger from config. Output goes to the
// log file only; stdout belongs to the commands and the TUI.
func initLogger(verbose bool) {
	cfg := config.GetGlobal()
	logCfg := config.DefaultLoggerConfig()
	if cfg.Settings != nil {
		logCfg = cfg.Settings.GetLoggerConfig()
	}

	level := logger.ParseLevel(logCfg.Level)
	if verbose {
		level = logger.DEBUG
	}

	var outputs []io.Writer
	if logCfg.FilePath != "" {
		if f, err := logger.CreateLogFile(logCfg.FilePath, logCfg.MaxSizeMB); err == nil {
			outputs = append(outputs, f)
		}
	}

	logger.SetGlobalLogger(logger.NewLogger(level, outputs, "runlab"))
}

func printVersion() {
	fmt.Printf("%s version %s\n", modules.AppName, modules.AppVersion)
	fmt.Printf("Build: %s\n", modules.BuildHash())
}

func printHelp() {
	fmt.Println("csd-runlab - Remote analysis dashboard")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  csd-runlab [flags] [command] [arguments]")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  -c, --config <path>    Path to config file")
	fmt.Println("  -v, --verbose          Verbose output")
	fmt.Println("  -V, --version          Print version")
	fmt.Println("  -h, --help             Print help")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println()

	commands.PrintCommands()

	fmt.Println()
	fmt.Println("Use 'csd-runlab help <command>' for more information about a command.")
}
