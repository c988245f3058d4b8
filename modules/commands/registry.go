package commands

import (
	"fmt"
	"sort"
	"strings"
)

// CommandHandler is the function signature for command handlers
type CommandHandler func(args []string) error

// SubCommand represents a sub-command
type SubCommand struct {
	Name        string
	Description string
	Handler     CommandHandler
}

// Command represents a CLI command
type Command struct {
	Name        string
	Aliases     []string
	Category    string
	Description string
	Usage       string
	Examples    []string
	Handler     CommandHandler
	SubCommands []SubCommand
	Order       int
}

// Registry holds all registered commands. Category display order follows
// first registration, not a hardcoded list.
type Registry struct {
	commands   map[string]*Command
	aliases    map[string]string
	categories []string
}

var globalRegistry *Registry

// InitRegistry initializes the global command registry
func InitRegistry() {
	globalRegistry = &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}

	registerSessionCommands()
	registerTeamCommands()
	registerAnalysisCommands()
	registerConfigCommands()
	registerUICommands()
}

func (r *Registry) register(cmd *Command) {
	if _, seen := r.commands[cmd.Name]; !seen {
		known := false
		for _, c := range r.categories {
			if c == cmd.Category {
				known = true
				break
			}
		}
		if !known && cmd.Category != "" {
			r.categories = append(r.categories, cmd.Category)
		}
	}
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd.Name
	}
}

func (r *Registry) lookup(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if canonical, ok := r.aliases[name]; ok {
		return r.commands[canonical]
	}
	return nil
}

func (r *Registry) all() []*Command {
	commands := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		commands = append(commands, cmd)
	}
	sort.Slice(commands, func(i, j int) bool {
		if commands[i].Order != commands[j].Order {
			return commands[i].Order < commands[j].Order
		}
		return commands[i].Name < commands[j].Name
	})
	return commands
}

// RegisterCommand registers a command
func RegisterCommand(cmd *Command) {
	if globalRegistry == nil {
		InitRegistry()
	}
	globalRegistry.register(cmd)
}

// GetCommand returns a command by name or alias
func GetCommand(name string) *Command {
	if globalRegistry == nil {
		return nil
	}
	return globalRegistry.lookup(name)
}

// GetAllCommands returns all registered commands, sorted for display
func GetAllCommands() []*Command {
	if globalRegistry == nil {
		return nil
	}
	return globalRegistry.all()
}

// GetCommandsByCategory returns commands grouped by category
func GetCommandsByCategory() map[string][]*Command {
	categories := make(map[string][]*Command)
	for _, cmd := range GetAllCommands() {
		categories[cmd.Category] = append(categories[cmd.Category], cmd)
	}
	return categories
}

// PrintCommands prints all commands grouped by category
func PrintCommands() {
	if globalRegistry == nil {
		return
	}
	grouped := GetCommandsByCategory()

	for _, category := range globalRegistry.categories {
		cmds := grouped[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Printf("  %s:\n", category)
		for _, cmd := range cmds {
			label := cmd.Name
			if len(cmd.Aliases) > 0 {
				label += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			fmt.Printf("    %-20s %s\n", label, cmd.Description)
		}
		fmt.Println()
	}
}

// PrintCommandHelp prints help for a specific command
func PrintCommandHelp(name string) {
	cmd := GetCommand(name)
	if cmd == nil {
		fmt.Printf("Unknown command: %s\n", name)
		return
	}

	fmt.Printf("%s - %s\n", cmd.Name, cmd.Description)
	if len(cmd.Aliases) > 0 {
		fmt.Printf("Aliases: %s\n", strings.Join(cmd.Aliases, ", "))
	}

	if cmd.Usage != "" {
		fmt.Printf("\nUsage:\n  %s\n", cmd.Usage)
	}

	if len(cmd.SubCommands) > 0 {
		fmt.Println("\nSub-commands:")
		for _, sub := range cmd.SubCommands {
			fmt.Printf("  %-15s %s\n", sub.Name, sub.Description)
		}
	}

	if len(cmd.Examples) > 0 {
		fmt.Println("\nExamples:")
		for _, example := range cmd.Examples {
			fmt.Printf("  %s\n", example)
		}
	}
}

// GetCommandNames returns all command names and aliases (for completion)
func GetCommandNames() []string {
	if globalRegistry == nil {
		return nil
	}

	names := make([]string, 0, len(globalRegistry.commands)+len(globalRegistry.aliases))
	for name := range globalRegistry.commands {
		names = append(names, name)
	}
	for alias := range globalRegistry.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

func findSubCommand(cmd *Command, name string) *SubCommand {
	for i := range cmd.SubCommands {
		if cmd.SubCommands[i].Name == name {
			return &cmd.SubCommands[i]
		}
	}
	return nil
}
