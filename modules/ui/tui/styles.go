package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	GapHorizontal = 1 // Horizontal gap between panels/cards
	GapVertical   = 1 // Vertical gap between sections
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Orange
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorText      = lipgloss.Color("#F9FAFB") // Light
	ColorBg        = lipgloss.Color("#111827") // Dark
	ColorBgAlt     = lipgloss.Color("#1F2937") // Dark alt
	ColorBorder    = lipgloss.Color("#374151") // Gray border
)

// Base styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorBgAlt).
			Padding(0, 1)

	// Title
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// Subtitle
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Connection badge
	ConnOnlineStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ConnConnectingStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	ConnOfflineStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	// Status indicators
	StatusRunningStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)

	StatusStartingStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary)

	StatusStoppedStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	StatusCrashedStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	StatusDeletingStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	// Navigation
	NavItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	NavItemActiveStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Background(ColorPrimary).
				Foreground(ColorText).
				Bold(true)

	// Panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary).
			MarginBottom(1)

	// Table
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorSecondary).
				BorderBottom(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorBorder)

	TableRowStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TableRowSelectedStyle = lipgloss.NewStyle().
				Background(ColorBgAlt).
				Foreground(ColorText).
				Bold(true)

	// Tree / reorder
	TreeFolderStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	TreeItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TreePendingStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Italic(true)

	TreeDragStyle = lipgloss.NewStyle().
			Background(ColorPrimary).
			Foreground(ColorText).
			Bold(true)

	TreeDropHintStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true)

	RootZoneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Foreground(ColorMuted).
			Padding(0, 1)

	RootZoneActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(ColorPrimary).
				Foreground(ColorPrimary).
				Bold(true).
				Padding(0, 1)

	// Logs
	LogInfoStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	LogWarnStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	LogErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	LogDebugStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	LogTimestampStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	LogSourceStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	// Notifications
	NotifyInfoStyle = lipgloss.NewStyle().
			Background(ColorSecondary).
			Foreground(ColorText).
			Padding(0, 1)

	NotifySuccessStyle = lipgloss.NewStyle().
				Background(ColorSuccess).
				Foreground(ColorText).
				Padding(0, 1)

	NotifyWarningStyle = lipgloss.NewStyle().
				Background(ColorWarning).
				Foreground(ColorBg).
				Padding(0, 1)

	NotifyErrorStyle = lipgloss.NewStyle().
				Background(ColorError).
				Foreground(ColorText).
				Padding(0, 1)

	// Help
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Input
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	InputFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)

	InputPromptStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true)

	// Dialog
	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2).
			Background(ColorBgAlt)

	DialogTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary).
				MarginBottom(1)
)

// Icons (using Unicode symbols for cross-platform compatibility)
const (
	IconRunning   = "●"
	IconStarting  = "◐"
	IconStopped   = "○"
	IconCrashed   = "✗"
	IconDeleting  = "…"
	IconSuccess   = "✓"
	IconWarning   = "⚠"
	IconFolderCl  = "▸"
	IconFolderOp  = "▾"
	IconItem      = "·"
	IconPending   = "*"
	IconConnected = "◉"
	IconOffline   = "◌"
)

// StatusIcon returns the styled icon for an analysis status
func StatusIcon(status string) string {
	switch status {
	case "running":
		return StatusRunningStyle.Render(IconRunning)
	case "starting":
		return StatusStartingStyle.Render(IconStarting)
	case "crashed":
		return StatusCrashedStyle.Render(IconCrashed)
	case "deleting":
		return StatusDeletingStyle.Render(IconDeleting)
	default:
		return StatusStoppedStyle.Render(IconStopped)
	}
}
