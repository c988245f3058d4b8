package tui

import (
	"fmt"
	"sort"
	"strings"

	"csd-runlab/modules"
	"csd-runlab/modules/core/reorder"
	"csd-runlab/modules/platform/stream"
	"csd-runlab/modules/ui/core"

	"github.com/charmbracelet/lipgloss"
)

// Fixed layout geometry. The mouse hit tester depends on these matching the
// actual render, so all row content is drawn one line per row with no
// borders inside the main panel.
const (
	sidebarWidth = 16
	headerHeight = 3
	contentTop   = headerHeight + 1 // header + panel title line
	contentLeft  = sidebarWidth + 1
)

// ============================================
// Chrome
// ============================================

func (m Model) renderHeader() string {
	title := HeaderStyle.Render(modules.AppName)

	conn := m.state.GetConnection()
	var badge string
	switch conn.State {
	case stream.StateConnected:
		badge = ConnOnlineStyle.Render(IconConnected + " connected")
	case stream.StateConnecting:
		badge = ConnConnectingStyle.Render(m.spinner.View() + " connecting")
	default:
		badge = ConnOfflineStyle.Render(IconOffline + " offline")
	}

	user := ""
	if m.state.Dashboard.UserName != "" {
		user = SubtitleStyle.Render(m.state.Dashboard.UserName + " (" + m.state.Dashboard.UserRole + ")")
	}

	left := title + " " + badge
	right := user
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right

	return lipgloss.NewStyle().Width(m.width).Render(line) + "\n" +
		strings.Repeat("─", max(m.width, 1)) + "\n"
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	for i, vt := range sidebarViews {
		label := fmt.Sprintf("%d %s", i+1, sidebarLabels[vt])
		if vt == m.currentView {
			b.WriteString(NavItemActiveStyle.Render(label))
		} else {
			b.WriteString(NavItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(m.height - headerHeight - 3).
		Render(b.String())
}

func (m Model) renderMainContent() string {
	var content string
	switch m.currentView {
	case core.VMDashboard:
		content = m.renderDashboard()
	case core.VMTeams:
		content = m.renderTeams()
	case core.VMAnalyses:
		content = m.renderAnalyses()
	case core.VMLogs:
		content = m.renderLogs()
	case core.VMConfig:
		content = m.renderConfig()
	default:
		content = m.renderDashboard()
	}

	return lipgloss.NewStyle().
		Width(m.width - sidebarWidth - 1).
		Height(m.height - headerHeight - 3).
		Render(content)
}

func (m Model) renderFooter() string {
	if m.inputActive {
		return InputFocusedStyle.Render(m.input.View()) + "\n"
	}

	var parts []string
	if n := m.currentNotification(); n != "" {
		parts = append(parts, n)
	}
	if m.showHelp {
		m.help.ShowAll = true
	}
	parts = append(parts, m.help.View(m.keys))

	return strings.Join(parts, "  ")
}

func (m Model) currentNotification() string {
	if len(m.notifications) == 0 {
		return ""
	}
	n := m.notifications[len(m.notifications)-1]
	text := n.Title
	if n.Message != "" {
		text += ": " + n.Message
	}
	switch n.Type {
	case core.NotifySuccess:
		return NotifySuccessStyle.Render(text)
	case core.NotifyWarning:
		return NotifyWarningStyle.Render(text)
	case core.NotifyError:
		return NotifyErrorStyle.Render(text)
	default:
		return NotifyInfoStyle.Render(text)
	}
}

func (m Model) overlayDialog(screen string) string {
	dialog := DialogStyle.Render(
		DialogTitleStyle.Render("Confirm") + "\n" +
			m.dialogMessage + "\n\n" +
			HelpKeyStyle.Render("y") + HelpDescStyle.Render(" yes   ") +
			HelpKeyStyle.Render("n") + HelpDescStyle.Render(" no"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog,
		lipgloss.WithWhitespaceChars(" "))
}

// ============================================
// Dashboard
// ============================================

func (m Model) renderDashboard() string {
	vm := m.state.Dashboard
	var b strings.Builder

	b.WriteString(PanelTitleStyle.Render("Overview"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Teams %d   Analyses %d   Running %s\n\n",
		vm.TeamCount, vm.AnalysisCount, StatusRunningStyle.Render(fmt.Sprintf("%d", vm.RunningCount))))

	b.WriteString(PanelTitleStyle.Render("Backend"))
	b.WriteString("\n")
	if vm.Backend.HasData {
		b.WriteString(fmt.Sprintf("  cpu %5.1f%%   mem %5.1f%%   disk %5.1f%%   up %s   %s\n\n",
			vm.Backend.CPUPercent, vm.Backend.MemPercent, vm.Backend.DiskPercent,
			vm.Backend.Uptime, SubtitleStyle.Render(vm.Backend.ServerVersion)))
	} else {
		b.WriteString(SubtitleStyle.Render("  waiting for server metrics...") + "\n\n")
	}

	b.WriteString(PanelTitleStyle.Render("This machine"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  cpu %5.1f%%   mem %5.1f%% (%.1f/%.1f GB)   load %.2f / %d cpu\n\n",
		vm.Local.CPUPercent, vm.Local.MemPercent, vm.Local.MemUsedGB, vm.Local.MemTotalGB,
		vm.Local.LoadAvg1, vm.Local.NumCPU))

	if len(vm.Running) > 0 {
		b.WriteString(PanelTitleStyle.Render("Running analyses"))
		b.WriteString("\n")
		for _, a := range vm.Running {
			b.WriteString(fmt.Sprintf("  %s %-30s %-16s %s\n",
				StatusIcon(string(a.Status)), truncate(a.Name, 30), truncate(a.TeamName, 16), a.Uptime))
		}
		b.WriteString("\n")
	}

	if len(vm.RecentLogs) > 0 {
		b.WriteString(PanelTitleStyle.Render("Recent output"))
		b.WriteString("\n")
		start := len(vm.RecentLogs) - 8
		if start < 0 {
			start = 0
		}
		for _, l := range vm.RecentLogs[start:] {
			b.WriteString("  " + m.renderLogLine(l) + "\n")
		}
	}

	return b.String()
}

// ============================================
// Teams tree
// ============================================

func (m Model) renderTeams() string {
	vm := m.state.Teams
	var b strings.Builder

	// Team tabs
	var tabs []string
	for _, t := range vm.Teams {
		label := fmt.Sprintf("%s (%d)", t.Name, t.AnalysisCount)
		if t.ID == vm.SelectedTeamID {
			tabs = append(tabs, NavItemActiveStyle.Render(label))
		} else {
			tabs = append(tabs, NavItemStyle.Render(label))
		}
	}
	title := strings.Join(tabs, " ")
	if vm.Reordering {
		title += "  " + TreeDropHintStyle.Render(fmt.Sprintf("REORGANIZING  %d pending", vm.PendingFolders+vm.PendingMoves))
	} else if vm.Committing {
		title += "  " + StatusStartingStyle.Render(m.spinner.View()+" saving...")
	}
	b.WriteString(title)
	b.WriteString("\n")

	rows := vm.Rows
	end := len(rows)
	if m.visibleRows > 0 && m.scrollOffset+m.visibleRows < end {
		end = m.scrollOffset + m.visibleRows
	}
	start := m.scrollOffset
	if start > len(rows) {
		start = len(rows)
	}

	for i := start; i < end; i++ {
		b.WriteString(m.renderTreeRow(rows[i], i) + "\n")
	}
	if len(rows) == 0 {
		b.WriteString(SubtitleStyle.Render("  (empty team)") + "\n")
	}

	if vm.Reordering {
		b.WriteString("\n")
		zone := "[ drop here to move to top level ]"
		if m.hoverHint != nil && m.hoverHint.Kind == reorder.TargetRoot {
			b.WriteString(TreeDropHintStyle.Render(zone))
		} else if vm.RootEscape {
			// With a single top-level folder every slot is inside it;
			// this zone is the only way back out
			b.WriteString(TreeDropHintStyle.Render(zone))
		} else {
			b.WriteString(SubtitleStyle.Render(zone))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderTreeRow(row core.TreeRowVM, index int) string {
	indent := strings.Repeat("  ", row.Depth)

	var icon, name string
	if row.IsFolder {
		if row.Expanded {
			icon = IconFolderOp
		} else {
			icon = IconFolderCl
		}
		name = TreeFolderStyle.Render(fmt.Sprintf("%s (%d)", row.Name, row.ChildCount))
	} else {
		icon = StatusIcon(string(row.Status))
		name = TreeItemStyle.Render(row.Name)
	}

	marker := " "
	if row.Pending {
		marker = TreePendingStyle.Render(IconPending)
	}

	line := fmt.Sprintf("%s%s %s %s", indent, marker, icon, name)

	if row.NodeID == m.dragNodeID {
		return TreeDragStyle.Render("> " + line)
	}
	if m.hoverHint != nil && m.hoverHint.NodeID == row.NodeID {
		if m.hoverHint.Kind == reorder.TargetFolder {
			return TreeDropHintStyle.Render("▶ " + line)
		}
		return TreeDropHintStyle.Render("→ " + line)
	}
	if index == m.mainIndex {
		return TableRowSelectedStyle.Render("  " + line)
	}
	return "  " + line
}

// computeRowRects rebuilds the screen rects for the visible tree rows and
// the root drop-zone. Must mirror renderTeams line for line.
func (m *Model) computeRowRects() {
	vm := m.state.Teams
	m.rowRects = nil
	m.rootZone = nil

	rows := vm.Rows
	end := len(rows)
	if m.visibleRows > 0 && m.scrollOffset+m.visibleRows < end {
		end = m.scrollOffset + m.visibleRows
	}
	start := m.scrollOffset
	if start > len(rows) {
		start = len(rows)
	}

	width := m.width - sidebarWidth - 2
	y := contentTop
	for i := start; i < end; i++ {
		m.rowRects = append(m.rowRects, reorder.Row{
			NodeID:   rows[i].NodeID,
			IsFolder: rows[i].IsFolder,
			Bounds:   reorder.Rect{X: contentLeft, Y: y, Width: width, Height: 1},
		})
		y++
	}

	if vm.Reordering {
		m.rootZone = &reorder.Rect{X: contentLeft, Y: y + 1, Width: width, Height: 1}
	}
}

// ============================================
// Analyses
// ============================================

func (m Model) renderAnalyses() string {
	vm := m.state.Analyses
	var b strings.Builder

	header := fmt.Sprintf("  %-2s %-28s %-16s %-10s %-10s %s", "", "NAME", "TEAM", "STATUS", "UPTIME", "FILE")
	b.WriteString(TableHeaderStyle.Render(header))
	b.WriteString("\n")

	if vm.FilterText != "" {
		b.WriteString(SubtitleStyle.Render("  filter: "+vm.FilterText) + "\n")
	}

	for i, a := range vm.Analyses {
		line := fmt.Sprintf("%s %-28s %-16s %-10s %-10s %s",
			StatusIcon(string(a.Status)), truncate(a.Name, 28), truncate(a.TeamName, 16),
			a.Status, a.Uptime, truncate(a.FileName, 24))
		if i == m.mainIndex {
			b.WriteString(TableRowSelectedStyle.Render("  " + line))
		} else {
			b.WriteString(TableRowStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if len(vm.Analyses) == 0 {
		b.WriteString(SubtitleStyle.Render("  no analyses visible") + "\n")
	}

	return b.String()
}

// ============================================
// Logs
// ============================================

func (m Model) renderLogs() string {
	vm := m.state.Logs
	var b strings.Builder

	title := "Output"
	if vm.FilterAnalysis != "" {
		title += "  " + SubtitleStyle.Render("analysis: "+vm.FilterAnalysis)
	}
	if vm.FilterLevel != "" {
		title += "  " + SubtitleStyle.Render("level: "+vm.FilterLevel)
	}
	if !vm.AutoScroll {
		title += "  " + StatusDeletingStyle.Render("PAUSED")
	}
	b.WriteString(PanelTitleStyle.Render(title))
	b.WriteString("\n")

	if len(vm.Lines) == 0 {
		b.WriteString(SubtitleStyle.Render("  no output yet") + "\n")
		return b.String()
	}
	b.WriteString(m.viewport.View())

	return b.String()
}

func (m Model) renderLogLine(l core.LogLineVM) string {
	var msgStyle lipgloss.Style
	switch l.Level {
	case "error":
		msgStyle = LogErrorStyle
	case "warn":
		msgStyle = LogWarnStyle
	case "debug":
		msgStyle = LogDebugStyle
	default:
		msgStyle = LogInfoStyle
	}

	return LogTimestampStyle.Render(l.TimeStr) + " " +
		LogSourceStyle.Render(truncate(l.AnalysisName, 20)) + " " +
		msgStyle.Render(l.Message)
}

// ============================================
// Config
// ============================================

func (m Model) renderConfig() string {
	vm := m.state.Config
	var b strings.Builder

	b.WriteString(PanelTitleStyle.Render("Configuration"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  config file  %s\n", vm.ConfigPath))
	b.WriteString(fmt.Sprintf("  server       %s\n\n", vm.ServerURL))

	keys := make([]string, 0, len(vm.Settings))
	for k := range vm.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("  %-22s %v\n", k, vm.Settings[k]))
	}

	return b.String()
}

// ============================================
// Helpers
// ============================================

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
