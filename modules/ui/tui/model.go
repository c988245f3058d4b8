package tui

import (
	"strings"
	"time"

	"csd-runlab/modules/core/reorder"
	"csd-runlab/modules/ui/core"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// sidebar entries, in display order
var sidebarViews = []core.ViewModelType{
	core.VMDashboard,
	core.VMTeams,
	core.VMAnalyses,
	core.VMLogs,
	core.VMConfig,
}

var sidebarLabels = map[core.ViewModelType]string{
	core.VMDashboard: "Dashboard",
	core.VMTeams:     "Teams",
	core.VMAnalyses:  "Analyses",
	core.VMLogs:      "Logs",
	core.VMConfig:    "Config",
}

// inputAction identifies what a text prompt is collecting
type inputAction string

const (
	inputNone      inputAction = ""
	inputNewFolder inputAction = "new_folder"
	inputFilter    inputAction = "filter"
	inputUpload    inputAction = "upload"
)

// Model is the main Bubble Tea model for the TUI
type Model struct {
	// Core
	presenter core.Presenter
	state     *core.AppState
	keys      KeyMap

	// UI state
	width       int
	height      int
	ready       bool
	currentView core.ViewModelType

	// List selection and scrolling
	mainIndex    int
	scrollOffset int
	visibleRows  int

	// Reorder drag state. rowRects is rebuilt on every render of the
	// teams view so mouse positions can be resolved to tree rows.
	dragNodeID string
	hoverHint  *reorder.DropTarget
	rowRects   []reorder.Row
	rootZone   *reorder.Rect
	expander   *reorder.HoverExpander

	// Text prompt state
	inputActive bool
	input       textinput.Model
	inputAction inputAction

	// Confirmation dialog state
	showDialog    bool
	dialogMessage string
	dialogEvent   *core.Event

	// View toggles
	showHelp bool

	// Components
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model

	// Notifications
	notifications []*core.Notification

	// Errors
	lastError     string
	lastErrorTime time.Time
}

// NewModel creates a new TUI model
func NewModel(presenter core.Presenter) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	h := help.New()
	h.ShowAll = false
	h.Styles.ShortKey = HelpKeyStyle
	h.Styles.ShortDesc = HelpDescStyle
	h.Styles.ShortSeparator = HelpDescStyle

	ti := textinput.New()
	ti.CharLimit = 128
	ti.PromptStyle = InputPromptStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	state := core.NewAppState()
	if presenter != nil {
		for _, vt := range sidebarViews {
			if vm, err := presenter.GetViewModel(vt); err == nil && vm != nil {
				state.UpdateViewModel(vm)
			}
		}
	}

	return &Model{
		presenter:   presenter,
		state:       state,
		keys:        DefaultKeyMap(),
		currentView: core.VMDashboard,
		help:        h,
		spinner:     s,
		input:       ti,
		expander:    reorder.NewHoverExpander(0),
	}
}

// ============================================
// Messages
// ============================================

type stateUpdateMsg struct {
	update core.StateUpdate
}

type notificationMsg struct {
	notification *core.Notification
}

type notifyExpireMsg struct{}

type refreshMsg struct{}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func notifyExpireCmd(after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return notifyExpireMsg{}
	})
}

// ============================================
// Bubble Tea plumbing
// ============================================

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.refreshData,
		tickCmd(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.visibleRows = m.height - 9

		m.viewport = viewport.New(m.width-sidebarWidth-4, m.height-headerHeight-3)
		m.viewport.YPosition = headerHeight
		m.syncLogViewport(m.state.Logs)

	case tea.KeyMsg:
		if m.inputActive {
			cmd := m.handleInputKey(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		} else if m.showDialog {
			cmd := m.handleDialogKey(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		} else if m.showHelp {
			m.showHelp = false
		} else {
			cmd := m.handleKeyPress(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}

	case tea.MouseMsg:
		cmd := m.handleMouse(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case stateUpdateMsg:
		m.handleStateUpdate(msg.update)

	case notificationMsg:
		m.notifications = append(m.notifications, msg.notification)
		if msg.notification.Duration > 0 {
			cmds = append(cmds, notifyExpireCmd(time.Duration(msg.notification.Duration)*time.Second))
		}

	case notifyExpireMsg:
		if len(m.notifications) > 0 {
			m.notifications = m.notifications[1:]
		}

	case refreshMsg:
		cmds = append(cmds, m.refreshData)

	case tickMsg:
		// While a drag hovers a collapsed folder the expander can fire
		// between mouse events
		if m.dragNodeID != "" {
			if id := m.expander.Observe(m.hoveredFolder(), time.Time(msg)); id != "" {
				cmds = append(cmds, m.sendEvent(core.NewEvent(core.EventToggleNode).WithNode(id).WithValue(true)))
			}
		}
		cmds = append(cmds, tickCmd())
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMainContent()
	footer := m.renderFooter()

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	screen := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	if m.showDialog {
		return m.overlayDialog(screen)
	}
	return screen
}

// ============================================
// Keyboard handling
// ============================================

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	teamsVM := m.state.Teams

	// Escape first: it backs out of reorder mode before anything else
	if key.Matches(msg, m.keys.Escape) {
		if teamsVM.Reordering {
			if m.dragNodeID != "" {
				m.dragNodeID = ""
				m.hoverHint = nil
				return nil
			}
			return m.sendEvent(core.NewEvent(core.EventReorderCancel))
		}
		m.currentView = core.VMDashboard
		m.state.SetCurrentView(m.currentView)
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return nil

	case key.Matches(msg, m.keys.Refresh):
		return m.refreshData

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-m.visibleRows)
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.visibleRows)
		return nil

	case key.Matches(msg, m.keys.Home):
		m.mainIndex = 0
		m.ensureVisible()
		return nil

	case key.Matches(msg, m.keys.End):
		m.mainIndex = m.maxItems() - 1
		m.ensureVisible()
		return nil

	case key.Matches(msg, m.keys.Tab):
		return m.cycleTeam(1)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.cycleTeam(-1)
	}

	// Number keys jump between sidebar views
	if len(msg.String()) == 1 && msg.String() >= "1" && msg.String() <= "5" {
		idx := int(msg.String()[0] - '1')
		if idx < len(sidebarViews) && !teamsVM.Reordering {
			m.currentView = sidebarViews[idx]
			m.state.SetCurrentView(m.currentView)
			return m.sendEvent(core.NavigateEvent(m.currentView))
		}
	}

	switch m.currentView {
	case core.VMTeams:
		return m.handleTeamsKey(msg)
	case core.VMAnalyses:
		return m.handleAnalysesKey(msg)
	case core.VMLogs:
		return m.handleLogsKey(msg)
	}
	return nil
}

func (m *Model) handleTeamsKey(msg tea.KeyMsg) tea.Cmd {
	vm := m.state.Teams
	row := m.selectedRow()

	if vm.Reordering {
		switch {
		case key.Matches(msg, m.keys.Space):
			return m.grabOrDrop()

		case key.Matches(msg, m.keys.NewFolder):
			m.startInput(inputNewFolder, "New folder name")
			return nil

		case key.Matches(msg, m.keys.Commit):
			m.dragNodeID = ""
			m.hoverHint = nil
			return m.sendEvent(core.NewEvent(core.EventReorderCommit))

		case key.Matches(msg, m.keys.ToRoot):
			if m.dragNodeID != "" {
				ev := core.DropEvent(m.dragNodeID, reorder.DropTarget{Kind: reorder.TargetRoot})
				m.dragNodeID = ""
				m.hoverHint = nil
				return m.sendEvent(ev)
			}
			return nil

		case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
			if row != nil && row.IsFolder {
				return m.sendEvent(core.NewEvent(core.EventToggleNode).WithNode(row.NodeID))
			}
			return nil
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Reorder):
		if sel := vm.Teams.ByID(vm.SelectedTeamID); sel != nil && !sel.CanReorder {
			return nil
		}
		return m.sendEvent(core.NewEvent(core.EventReorderBegin).WithTeam(vm.SelectedTeamID))

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Enter):
		if row != nil && row.IsFolder {
			return m.sendEvent(core.NewEvent(core.EventToggleNode).WithNode(row.NodeID))
		}
		return nil

	case key.Matches(msg, m.keys.Run):
		if row != nil && row.AnalysisID != "" {
			return m.sendEvent(core.NewEvent(core.EventRunAnalysis).WithAnalysis(row.AnalysisID))
		}
		return nil

	case key.Matches(msg, m.keys.Stop):
		if row != nil && row.AnalysisID != "" {
			return m.sendEvent(core.NewEvent(core.EventStopAnalysis).WithAnalysis(row.AnalysisID))
		}
		return nil

	case key.Matches(msg, m.keys.Delete):
		if row != nil && row.AnalysisID != "" {
			m.confirm("Delete "+row.Name+"?", core.NewEvent(core.EventDeleteAnalysis).WithAnalysis(row.AnalysisID))
		}
		return nil

	case key.Matches(msg, m.keys.Upload):
		m.startInput(inputUpload, "Script path to upload")
		return nil

	case key.Matches(msg, m.keys.Logs):
		if row != nil && row.AnalysisID != "" {
			m.currentView = core.VMLogs
			return m.sendEvent(core.NewEvent(core.EventViewLogs).WithAnalysis(row.AnalysisID))
		}
		return nil
	}
	return nil
}

func (m *Model) handleAnalysesKey(msg tea.KeyMsg) tea.Cmd {
	vm := m.state.Analyses
	if m.mainIndex < 0 || m.mainIndex >= len(vm.Analyses) {
		return nil
	}
	a := vm.Analyses[m.mainIndex]

	switch {
	case key.Matches(msg, m.keys.Run):
		if a.CanRun {
			return m.sendEvent(core.NewEvent(core.EventRunAnalysis).WithAnalysis(a.ID))
		}
	case key.Matches(msg, m.keys.Stop):
		if a.CanStop {
			return m.sendEvent(core.NewEvent(core.EventStopAnalysis).WithAnalysis(a.ID))
		}
	case key.Matches(msg, m.keys.Delete):
		if a.CanDelete {
			m.confirm("Delete "+a.Name+"?", core.NewEvent(core.EventDeleteAnalysis).WithAnalysis(a.ID))
		}
	case key.Matches(msg, m.keys.Logs), key.Matches(msg, m.keys.Enter):
		m.currentView = core.VMLogs
		return m.sendEvent(core.NewEvent(core.EventViewLogs).WithAnalysis(a.ID))
	case key.Matches(msg, m.keys.Filter):
		m.startInput(inputFilter, "Filter analyses")
	}
	return nil
}

func (m *Model) handleLogsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Filter):
		m.startInput(inputFilter, "Filter by level (error/warn/info)")
	case key.Matches(msg, m.keys.Space):
		m.state.Logs.AutoScroll = !m.state.Logs.AutoScroll
		if m.state.Logs.AutoScroll {
			m.viewport.GotoBottom()
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// grabOrDrop handles the keyboard reorder gesture: first Space picks the
// selected row up, second Space drops it on the row under the cursor.
func (m *Model) grabOrDrop() tea.Cmd {
	row := m.selectedRow()
	if row == nil {
		return nil
	}

	if m.dragNodeID == "" {
		m.dragNodeID = row.NodeID
		return nil
	}

	target := reorder.DropTarget{Kind: reorder.TargetSibling, NodeID: row.NodeID}
	if row.IsFolder {
		target = reorder.DropTarget{Kind: reorder.TargetFolder, NodeID: row.NodeID}
	}
	ev := core.DropEvent(m.dragNodeID, target)
	m.dragNodeID = ""
	m.hoverHint = nil
	m.expander.Reset()
	return m.sendEvent(ev)
}

// ============================================
// Mouse handling (drag and drop reorder)
// ============================================

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.currentView != core.VMTeams || !m.state.Teams.Reordering {
		return nil
	}

	m.computeRowRects()
	p := reorder.Point{X: msg.X, Y: msg.Y}

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		for i, r := range m.rowRects {
			if r.Bounds.Contains(p) {
				m.dragNodeID = r.NodeID
				m.mainIndex = i
				break
			}
		}
		return nil

	case msg.Action == tea.MouseActionMotion:
		if m.dragNodeID == "" {
			return nil
		}
		if target, ok := reorder.ResolveTarget(m.rowRects, m.rootZone, p, true); ok {
			m.hoverHint = &target
		} else {
			m.hoverHint = nil
		}
		hovered := ""
		if m.hoverHint != nil && m.hoverHint.Kind == reorder.TargetFolder {
			hovered = m.hoverHint.NodeID
		}
		if id := m.expander.Observe(hovered, time.Now()); id != "" {
			return m.sendEvent(core.NewEvent(core.EventToggleNode).WithNode(id).WithValue(true))
		}
		return nil

	case msg.Action == tea.MouseActionRelease:
		if m.dragNodeID == "" {
			return nil
		}
		dragged := m.dragNodeID
		m.dragNodeID = ""
		m.hoverHint = nil
		m.expander.Reset()

		if target, ok := reorder.ResolveTarget(m.rowRects, m.rootZone, p, true); ok {
			return m.sendEvent(core.DropEvent(dragged, target))
		}
		return nil
	}

	return nil
}

// hoveredFolder returns the folder id currently under a drag hover, or ""
func (m *Model) hoveredFolder() string {
	if m.hoverHint != nil && m.hoverHint.Kind == reorder.TargetFolder {
		return m.hoverHint.NodeID
	}
	return ""
}

// ============================================
// Input prompt and dialogs
// ============================================

func (m *Model) startInput(action inputAction, prompt string) {
	m.inputActive = true
	m.inputAction = action
	m.input.Prompt = prompt + ": "
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputActive = false
		m.input.Blur()
		return nil

	case tea.KeyEnter:
		action := m.inputAction
		value := m.input.Value()
		m.inputActive = false
		m.input.Blur()

		switch action {
		case inputNewFolder:
			if value == "" {
				return nil
			}
			parent := ""
			if row := m.selectedRow(); row != nil && row.IsFolder {
				parent = row.NodeID
			}
			return m.sendEvent(core.NewEvent(core.EventReorderNewFolder).
				WithData("name", value).WithData("parent", parent))

		case inputFilter:
			return m.sendEvent(core.FilterEvent(value))

		case inputUpload:
			if value == "" {
				return nil
			}
			return m.sendEvent(core.NewEvent(core.EventUploadAnalysis).
				WithTeam(m.state.Teams.SelectedTeamID).
				WithData("path", value).
				WithData("name", baseName(value)))
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) confirm(message string, event *core.Event) {
	m.showDialog = true
	m.dialogMessage = message
	m.dialogEvent = event
}

func (m *Model) handleDialogKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		m.showDialog = false
		ev := m.dialogEvent
		m.dialogEvent = nil
		if ev != nil {
			return m.sendEvent(ev)
		}
	case "n", "N", "esc":
		m.showDialog = false
		m.dialogEvent = nil
	}
	return nil
}

// ============================================
// Selection helpers
// ============================================

func (m *Model) maxItems() int {
	switch m.currentView {
	case core.VMTeams:
		return len(m.state.Teams.Rows)
	case core.VMAnalyses:
		return len(m.state.Analyses.Analyses)
	case core.VMLogs:
		return len(m.state.Logs.Lines)
	default:
		return 0
	}
}

func (m *Model) moveSelection(delta int) {
	max := m.maxItems()
	if max == 0 {
		m.mainIndex = 0
		return
	}
	m.mainIndex += delta
	if m.mainIndex < 0 {
		m.mainIndex = 0
	}
	if m.mainIndex >= max {
		m.mainIndex = max - 1
	}
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	if m.mainIndex < 0 {
		m.mainIndex = 0
	}
	if m.visibleRows <= 0 {
		return
	}
	if m.mainIndex < m.scrollOffset {
		m.scrollOffset = m.mainIndex
	}
	if m.mainIndex >= m.scrollOffset+m.visibleRows {
		m.scrollOffset = m.mainIndex - m.visibleRows + 1
	}
}

func (m *Model) selectedRow() *core.TreeRowVM {
	rows := m.state.Teams.Rows
	if m.mainIndex < 0 || m.mainIndex >= len(rows) {
		return nil
	}
	return &rows[m.mainIndex]
}

func (m *Model) cycleTeam(direction int) tea.Cmd {
	vm := m.state.Teams
	if len(vm.Teams) == 0 || vm.Reordering {
		return nil
	}

	current := 0
	for i, t := range vm.Teams {
		if t.ID == vm.SelectedTeamID {
			current = i
			break
		}
	}
	next := (current + direction + len(vm.Teams)) % len(vm.Teams)
	m.mainIndex = 0
	m.scrollOffset = 0
	return m.sendEvent(core.SelectTeamEvent(vm.Teams[next].ID))
}

// ============================================
// Presenter plumbing
// ============================================

func (m *Model) sendEvent(event *core.Event) tea.Cmd {
	presenter := m.presenter
	return func() tea.Msg {
		if presenter != nil {
			_ = presenter.HandleEvent(event)
		}
		return nil
	}
}

func (m *Model) refreshData() tea.Msg {
	if m.presenter != nil {
		_ = m.presenter.Refresh()
	}
	return nil
}

func (m *Model) handleStateUpdate(update core.StateUpdate) {
	if update.ViewModel == nil {
		return
	}
	m.state.UpdateViewModel(update.ViewModel)

	if lv, ok := update.ViewModel.(*core.LogsVM); ok {
		m.syncLogViewport(lv)
	}

	// Clamp selection if the list shrank
	if max := m.maxItems(); m.mainIndex >= max && max > 0 {
		m.mainIndex = max - 1
	}
}

// syncLogViewport re-renders the log pane content. With auto-scroll on the
// viewport follows the tail; otherwise the scroll position is preserved.
func (m *Model) syncLogViewport(vm *core.LogsVM) {
	var b strings.Builder
	for _, l := range vm.Lines {
		b.WriteString(m.renderLogLine(l) + "\n")
	}
	m.viewport.SetContent(b.String())
	if vm.AutoScroll {
		m.viewport.GotoBottom()
	}
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
