package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"csd-runlab/modules/core/analyses"
	"csd-runlab/modules/core/backendstate"
	"csd-runlab/modules/core/perms"
	"csd-runlab/modules/core/reorder"
	"csd-runlab/modules/core/router"
	"csd-runlab/modules/core/teams"
	"csd-runlab/modules/platform/api"
	"csd-runlab/modules/platform/config"
	"csd-runlab/modules/platform/eventbus"
	"csd-runlab/modules/platform/gitinfo"
	"csd-runlab/modules/platform/logger"
	"csd-runlab/modules/platform/stream"
	"csd-runlab/modules/platform/system"
)

// treeEvents are the stream event types that change a team's tree and
// therefore invalidate a staged reorder session on that team.
var treeEvents = map[string]bool{
	stream.TypeInit:                 true,
	stream.TypeTeamCreated:          true,
	stream.TypeTeamDeleted:          true,
	stream.TypeTeamStructureUpdated: true,
	stream.TypeFolderCreated:        true,
	stream.TypeFolderUpdated:        true,
	stream.TypeFolderDeleted:        true,
	stream.TypeAnalysisCreated:      true,
	stream.TypeAnalysisDeleted:      true,
}

// AppPresenter wires the event stream, domain stores and reorder engine
// together and prepares view models for whatever view is attached.
type AppPresenter struct {
	mu sync.RWMutex

	config *config.Config

	// Domain stores
	teamStore     *teams.Store
	analysisStore *analyses.Store
	backendStore  *backendstate.Store

	router   *router.Router
	resolver *perms.Resolver
	engine   *reorder.Engine

	// Platform services
	apiClient    *api.Client
	streamClient *stream.Client
	collector    *system.Collector
	bus          *eventbus.Bus

	// State
	state    *AppState
	expanded map[string]bool // folder expansion, keyed by node ID

	// Callbacks
	stateCallbacks        []func(StateUpdate)
	notificationCallbacks []func(*Notification)

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAppPresenter creates a new application presenter
func NewAppPresenter(cfg *config.Config, apiClient *api.Client, streamClient *stream.Client, bus *eventbus.Bus) *AppPresenter {
	return &AppPresenter{
		config:                cfg,
		apiClient:             apiClient,
		streamClient:          streamClient,
		bus:                   bus,
		state:                 NewAppState(),
		expanded:              make(map[string]bool),
		stateCallbacks:        make([]func(StateUpdate), 0),
		notificationCallbacks: make([]func(*Notification), 0),
	}
}

// NewPresenter is a convenience constructor that returns the Presenter interface
func NewPresenter(cfg *config.Config, apiClient *api.Client, streamClient *stream.Client, bus *eventbus.Bus) Presenter {
	return NewAppPresenter(cfg, apiClient, streamClient, bus)
}

// Initialize sets up the presenter and opens the event stream
func (p *AppPresenter) Initialize(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	maxLines := 500
	if p.config != nil && p.config.Settings != nil && p.config.Settings.LogBufferLines > 0 {
		maxLines = p.config.Settings.LogBufferLines
	}

	p.teamStore = teams.NewStore()
	p.analysisStore = analyses.NewStore(maxLines)
	p.backendStore = backendstate.NewStore()

	p.router = router.New(p.teamStore, p.analysisStore, p.backendStore, router.Hooks{
		ForceLogout: p.handleForceLogout,
		RoleChanged: p.handleRoleChanged,
	})

	p.resolver = perms.NewResolver(p.teamStore, p.analysisStore)
	p.engine = reorder.NewEngine(p.teamStore, p.apiClient)

	interval := 5 * time.Second
	if p.config != nil && p.config.Settings != nil && p.config.Settings.MetricsInterval > 0 {
		interval = time.Duration(p.config.Settings.MetricsInterval) * time.Second
	}
	p.collector = system.NewCollector(interval, p.bus)
	p.collector.Start()

	p.streamClient.SetEventHandler(p.handleStreamEvent)
	p.streamClient.SetStatusHandler(p.handleStreamStatus)

	p.refreshConfig()

	p.streamClient.Connect(p.ctx)

	return nil
}

// HandleEvent processes a user event
func (p *AppPresenter) HandleEvent(event *Event) error {
	switch event.Type {
	// Navigation
	case EventNavigate:
		return p.handleNavigate(event)
	case EventRefresh:
		return p.Refresh()

	// Teams
	case EventSelectTeam:
		return p.handleSelectTeam(event)
	case EventToggleNode:
		return p.handleToggleNode(event)

	// Reorder
	case EventReorderBegin:
		return p.handleReorderBegin(event)
	case EventReorderDrop:
		return p.handleReorderDrop(event)
	case EventReorderNewFolder:
		return p.handleReorderNewFolder(event)
	case EventReorderCancel:
		return p.handleReorderCancel(event)
	case EventReorderCommit:
		return p.handleReorderCommit(event)

	// Analyses
	case EventRunAnalysis:
		return p.handleRunAnalysis(event)
	case EventStopAnalysis:
		return p.handleStopAnalysis(event)
	case EventDeleteAnalysis:
		return p.handleDeleteAnalysis(event)
	case EventUploadAnalysis:
		return p.handleUploadAnalysis(event)
	case EventViewLogs:
		return p.handleViewLogs(event)

	// Auth
	case EventLogin:
		return p.handleLogin(event)
	case EventLogout:
		return p.handleLogout(event)

	// UI state
	case EventFilter:
		return p.handleFilter(event)

	default:
		logger.Debug("presenter: unhandled event type: %s", event.Type)
		return nil
	}
}

// GetViewModel returns the current view model for a view type
func (p *AppPresenter) GetViewModel(viewType ViewModelType) (ViewModel, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch viewType {
	case VMDashboard:
		return p.state.Dashboard, nil
	case VMTeams:
		return p.state.Teams, nil
	case VMAnalyses:
		return p.state.Analyses, nil
	case VMLogs:
		return p.state.Logs, nil
	case VMConfig:
		return p.state.Config, nil
	default:
		return nil, fmt.Errorf("unknown view type: %s", viewType)
	}
}

// Subscribe registers a callback for state updates
func (p *AppPresenter) Subscribe(callback func(StateUpdate)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stateCallbacks = append(p.stateCallbacks, callback)
}

// SubscribeNotifications registers a callback for notifications
func (p *AppPresenter) SubscribeNotifications(callback func(*Notification)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notificationCallbacks = append(p.notificationCallbacks, callback)
}

// Refresh rebuilds all view models from the stores
func (p *AppPresenter) Refresh() error {
	p.refreshTeams()
	p.refreshAnalyses()
	p.refreshLogs()
	p.refreshDashboard()

	p.mu.Lock()
	p.state.LastRefresh = time.Now()
	p.mu.Unlock()
	return nil
}

// Shutdown cleans up resources
func (p *AppPresenter) Shutdown() error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.collector != nil {
		p.collector.Stop()
	}
	if p.streamClient != nil {
		p.streamClient.Close()
	}
	return nil
}

// GetState returns the full application state
func (p *AppPresenter) GetState() *AppState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Engine exposes the reorder engine for views that do their own hit testing
func (p *AppPresenter) Engine() *reorder.Engine {
	return p.engine
}

// ============================================
// Stream plumbing
// ============================================

func (p *AppPresenter) handleStreamEvent(ev *stream.Event) {
	p.router.Route(ev)

	if ev.Type == stream.TypeInit {
		p.mu.Lock()
		p.state.Initializing = false
		p.state.LoggedIn = true
		p.mu.Unlock()
	}

	// A staged reorder is speculative. The authoritative tree just moved
	// underneath it, so the whole session is discarded rather than rebased.
	if treeEvents[ev.Type] && p.engine.State() == reorder.StateStaging && p.engine.Stale() {
		p.engine.Invalidate()
		p.notify(NotifyWarning, "Reorder cancelled", "The team was updated on the server; pending changes were discarded.")
		p.bus.Publish(eventbus.NewEvent(eventbus.EventReorderInvalidated).WithSource("presenter"))
	}

	switch ev.Type {
	case stream.TypeInit:
		p.Refresh()
		p.bus.Publish(eventbus.NewEvent(eventbus.EventTeamsUpdated).WithSource("stream"))
	case stream.TypeTeamCreated, stream.TypeTeamDeleted, stream.TypeTeamStructureUpdated,
		stream.TypeFolderCreated, stream.TypeFolderUpdated, stream.TypeFolderDeleted:
		p.refreshTeams()
		p.refreshDashboard()
		p.bus.Publish(eventbus.NewEvent(eventbus.EventTeamsUpdated).WithSource("stream"))
	case stream.TypeAnalysisCreated, stream.TypeAnalysisUpdated, stream.TypeAnalysisDeleted, stream.TypeAnalysisStatus:
		p.refreshTeams()
		p.refreshAnalyses()
		p.refreshDashboard()
		p.bus.Publish(eventbus.NewEvent(eventbus.EventAnalysesUpdated).WithSource("stream"))
	case stream.TypeLog:
		p.refreshLogs()
	case stream.TypeMetricsUpdate:
		p.refreshDashboard()
		p.bus.Publish(eventbus.NewEvent(eventbus.EventBackendUpdated).WithSource("stream"))
	}
}

func (p *AppPresenter) handleStreamStatus(status stream.Status) {
	p.state.SetConnection(status)

	switch status.State {
	case stream.StateConnected:
		p.bus.Publish(eventbus.NewEvent(eventbus.EventStreamConnected).WithSource("stream"))
	case stream.StateDisconnected:
		p.bus.Publish(eventbus.NewEvent(eventbus.EventStreamDisconnected).WithSource("stream"))
	}

	p.refreshDashboard()
}

func (p *AppPresenter) handleForceLogout(reason string) {
	if reason == "" {
		reason = "Your session was terminated by the server."
	}

	p.apiClient.Session().Clear()
	p.streamClient.Close()

	p.mu.Lock()
	p.state.LoggedIn = false
	p.mu.Unlock()

	p.notify(NotifyError, "Logged out", reason)
	p.bus.Publish(eventbus.NewEvent(eventbus.EventForceLogout).WithSource("stream").WithData("reason", reason))
}

func (p *AppPresenter) handleRoleChanged(role string) {
	// The server follows up with a fresh init snapshot; nothing to mutate here
	p.notify(NotifyInfo, "Role changed", fmt.Sprintf("Your role is now %q. Permissions are being refreshed.", role))
	p.bus.Publish(eventbus.NewEvent(eventbus.EventRoleChanged).WithSource("stream").WithData("role", role))
}

// ============================================
// Event handlers
// ============================================

func (p *AppPresenter) handleNavigate(event *Event) error {
	target := ViewModelType(event.Target)
	p.state.SetCurrentView(target)

	vm, err := p.GetViewModel(target)
	if err != nil {
		return err
	}
	p.notifyStateUpdate(target, vm)
	return nil
}

func (p *AppPresenter) handleSelectTeam(event *Event) error {
	if p.engine.State() == reorder.StateStaging {
		p.engine.Cancel()
		p.notify(NotifyInfo, "Reorder cancelled", "Switching teams discards pending changes.")
	}

	p.mu.Lock()
	p.state.Teams.SelectedTeamID = event.TeamID
	p.state.Teams.SelectedIndex = 0
	p.mu.Unlock()

	p.refreshTeams()
	return nil
}

func (p *AppPresenter) handleToggleNode(event *Event) error {
	p.mu.Lock()
	if event.Value == true {
		// Explicit expand (hover auto-expansion during a drag)
		p.expanded[event.NodeID] = true
	} else {
		p.expanded[event.NodeID] = !p.expanded[event.NodeID]
	}
	p.mu.Unlock()

	p.refreshTeams()
	return nil
}

func (p *AppPresenter) handleReorderBegin(event *Event) error {
	teamID := event.TeamID
	if teamID == "" {
		p.mu.RLock()
		teamID = p.state.Teams.SelectedTeamID
		p.mu.RUnlock()
	}
	if teamID == "" {
		return fmt.Errorf("no team selected")
	}

	if !p.resolver.Can(teamID, perms.ActionReorder) {
		p.notify(NotifyWarning, "Not allowed", "You need editor access to reorganize this team.")
		return nil
	}

	if err := p.engine.Begin(teamID); err != nil {
		p.notify(NotifyError, "Reorder", err.Error())
		return err
	}

	p.refreshTeams()
	return nil
}

func (p *AppPresenter) handleReorderDrop(event *Event) error {
	if event.Drop == nil {
		return fmt.Errorf("drop event without target")
	}

	err := p.engine.StageMove(event.NodeID, *event.Drop)
	switch err {
	case nil:
		p.refreshTeams()
	case reorder.ErrNoOp, reorder.ErrCycle:
		// Rejected drops leave the working tree untouched; no noise
		logger.Debug("presenter: drop rejected: %v", err)
	default:
		p.notify(NotifyError, "Move failed", err.Error())
		return err
	}
	return nil
}

func (p *AppPresenter) handleReorderNewFolder(event *Event) error {
	name := event.Data["name"]
	if name == "" {
		return fmt.Errorf("folder name required")
	}

	if _, err := p.engine.StageCreateFolder(event.Data["parent"], name); err != nil {
		p.notify(NotifyError, "New folder", err.Error())
		return err
	}

	p.refreshTeams()
	return nil
}

func (p *AppPresenter) handleReorderCancel(_ *Event) error {
	p.engine.Cancel()
	p.refreshTeams()
	return nil
}

func (p *AppPresenter) handleReorderCommit(_ *Event) error {
	folders, moves := p.engine.Pending()
	if len(folders) == 0 && len(moves) == 0 {
		p.engine.Cancel()
		p.refreshTeams()
		return nil
	}

	p.refreshTeams()

	// Commit runs off the UI goroutine; authoritative events keep flowing
	// while the server applies each step.
	go func() {
		result, err := p.engine.Commit(p.ctx)
		if err != nil {
			p.notify(NotifyError, "Reorder failed",
				fmt.Sprintf("%v (%d folders and %d moves were applied before the failure)",
					err, result.FoldersCreated, result.MovesApplied))
		} else {
			p.notify(NotifySuccess, "Reorder saved",
				fmt.Sprintf("%d folders created, %d items moved.", result.FoldersCreated, result.MovesApplied))
		}
		p.bus.Publish(eventbus.NewEvent(eventbus.EventReorderCommitted).WithSource("presenter"))
		p.refreshTeams()
	}()

	return nil
}

func (p *AppPresenter) handleRunAnalysis(event *Event) error {
	a := p.analysisStore.Get(event.AnalysisID)
	if a == nil {
		return fmt.Errorf("unknown analysis: %s", event.AnalysisID)
	}
	if !p.resolver.Can(a.TeamID, perms.ActionRun) {
		p.notify(NotifyWarning, "Not allowed", "You need editor access to run analyses in this team.")
		return nil
	}

	go func() {
		if err := p.apiClient.RunAnalysis(p.ctx, event.AnalysisID); err != nil {
			p.notify(NotifyError, "Run failed", err.Error())
		}
	}()
	return nil
}

func (p *AppPresenter) handleStopAnalysis(event *Event) error {
	a := p.analysisStore.Get(event.AnalysisID)
	if a == nil {
		return fmt.Errorf("unknown analysis: %s", event.AnalysisID)
	}
	if !p.resolver.Can(a.TeamID, perms.ActionRun) {
		p.notify(NotifyWarning, "Not allowed", "You need editor access to stop analyses in this team.")
		return nil
	}

	go func() {
		if err := p.apiClient.StopAnalysis(p.ctx, event.AnalysisID); err != nil {
			p.notify(NotifyError, "Stop failed", err.Error())
		}
	}()
	return nil
}

func (p *AppPresenter) handleDeleteAnalysis(event *Event) error {
	a := p.analysisStore.Get(event.AnalysisID)
	if a == nil {
		return fmt.Errorf("unknown analysis: %s", event.AnalysisID)
	}
	if !p.resolver.Can(a.TeamID, perms.ActionDelete) {
		p.notify(NotifyWarning, "Not allowed", "You need owner access to delete analyses in this team.")
		return nil
	}

	go func() {
		if err := p.apiClient.DeleteAnalysis(p.ctx, event.AnalysisID); err != nil {
			p.notify(NotifyError, "Delete failed", err.Error())
		}
	}()
	return nil
}

func (p *AppPresenter) handleUploadAnalysis(event *Event) error {
	teamID := event.TeamID
	path := event.Data["path"]
	name := event.Data["name"]
	if teamID == "" || path == "" {
		return fmt.Errorf("upload requires a team and a script path")
	}
	if !p.resolver.Can(teamID, perms.ActionUpload) {
		p.notify(NotifyWarning, "Not allowed", "You need editor access to upload to this team.")
		return nil
	}

	go func() {
		prov, err := gitinfo.Detect(path)
		if err != nil {
			logger.Debug("presenter: provenance detection failed: %v", err)
		}
		if err := p.apiClient.UploadAnalysis(p.ctx, teamID, name, path, prov); err != nil {
			p.notify(NotifyError, "Upload failed", err.Error())
			return
		}
		p.notify(NotifySuccess, "Uploaded", fmt.Sprintf("%s uploaded.", name))
	}()
	return nil
}

func (p *AppPresenter) handleViewLogs(event *Event) error {
	p.mu.Lock()
	p.state.Logs.FilterAnalysis = event.AnalysisID
	p.state.CurrentView = VMLogs
	p.mu.Unlock()

	p.refreshLogs()
	return nil
}

func (p *AppPresenter) handleLogin(event *Event) error {
	username := event.Data["username"]
	password := event.Data["password"]

	go func() {
		if err := p.apiClient.Login(p.ctx, username, password); err != nil {
			p.notify(NotifyError, "Login failed", err.Error())
			return
		}
		p.mu.Lock()
		p.state.LoggedIn = true
		p.mu.Unlock()
		p.notify(NotifySuccess, "Logged in", fmt.Sprintf("Welcome, %s.", username))
		p.streamClient.Connect(p.ctx)
	}()
	return nil
}

func (p *AppPresenter) handleLogout(_ *Event) error {
	go func() {
		if err := p.apiClient.Logout(p.ctx); err != nil {
			logger.Warn("presenter: logout request failed: %v", err)
		}
		p.streamClient.Close()
		p.mu.Lock()
		p.state.LoggedIn = false
		p.mu.Unlock()
		p.notify(NotifyInfo, "Logged out", "Session closed.")
	}()
	return nil
}

func (p *AppPresenter) handleFilter(event *Event) error {
	filterText, _ := event.Value.(string)

	p.mu.Lock()
	switch p.state.CurrentView {
	case VMAnalyses:
		p.state.Analyses.FilterText = filterText
	case VMLogs:
		p.state.Logs.FilterLevel = filterText
	}
	p.mu.Unlock()

	p.refreshAnalyses()
	p.refreshLogs()
	return nil
}

// ============================================
// Refresh methods (domain stores -> view models)
// ============================================

func (p *AppPresenter) refreshTeams() {
	visible := p.resolver.VisibleTeams()

	teamVMs := make(Teams, 0, len(visible))
	for _, t := range visible {
		role := p.teamStore.MemberRole(t.ID)
		running := 0
		all := p.analysisStore.ByTeam(t.ID)
		for _, a := range all {
			if a.Status == analyses.StatusRunning {
				running++
			}
		}
		teamVMs = append(teamVMs, TeamVM{
			ID:            t.ID,
			Name:          t.Name,
			Role:          role,
			AnalysisCount: len(all),
			RunningCount:  running,
			CanReorder:    p.resolver.Can(t.ID, perms.ActionReorder),
			CanRun:        p.resolver.Can(t.ID, perms.ActionRun),
			CanUpload:     p.resolver.Can(t.ID, perms.ActionUpload),
		})
	}

	p.mu.Lock()
	vm := p.state.Teams
	vm.Teams = teamVMs
	if vm.SelectedTeamID == "" && len(teamVMs) > 0 {
		vm.SelectedTeamID = teamVMs[0].ID
	}

	staging := p.engine.State() == reorder.StateStaging && p.engine.TeamID() == vm.SelectedTeamID
	committing := p.engine.State() == reorder.StateCommitting && p.engine.TeamID() == vm.SelectedTeamID

	var forest []*teams.TreeNode
	pendingIDs := make(map[string]bool)
	if staging || committing {
		forest = p.engine.WorkingTree()
		folders, moves := p.engine.Pending()
		for _, f := range folders {
			pendingIDs[f.TempID] = true
		}
		for _, m := range moves {
			pendingIDs[m.ItemID] = true
		}
		vm.PendingFolders = len(folders)
		vm.PendingMoves = len(moves)
		vm.RootEscape = p.engine.RootEscapeHint()
	} else if vm.SelectedTeamID != "" {
		forest = p.resolver.VisibleTree(vm.SelectedTeamID)
		vm.PendingFolders = 0
		vm.PendingMoves = 0
		vm.RootEscape = false
	}

	vm.Reordering = staging
	vm.Committing = committing
	vm.Rows = p.flattenForest(forest, 0, pendingIDs)
	if vm.SelectedIndex >= len(vm.Rows) {
		vm.SelectedIndex = len(vm.Rows) - 1
	}
	if vm.SelectedIndex < 0 {
		vm.SelectedIndex = 0
	}
	vm.UpdatedAt = time.Now()
	p.mu.Unlock()

	p.notifyStateUpdate(VMTeams, vm)
}

// flattenForest walks the tree in display order. Collapsed folders keep
// their children out of the row list but still report a child count.
// Caller holds p.mu.
func (p *AppPresenter) flattenForest(forest []*teams.TreeNode, depth int, pendingIDs map[string]bool) []TreeRowVM {
	rows := make([]TreeRowVM, 0, len(forest))
	for _, n := range forest {
		row := TreeRowVM{
			NodeID:   n.ID,
			Name:     n.Name,
			Depth:    depth,
			IsFolder: n.IsFolder(),
			Pending:  pendingIDs[n.ID],
		}
		if n.IsFolder() {
			row.Expanded = p.expanded[n.ID]
			row.ChildCount = len(n.Children)
		} else {
			row.AnalysisID = n.ItemRef
			if a := p.analysisStore.Get(n.ItemRef); a != nil {
				row.Name = a.Name
				row.Status = a.Status
			}
		}
		rows = append(rows, row)

		if n.IsFolder() && p.expanded[n.ID] {
			rows = append(rows, p.flattenForest(n.Children, depth+1, pendingIDs)...)
		}
	}
	return rows
}

func (p *AppPresenter) refreshAnalyses() {
	p.mu.RLock()
	filterTeam := p.state.Analyses.FilterTeam
	filterText := p.state.Analyses.FilterText
	p.mu.RUnlock()

	var source []*analyses.Analysis
	if filterTeam != "" {
		source = p.resolver.VisibleAnalyses(filterTeam)
	} else {
		for _, t := range p.resolver.VisibleTeams() {
			source = append(source, p.resolver.VisibleAnalyses(t.ID)...)
		}
	}

	vms := make([]AnalysisVM, 0, len(source))
	for _, a := range source {
		if filterText != "" && !strings.Contains(strings.ToLower(a.Name), strings.ToLower(filterText)) {
			continue
		}
		vms = append(vms, p.analysisToVM(a))
	}
	sort.Slice(vms, func(i, j int) bool { return vms[i].Name < vms[j].Name })

	p.mu.Lock()
	vm := p.state.Analyses
	vm.Analyses = vms
	if vm.SelectedIndex >= len(vms) {
		vm.SelectedIndex = len(vms) - 1
	}
	if vm.SelectedIndex < 0 {
		vm.SelectedIndex = 0
	}
	vm.UpdatedAt = time.Now()
	p.mu.Unlock()

	p.notifyStateUpdate(VMAnalyses, vm)
}

func (p *AppPresenter) refreshLogs() {
	p.mu.RLock()
	filterAnalysis := p.state.Logs.FilterAnalysis
	filterLevel := p.state.Logs.FilterLevel
	maxLines := p.state.Logs.MaxLines
	p.mu.RUnlock()

	var lines []LogLineVM
	for _, a := range p.analysisStore.All() {
		if filterAnalysis != "" && a.ID != filterAnalysis {
			continue
		}
		for _, l := range a.LogLines {
			if filterLevel != "" && l.Level != filterLevel {
				continue
			}
			lines = append(lines, LogLineVM{
				Timestamp:    l.Timestamp,
				TimeStr:      l.Timestamp.Format("15:04:05"),
				AnalysisID:   a.ID,
				AnalysisName: a.Name,
				Level:        l.Level,
				Message:      l.Message,
			})
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Timestamp.Before(lines[j].Timestamp) })
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}

	p.mu.Lock()
	vm := p.state.Logs
	vm.Lines = lines
	vm.UpdatedAt = time.Now()
	p.mu.Unlock()

	p.notifyStateUpdate(VMLogs, vm)
}

func (p *AppPresenter) refreshDashboard() {
	user := p.teamStore.User()
	metrics, hasMetrics := p.backendStore.Snapshot()
	local := p.collector.Get()

	var running []AnalysisVM
	for _, a := range p.analysisStore.All() {
		if a.Status == analyses.StatusRunning {
			running = append(running, p.analysisToVM(a))
		}
	}
	sort.Slice(running, func(i, j int) bool { return running[i].Name < running[j].Name })

	p.mu.Lock()
	vm := p.state.Dashboard
	vm.UserName = user.Name
	vm.UserRole = user.Role
	vm.Teams = p.state.Teams.Teams
	vm.TeamCount = len(vm.Teams)
	vm.AnalysisCount = p.analysisStore.Count()
	vm.RunningCount = p.analysisStore.RunningCount()
	vm.Running = running
	vm.Backend = BackendVM{
		CPUPercent:    metrics.CPUPercent,
		MemPercent:    metrics.MemPercent,
		DiskPercent:   metrics.DiskPercent,
		RunningCount:  metrics.RunningCount,
		Uptime:        formatDuration(time.Duration(metrics.UptimeSeconds) * time.Second),
		ServerTime:    metrics.ServerTime,
		ServerVersion: metrics.Version,
		HasData:       hasMetrics,
	}
	vm.Local = LocalVM{
		CPUPercent: local.CPUPercent,
		MemPercent: local.MemPercent,
		MemUsedGB:  local.MemUsedGB,
		MemTotalGB: local.MemTotalGB,
		LoadAvg1:   local.LoadAvg1,
		NumCPU:     local.NumCPU,
	}
	if n := len(p.state.Logs.Lines); n > 0 {
		start := n - 20
		if start < 0 {
			start = 0
		}
		vm.RecentLogs = p.state.Logs.Lines[start:]
	}
	vm.UpdatedAt = time.Now()
	p.mu.Unlock()

	p.notifyStateUpdate(VMDashboard, vm)
}

func (p *AppPresenter) refreshConfig() {
	if p.config == nil {
		return
	}

	settings := make(map[string]interface{})
	if p.config.Settings != nil {
		settings["theme"] = p.config.Settings.Theme
		settings["refresh_rate"] = p.config.Settings.RefreshRate
		settings["show_timestamps"] = p.config.Settings.ShowTimestamps
		settings["log_buffer_lines"] = p.config.Settings.LogBufferLines
		settings["auto_expand_delay_ms"] = p.config.Settings.AutoExpandDelayMS
	}

	path := config.FindConfigFile()

	p.mu.Lock()
	vm := p.state.Config
	vm.ConfigPath = path
	if p.config.Server != nil {
		vm.ServerURL = p.config.Server.URL
	}
	vm.Settings = settings
	vm.UpdatedAt = time.Now()
	p.mu.Unlock()

	p.notifyStateUpdate(VMConfig, vm)
}

// ============================================
// Conversion helpers
// ============================================

func (p *AppPresenter) analysisToVM(a *analyses.Analysis) AnalysisVM {
	teamName := ""
	if t := p.teamStore.Team(a.TeamID); t != nil {
		teamName = t.Name
	}

	vm := AnalysisVM{
		ID:        a.ID,
		Name:      a.Name,
		TeamID:    a.TeamID,
		TeamName:  teamName,
		FileName:  a.FileName,
		Status:    a.Status,
		UpdatedAt: a.UpdatedAt,
		CanRun:    p.resolver.Can(a.TeamID, perms.ActionRun) && a.Status != analyses.StatusRunning,
		CanStop:   p.resolver.Can(a.TeamID, perms.ActionRun) && a.Status == analyses.StatusRunning,
		CanDelete: p.resolver.Can(a.TeamID, perms.ActionDelete),
	}
	if !a.LastRunAt.IsZero() {
		lastRun := a.LastRunAt
		vm.LastRunAt = &lastRun
	}
	if a.Status == analyses.StatusRunning && !a.LastRunAt.IsZero() {
		vm.Uptime = formatDuration(time.Since(a.LastRunAt))
	}
	return vm
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
}

// ============================================
// Notification helpers
// ============================================

func (p *AppPresenter) notify(ntype NotificationType, title, message string) {
	n := NewNotification(ntype, title, message)
	p.state.AddNotification(n)

	p.mu.RLock()
	callbacks := p.notificationCallbacks
	p.mu.RUnlock()

	for _, cb := range callbacks {
		cb(n)
	}
}

func (p *AppPresenter) notifyStateUpdate(viewType ViewModelType, vm ViewModel) {
	update := StateUpdate{
		ViewType:  viewType,
		ViewModel: vm,
	}

	p.mu.RLock()
	callbacks := p.stateCallbacks
	p.mu.RUnlock()

	for _, cb := range callbacks {
		cb(update)
	}
}
