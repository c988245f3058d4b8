package router

import (
	"sync"

	"csd-runlab/modules/core/analyses"
	"csd-runlab/modules/core/backendstate"
	"csd-runlab/modules/core/teams"
	"csd-runlab/modules/platform/logger"
	"csd-runlab/modules/platform/stream"
)

// storeHandler applies one event to one domain store
type storeHandler func(*stream.Event)

// Hooks are the out-of-band system actions a server event can trigger.
// They bypass the domain stores entirely.
type Hooks struct {
	// ForceLogout is invoked when the server terminates the session
	ForceLogout func(reason string)

	// RoleChanged is invoked for a transient role-change notice. No store is
	// mutated here: the server follows up with a fresh init carrying the new
	// permission set, which avoids racing "clear permissions now" against
	// "receive new permissions later".
	RoleChanged func(role string)
}

type forceLogoutPayload struct {
	Reason string `json:"reason,omitempty"`
}

type roleUpdatedPayload struct {
	Role string `json:"role"`
}

// Router is the single dispatch point from stream events to domain stores.
// It is constructed once, owns its dispatch table, and routes events
// strictly in arrival order: all handlers for one event run before the next
// event is routed, so cascade effects (team deletion purging that team's
// analyses) always see a consistent intermediate state.
type Router struct {
	mu    sync.Mutex
	table map[string][]storeHandler
	hooks Hooks
}

// New builds a router over the three domain stores. Handler order within a
// table entry is significant: teamDeleted reaches the teams store before the
// analyses store runs its cascade purge.
func New(teamStore *teams.Store, analysisStore *analyses.Store, backendStore *backendstate.Store, hooks Hooks) *Router {
	r := &Router{hooks: hooks}

	r.table = map[string][]storeHandler{
		stream.TypeInit: {
			teamStore.ApplyEvent,
			analysisStore.ApplyEvent,
			backendStore.ApplyEvent,
		},
		stream.TypeTeamCreated:          {teamStore.ApplyEvent},
		stream.TypeTeamStructureUpdated: {teamStore.ApplyEvent},
		stream.TypeFolderCreated:        {teamStore.ApplyEvent},
		stream.TypeFolderUpdated:        {teamStore.ApplyEvent},
		stream.TypeFolderDeleted:        {teamStore.ApplyEvent},
		stream.TypeTeamDeleted: {
			teamStore.ApplyEvent,
			analysisStore.ApplyEvent, // cascade purge of the team's analyses
		},
		stream.TypeAnalysisCreated: {analysisStore.ApplyEvent},
		stream.TypeAnalysisUpdated: {analysisStore.ApplyEvent},
		stream.TypeAnalysisDeleted: {analysisStore.ApplyEvent},
		stream.TypeAnalysisStatus:  {analysisStore.ApplyEvent},
		stream.TypeLog:             {analysisStore.ApplyEvent},
		stream.TypeMetricsUpdate:   {backendStore.ApplyEvent},
	}

	return r
}

// Route dispatches one event. Safe to use as the stream client's event
// handler; the mutex serializes routing so ordering holds even if the caller
// ever delivers from more than one goroutine.
func (r *Router) Route(ev *stream.Event) {
	if ev == nil || ev.Type == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case stream.TypeForceLogout:
		var payload forceLogoutPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Warn("router: malformed forceLogout payload: %v", err)
		}
		if r.hooks.ForceLogout != nil {
			r.hooks.ForceLogout(payload.Reason)
		}
		return

	case stream.TypeUserRoleUpdated:
		var payload roleUpdatedPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Warn("router: malformed userRoleUpdated payload: %v", err)
			return
		}
		if r.hooks.RoleChanged != nil {
			r.hooks.RoleChanged(payload.Role)
		}
		return
	}

	handlers, ok := r.table[ev.Type]
	if !ok {
		// Forward compatibility: servers add event kinds before clients learn them
		logger.Debug("router: dropping unknown event type %q", ev.Type)
		return
	}

	for _, h := range handlers {
		h(ev)
	}
}
