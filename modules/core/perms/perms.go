package perms

import (
	"csd-runlab/modules/core/analyses"
	"csd-runlab/modules/core/teams"
)

// Action names the operations permission checks are keyed by
type Action string

const (
	ActionView    Action = "view"
	ActionRun     Action = "run"
	ActionUpload  Action = "upload"
	ActionEdit    Action = "edit"
	ActionReorder Action = "reorder"
	ActionDelete  Action = "delete"
)

// allowed maps each role to the actions it may perform
var allowed = map[teams.Role]map[Action]bool{
	teams.RoleViewer: {
		ActionView: true,
	},
	teams.RoleEditor: {
		ActionView:    true,
		ActionRun:     true,
		ActionUpload:  true,
		ActionEdit:    true,
		ActionReorder: true,
	},
	teams.RoleOwner: {
		ActionView:    true,
		ActionRun:     true,
		ActionUpload:  true,
		ActionEdit:    true,
		ActionReorder: true,
		ActionDelete:  true,
	},
}

// Resolver derives per-user-visible slices of the teams and analyses
// projections. It holds no state of its own; correctness rides entirely on
// the store invariants.
type Resolver struct {
	teams    *teams.Store
	analyses *analyses.Store
}

// NewResolver creates a resolver over the two stores
func NewResolver(teamStore *teams.Store, analysisStore *analyses.Store) *Resolver {
	return &Resolver{teams: teamStore, analyses: analysisStore}
}

// Can reports whether the current user may perform an action in a team
func (r *Resolver) Can(teamID string, action Action) bool {
	role := r.teams.MemberRole(teamID)
	if role == "" {
		return false
	}
	return allowed[role][action]
}

// VisibleTeams returns the teams the current user is a member of
func (r *Resolver) VisibleTeams() []*teams.Team {
	var out []*teams.Team
	for _, t := range r.teams.Teams() {
		if r.Can(t.ID, ActionView) {
			out = append(out, t)
		}
	}
	return out
}

// VisibleAnalyses returns the analyses of one team if the user may view it
func (r *Resolver) VisibleAnalyses(teamID string) []*analyses.Analysis {
	if !r.Can(teamID, ActionView) {
		return nil
	}
	return r.analyses.ByTeam(teamID)
}

// VisibleTree returns the team's forest if the user may view it
func (r *Resolver) VisibleTree(teamID string) []*teams.TreeNode {
	if !r.Can(teamID, ActionView) {
		return nil
	}
	tree, _ := r.teams.Tree(teamID)
	return tree
}
