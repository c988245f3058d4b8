package teams

import (
	"sort"
	"sync"

	"csd-runlab/modules/platform/logger"
	"csd-runlab/modules/platform/stream"
)

// Store is the authoritative projection of team state. It is mutated only by
// server events routed through the event router; readers always receive
// copies, so nothing outside the store can corrupt the projection.
type Store struct {
	mu      sync.RWMutex
	teams   map[string]*Team
	user    CurrentUser
	version uint64
}

// NewStore creates an empty teams store
func NewStore() *Store {
	return &Store{
		teams: make(map[string]*Team),
	}
}

// Version returns the store epoch. It advances on every applied event and is
// how a staged reorder session detects that its snapshot went stale.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ApplyEvent mutates the projection from a server event. Events referencing
// unknown entities are logged and ignored; during a reconnect window the
// stream can legitimately carry messages for state this client never saw.
// Only events that actually changed the projection advance the epoch, so a
// dropped frame cannot stale a staged reorder session.
func (s *Store) ApplyEvent(ev *stream.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := false
	switch ev.Type {
	case stream.TypeInit:
		applied = s.applyInit(ev)
	case stream.TypeTeamCreated:
		applied = s.applyTeamCreated(ev)
	case stream.TypeTeamDeleted:
		applied = s.applyTeamDeleted(ev)
	case stream.TypeTeamStructureUpdated:
		applied = s.applyStructureUpdated(ev)
	case stream.TypeFolderCreated:
		applied = s.applyFolderCreated(ev)
	case stream.TypeFolderUpdated:
		applied = s.applyFolderUpdated(ev)
	case stream.TypeFolderDeleted:
		applied = s.applyFolderDeleted(ev)
	default:
		// Not ours; the router should not have sent it
		logger.Debug("teams: ignoring event %q", ev.Type)
	}

	if applied {
		s.version++
	}
}

func (s *Store) applyInit(ev *stream.Event) bool {
	var payload initPayload
	if err := ev.Decode(&payload); err != nil {
		logger.Warn("teams: malformed init payload: %v", err)
		return false
	}

	// Full snapshot replaces everything
	s.teams = make(map[string]*Team, len(payload.Teams))
	for _, t := range payload.Teams {
		if t == nil || t.ID == "" {
			continue
		}
		s.teams[t.ID] = t
	}
	if payload.User != nil {
		s.user = *payload.User
	}
	return true
}

func (s *Store) applyTeamCreated(ev *stream.Event) bool {
	var payload teamCreatedPayload
	if err := ev.Decode(&payload); err != nil || payload.Team == nil || payload.Team.ID == "" {
		logger.Warn("teams: malformed teamCreated payload")
		return false
	}
	s.teams[payload.Team.ID] = payload.Team
	return true
}

func (s *Store) applyTeamDeleted(ev *stream.Event) bool {
	var payload teamDeletedPayload
	if err := ev.Decode(&payload); err != nil || payload.TeamID == "" {
		logger.Warn("teams: malformed teamDeleted payload")
		return false
	}
	if _, ok := s.teams[payload.TeamID]; !ok {
		logger.Debug("teams: teamDeleted for unknown team %s", payload.TeamID)
		return false
	}
	delete(s.teams, payload.TeamID)
	return true
}

func (s *Store) applyStructureUpdated(ev *stream.Event) bool {
	var payload structureUpdatedPayload
	if err := ev.Decode(&payload); err != nil || payload.TeamID == "" {
		logger.Warn("teams: malformed teamStructureUpdated payload")
		return false
	}
	team, ok := s.teams[payload.TeamID]
	if !ok {
		logger.Debug("teams: structure update for unknown team %s", payload.TeamID)
		return false
	}
	team.Tree = payload.Tree
	return true
}

func (s *Store) applyFolderCreated(ev *stream.Event) bool {
	var payload folderCreatedPayload
	if err := ev.Decode(&payload); err != nil || payload.TeamID == "" || payload.FolderID == "" {
		logger.Warn("teams: malformed folderCreated payload")
		return false
	}
	team, ok := s.teams[payload.TeamID]
	if !ok {
		logger.Debug("teams: folderCreated for unknown team %s", payload.TeamID)
		return false
	}
	if node, _, _ := FindNode(team.Tree, payload.FolderID); node != nil {
		// Already present (e.g., this client committed it); nothing to do
		return false
	}
	folder := &TreeNode{ID: payload.FolderID, Kind: KindFolder, Name: payload.Name}
	tree, ok := InsertAt(team.Tree, payload.ParentID, payload.Index, folder)
	if !ok {
		logger.Debug("teams: folderCreated under unknown parent %s", payload.ParentID)
		return false
	}
	team.Tree = tree
	return true
}

func (s *Store) applyFolderUpdated(ev *stream.Event) bool {
	var payload folderUpdatedPayload
	if err := ev.Decode(&payload); err != nil || payload.TeamID == "" || payload.FolderID == "" {
		logger.Warn("teams: malformed folderUpdated payload")
		return false
	}
	team, ok := s.teams[payload.TeamID]
	if !ok {
		logger.Debug("teams: folderUpdated for unknown team %s", payload.TeamID)
		return false
	}
	node, _, _ := FindNode(team.Tree, payload.FolderID)
	if node == nil || !node.IsFolder() {
		logger.Debug("teams: folderUpdated for unknown folder %s", payload.FolderID)
		return false
	}
	node.Name = payload.Name
	return true
}

func (s *Store) applyFolderDeleted(ev *stream.Event) bool {
	var payload folderDeletedPayload
	if err := ev.Decode(&payload); err != nil || payload.TeamID == "" || payload.FolderID == "" {
		logger.Warn("teams: malformed folderDeleted payload")
		return false
	}
	team, ok := s.teams[payload.TeamID]
	if !ok {
		logger.Debug("teams: folderDeleted for unknown team %s", payload.TeamID)
		return false
	}
	node, _, _ := FindNode(team.Tree, payload.FolderID)
	if node == nil {
		logger.Debug("teams: folderDeleted for unknown folder %s", payload.FolderID)
		return false
	}
	// Orphaned children are promoted to the root, matching server behavior
	tree, removed := Detach(team.Tree, payload.FolderID)
	if removed != nil && len(removed.Children) > 0 {
		tree = append(tree, removed.Children...)
	}
	team.Tree = tree
	return true
}

// Teams returns all teams sorted by name. The returned slice and its trees
// are deep copies.
func (s *Store) Teams() []*Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, s.copyTeam(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Team returns a deep copy of one team, or nil if unknown
func (s *Store) Team(id string) *Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return nil
	}
	return s.copyTeam(t)
}

// Tree returns a deep copy of the team's forest and whether the team exists.
// A known team with no folders yet yields an empty forest, not a miss; the
// reorder engine keys its unknown-team rejection on the second return.
func (s *Store) Tree(teamID string) ([]*TreeNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[teamID]
	if !ok {
		return nil, false
	}
	return CloneForest(t.Tree), true
}

// User returns the session's bound identity (from the last init)
func (s *Store) User() CurrentUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// MemberRole returns the current user's role in a team, or "" if not a member
func (s *Store) MemberRole(teamID string) Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[teamID]
	if !ok || t.Members == nil {
		return ""
	}
	return t.Members[s.user.ID]
}

func (s *Store) copyTeam(t *Team) *Team {
	c := &Team{
		ID:   t.ID,
		Name: t.Name,
		Tree: CloneForest(t.Tree),
	}
	if t.Members != nil {
		c.Members = make(map[string]Role, len(t.Members))
		for k, v := range t.Members {
			c.Members[k] = v
		}
	}
	return c
}
