package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"csd-runlab/modules/core/teams"
	"csd-runlab/modules/platform/logger"

	"github.com/google/uuid"
)

// State is the engine's lifecycle state
type State string

const (
	StateIdle       State = "idle"
	StateStaging    State = "staging"
	StateCommitting State = "committing"
)

// Staging rejections. All are synchronous and leave the working tree
// untouched.
var (
	ErrNotStaging     = errors.New("no reorder session in progress")
	ErrBusy           = errors.New("a reorder session is already in progress")
	ErrUnknownTeam    = errors.New("unknown team")
	ErrUnknownNode    = errors.New("node not found in working tree")
	ErrUnknownParent  = errors.New("target parent not found in working tree")
	ErrNoOp           = errors.New("drop has no effect")
	ErrCycle          = errors.New("a folder cannot be moved into itself or its own contents")
	ErrStale          = errors.New("team structure changed elsewhere; restart reordering")
	ErrCommitting     = errors.New("commit in progress")
)

// PendingMove is one user-initiated relocation, recorded in arrival order.
// An empty TargetParentID means the root of the tree.
type PendingMove struct {
	ItemID         string `json:"itemId"`
	TargetParentID string `json:"targetParentId,omitempty"`
	TargetIndex    int    `json:"targetIndex"`
}

// PendingFolder is a folder created while staging, not yet persisted. It has
// no real identifier until commit; moves may reference its TempID both as the
// moved node and as a target parent.
type PendingFolder struct {
	TempID   string `json:"tempId"`
	Name     string `json:"name"`
	ParentID string `json:"parentFolderId,omitempty"` // real id, another temp id, or "" for root
}

// CommitClient is the slice of the REST API the commit sequence needs
type CommitClient interface {
	CreateFolder(ctx context.Context, teamID, name, parentFolderID string) (string, error)
	MoveItem(ctx context.Context, teamID, itemID, targetParentID string, targetIndex int) error
}

// CommitResult summarizes a finished (or aborted) commit. Partial progress
// is accepted as final: folders created before a failure are not rolled
// back, and the next authoritative refresh reconciles the client.
type CommitResult struct {
	FoldersCreated int
	MovesApplied   int
	FailedStep     string // human-readable description of the first failing step, "" on success
}

// Engine stages speculative tree edits for one team and commits them in a
// single sequential pass. It only ever reads the authoritative store (a deep
// copy at Begin); every mutation happens on its private working tree.
type Engine struct {
	mu     sync.Mutex
	store  *teams.Store
	client CommitClient

	state          State
	teamID         string
	epoch          uint64
	working        []*teams.TreeNode
	pendingMoves   []PendingMove
	pendingFolders []PendingFolder
}

// NewEngine creates an idle reorder engine
func NewEngine(store *teams.Store, client CommitClient) *Engine {
	return &Engine{
		store:  store,
		client: client,
		state:  StateIdle,
	}
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// TeamID returns the team being reordered ("" when idle)
func (e *Engine) TeamID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.teamID
}

// Begin enters staging for a team: deep-clones the authoritative tree and
// records the store epoch so concurrent structure changes can be detected.
func (e *Engine) Begin(teamID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return ErrBusy
	}

	// An empty forest is fine; a brand-new team starts reordering by
	// staging its first folder.
	tree, ok := e.store.Tree(teamID)
	if !ok {
		return ErrUnknownTeam
	}

	e.state = StateStaging
	e.teamID = teamID
	e.epoch = e.store.Version()
	e.working = tree
	e.pendingMoves = nil
	e.pendingFolders = nil

	logger.Debug("reorder: staging started for team %s (epoch %d)", teamID, e.epoch)
	return nil
}

// WorkingTree returns a copy of the staged tree for rendering, or nil when
// not staging
func (e *Engine) WorkingTree() []*teams.TreeNode {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle {
		return nil
	}
	return teams.CloneForest(e.working)
}

// Pending returns copies of the accumulated unpersisted edits
func (e *Engine) Pending() ([]PendingFolder, []PendingMove) {
	e.mu.Lock()
	defer e.mu.Unlock()

	folders := make([]PendingFolder, len(e.pendingFolders))
	copy(folders, e.pendingFolders)
	moves := make([]PendingMove, len(e.pendingMoves))
	copy(moves, e.pendingMoves)
	return folders, moves
}

// Stale reports whether the authoritative store advanced past the staged
// snapshot. The presenter checks this on every teams-store update and
// invalidates the session rather than letting the user commit against state
// that no longer matches the server.
func (e *Engine) Stale() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateStaging && e.store.Version() != e.epoch
}

// Invalidate aborts a stale staging session, discarding all pending edits
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateStaging {
		return
	}
	logger.Info("reorder: session invalidated for team %s", e.teamID)
	e.reset()
}

// StageCreateFolder records a new folder and splices it into the working
// tree under parentID ("" for root, a temp id for a staged folder). Returns
// the temporary id assigned to the folder.
func (e *Engine) StageCreateFolder(parentID, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateStaging {
		return "", ErrNotStaging
	}
	if e.store.Version() != e.epoch {
		return "", ErrStale
	}

	if parentID != "" {
		parent, _, _ := teams.FindNode(e.working, parentID)
		if parent == nil || !parent.IsFolder() {
			return "", ErrUnknownParent
		}
	}

	tempID := "tmp-" + uuid.NewString()
	node := &teams.TreeNode{ID: tempID, Kind: teams.KindFolder, Name: name}

	working, ok := teams.InsertAt(e.working, parentID, int(^uint(0)>>1), node)
	if !ok {
		return "", ErrUnknownParent
	}
	e.working = working
	e.pendingFolders = append(e.pendingFolders, PendingFolder{
		TempID:   tempID,
		Name:     name,
		ParentID: parentID,
	})

	return tempID, nil
}

// StageMove resolves a drop against the working tree, applies it immediately
// and records the pending move. Invalid drops are rejected without mutating
// anything.
func (e *Engine) StageMove(nodeID string, target DropTarget) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateStaging {
		return ErrNotStaging
	}
	if e.store.Version() != e.epoch {
		return ErrStale
	}

	move, err := resolveMove(e.working, nodeID, target)
	if err != nil {
		return err
	}

	working, detached := teams.Detach(e.working, nodeID)
	if detached == nil {
		return ErrUnknownNode
	}
	working, ok := teams.InsertAt(working, move.TargetParentID, move.TargetIndex, detached)
	if !ok {
		// Resolution already validated the parent; reaching here means the
		// parent was inside the detached subtree, which resolveMove rejects
		return ErrUnknownParent
	}

	e.working = working
	e.pendingMoves = append(e.pendingMoves, move)
	return nil
}

// Cancel discards the working tree and all pending edits
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateStaging {
		return
	}
	logger.Debug("reorder: staging cancelled for team %s", e.teamID)
	e.reset()
}

// RootEscapeHint reports whether the working tree consists of exactly one
// top-level folder and nothing else at the root. In that shape there is no
// visible root drop-zone, so the view surfaces guidance (drop on the
// folder's own header to ungroup) instead.
func (e *Engine) RootEscapeHint() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state == StateStaging &&
		len(e.working) == 1 &&
		e.working[0].IsFolder()
}

// Commit persists all pending edits: folders first in creation order, then
// moves in recorded order, each awaited before the next because later moves
// may reference ids only known after an earlier folder is created. On any
// failure the remaining steps are abandoned; already-applied steps stand and
// reconcile on the next authoritative refresh. The engine always returns to
// Idle.
func (e *Engine) Commit(ctx context.Context) (CommitResult, error) {
	e.mu.Lock()
	if e.state != StateStaging {
		e.mu.Unlock()
		return CommitResult{}, ErrNotStaging
	}
	if e.store.Version() != e.epoch {
		e.reset()
		e.mu.Unlock()
		return CommitResult{}, ErrStale
	}

	e.state = StateCommitting
	teamID := e.teamID
	folders := e.pendingFolders
	moves := e.pendingMoves
	e.mu.Unlock()

	// Network calls run without the lock so authoritative events keep
	// flowing into the stores while the commit is in flight.
	result, err := e.runCommit(ctx, teamID, folders, moves)

	e.mu.Lock()
	e.reset()
	e.mu.Unlock()

	return result, err
}

func (e *Engine) runCommit(ctx context.Context, teamID string, folders []PendingFolder, moves []PendingMove) (CommitResult, error) {
	var result CommitResult

	// Temp ids become real ids as folders are created; subsequent steps
	// reference them through this table.
	realID := make(map[string]string, len(folders))
	remap := func(id string) string {
		if mapped, ok := realID[id]; ok {
			return mapped
		}
		return id
	}

	for _, pf := range folders {
		id, err := e.client.CreateFolder(ctx, teamID, pf.Name, remap(pf.ParentID))
		if err != nil {
			result.FailedStep = fmt.Sprintf("creating folder %q", pf.Name)
			logger.Error("reorder: commit aborted while %s: %v", result.FailedStep, err)
			return result, err
		}
		realID[pf.TempID] = id
		result.FoldersCreated++
	}

	for _, mv := range moves {
		if err := e.client.MoveItem(ctx, teamID, remap(mv.ItemID), remap(mv.TargetParentID), mv.TargetIndex); err != nil {
			result.FailedStep = fmt.Sprintf("moving %s", remap(mv.ItemID))
			logger.Error("reorder: commit aborted while %s: %v", result.FailedStep, err)
			return result, err
		}
		result.MovesApplied++
	}

	logger.Info("reorder: committed %d folder(s) and %d move(s) for team %s",
		result.FoldersCreated, result.MovesApplied, teamID)
	return result, nil
}

// reset must be called with the lock held
func (e *Engine) reset() {
	e.state = StateIdle
	e.teamID = ""
	e.epoch = 0
	e.working = nil
	e.pendingMoves = nil
	e.pendingFolders = nil
}
