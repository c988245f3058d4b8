package reorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"csd-runlab/modules/core/teams"
	"csd-runlab/modules/platform/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createCall struct {
	TeamID, Name, ParentID string
}

type moveCall struct {
	TeamID, ItemID, ParentID string
	Index                    int
}

// fakeCommitClient records commit traffic and can be told to fail at a
// specific step
type fakeCommitClient struct {
	mu      sync.Mutex
	creates []createCall
	moves   []moveCall

	nextID     int
	failCreate int // 1-based step to fail at, 0 = never
	failMove   int
}

func (f *fakeCommitClient) CreateFolder(ctx context.Context, teamID, name, parentFolderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates = append(f.creates, createCall{TeamID: teamID, Name: name, ParentID: parentFolderID})
	if f.failCreate > 0 && len(f.creates) == f.failCreate {
		return "", errors.New("server rejected folder")
	}
	f.nextID++
	return fmt.Sprintf("real-%d", f.nextID), nil
}

func (f *fakeCommitClient) MoveItem(ctx context.Context, teamID, itemID, targetParentID string, targetIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.moves = append(f.moves, moveCall{TeamID: teamID, ItemID: itemID, ParentID: targetParentID, Index: targetIndex})
	if f.failMove > 0 && len(f.moves) == f.failMove {
		return errors.New("server rejected move")
	}
	return nil
}

func storeWithTeam(t *testing.T, tree []*teams.TreeNode) *teams.Store {
	t.Helper()
	s := teams.NewStore()
	payload, err := json.Marshal(map[string]interface{}{
		"teams": []*teams.Team{{ID: "t1", Name: "Genomics", Tree: tree}},
	})
	require.NoError(t, err)
	s.ApplyEvent(&stream.Event{Type: stream.TypeInit, Data: payload, Timestamp: time.Now()})
	return s
}

func bumpStore(t *testing.T, s *teams.Store) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"teamId": "t1",
		"tree":   []*teams.TreeNode{},
	})
	require.NoError(t, err)
	s.ApplyEvent(&stream.Event{Type: stream.TypeTeamStructureUpdated, Data: payload, Timestamp: time.Now()})
}

func newTestEngine(t *testing.T) (*Engine, *fakeCommitClient, *teams.Store) {
	t.Helper()
	store := storeWithTeam(t, workingForest())
	client := &fakeCommitClient{}
	return NewEngine(store, client), client, store
}

func TestBegin(t *testing.T) {
	e, _, _ := newTestEngine(t)

	assert.Equal(t, StateIdle, e.State())
	assert.ErrorIs(t, e.Begin("nope"), ErrUnknownTeam)

	require.NoError(t, e.Begin("t1"))
	assert.Equal(t, StateStaging, e.State())
	assert.Equal(t, "t1", e.TeamID())

	assert.ErrorIs(t, e.Begin("t1"), ErrBusy)
}

func TestWorkingTreeIsIsolatedFromStore(t *testing.T) {
	e, _, store := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))

	working := e.WorkingTree()
	require.NotNil(t, working)

	// Mutating the returned copy must not leak into the engine or the store
	working[0].Name = "mutated"
	fresh := e.WorkingTree()
	assert.Equal(t, "Docs", fresh[0].Name)
	storeTree, _ := store.Tree("t1")
	assert.Equal(t, "Docs", storeTree[0].Name)
}

func TestStageCreateFolder(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))

	tempID, err := e.StageCreateFolder("", "Results")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tempID, "tmp-"))

	// Nested under the staged folder via its temp id
	nestedID, err := e.StageCreateFolder(tempID, "Archive")
	require.NoError(t, err)

	working := e.WorkingTree()
	node, parent, _ := teams.FindNode(working, nestedID)
	require.NotNil(t, node)
	assert.Equal(t, tempID, parent.ID)

	folders, _ := e.Pending()
	require.Len(t, folders, 2)
	assert.Equal(t, "Results", folders[0].Name)
	assert.Equal(t, tempID, folders[1].ParentID)

	_, err = e.StageCreateFolder("ghost", "Nope")
	assert.ErrorIs(t, err, ErrUnknownParent)
	_, err = e.StageCreateFolder("r1", "Nope")
	assert.ErrorIs(t, err, ErrUnknownParent, "items cannot parent folders")
}

func TestStageCreateFolderRequiresStaging(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.StageCreateFolder("", "Results")
	assert.ErrorIs(t, err, ErrNotStaging)
}

func TestStageMoveAppliesSpeculatively(t *testing.T) {
	e, _, store := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))

	require.NoError(t, e.StageMove("r1", DropTarget{Kind: TargetFolder, NodeID: "docs"}))

	working := e.WorkingTree()
	_, parent, idx := teams.FindNode(working, "r1")
	require.NotNil(t, parent)
	assert.Equal(t, "docs", parent.ID)
	assert.Equal(t, 3, idx, "appended after the existing children")

	// Authoritative store untouched until commit
	storeTree, _ := store.Tree("t1")
	_, parent, _ = teams.FindNode(storeTree, "r1")
	assert.Nil(t, parent)

	_, moves := e.Pending()
	require.Len(t, moves, 1)
	assert.Equal(t, PendingMove{ItemID: "r1", TargetParentID: "docs", TargetIndex: 3}, moves[0])
}

func TestStageMoveRejectionsLeaveTreeUntouched(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))

	before := teams.CountNodes(e.WorkingTree())

	assert.ErrorIs(t, e.StageMove("docs", DropTarget{Kind: TargetFolder, NodeID: "sub"}), ErrCycle)
	assert.ErrorIs(t, e.StageMove("r1", DropTarget{Kind: TargetSibling, NodeID: "r1"}), ErrNoOp)
	assert.ErrorIs(t, e.StageMove("ghost", DropTarget{Kind: TargetRoot}), ErrUnknownNode)

	assert.Equal(t, before, teams.CountNodes(e.WorkingTree()))
	_, moves := e.Pending()
	assert.Empty(t, moves)
}

func TestEscapeToRootThenReenter(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))

	// First drop on the containing folder escapes to the root
	require.NoError(t, e.StageMove("d1", DropTarget{Kind: TargetFolder, NodeID: "docs"}))
	_, parent, idx := teams.FindNode(e.WorkingTree(), "d1")
	assert.Nil(t, parent)
	assert.Equal(t, 3, idx, "escaped to the end of the root")

	// d1 now lives at the root, so the same gesture moves it back inside
	require.NoError(t, e.StageMove("d1", DropTarget{Kind: TargetFolder, NodeID: "docs"}))
	_, parent, _ = teams.FindNode(e.WorkingTree(), "d1")
	require.NotNil(t, parent)
	assert.Equal(t, "docs", parent.ID)
}

func TestStaleDetectionAndInvalidate(t *testing.T) {
	e, _, store := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))
	assert.False(t, e.Stale())

	bumpStore(t, store)

	assert.True(t, e.Stale())
	assert.ErrorIs(t, e.StageMove("r1", DropTarget{Kind: TargetRoot}), ErrStale)
	_, err := e.StageCreateFolder("", "Late")
	assert.ErrorIs(t, err, ErrStale)

	e.Invalidate()
	assert.Equal(t, StateIdle, e.State())
	assert.Nil(t, e.WorkingTree())
}

func TestCancel(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))
	_, err := e.StageCreateFolder("", "Scratch")
	require.NoError(t, err)

	e.Cancel()
	assert.Equal(t, StateIdle, e.State())
	folders, moves := e.Pending()
	assert.Empty(t, folders)
	assert.Empty(t, moves)

	// Cancel when idle is harmless
	assert.NotPanics(t, e.Cancel)
}

func TestRootEscapeHint(t *testing.T) {
	singleFolder := []*teams.TreeNode{
		{ID: "only", Kind: teams.KindFolder, Name: "Everything",
			Children: []*teams.TreeNode{{ID: "x", Kind: teams.KindItem, ItemRef: "an-1"}}},
	}
	store := storeWithTeam(t, singleFolder)
	e := NewEngine(store, &fakeCommitClient{})

	assert.False(t, e.RootEscapeHint(), "idle engine gives no hint")
	require.NoError(t, e.Begin("t1"))
	assert.True(t, e.RootEscapeHint())

	// As soon as something else reaches the root the hint goes away
	require.NoError(t, e.StageMove("x", DropTarget{Kind: TargetFolder, NodeID: "only"}))
	assert.False(t, e.RootEscapeHint())
}

func TestCommitRemapsTempIDs(t *testing.T) {
	e, client, _ := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))

	outerID, err := e.StageCreateFolder("", "Results")
	require.NoError(t, err)
	innerID, err := e.StageCreateFolder(outerID, "Archive")
	require.NoError(t, err)
	require.NoError(t, e.StageMove("r1", DropTarget{Kind: TargetFolder, NodeID: outerID}))
	require.NoError(t, e.StageMove("d1", DropTarget{Kind: TargetFolder, NodeID: innerID}))

	result, err := e.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.FoldersCreated)
	assert.Equal(t, 2, result.MovesApplied)
	assert.Empty(t, result.FailedStep)
	assert.Equal(t, StateIdle, e.State())

	require.Len(t, client.creates, 2)
	assert.Equal(t, createCall{TeamID: "t1", Name: "Results", ParentID: ""}, client.creates[0])
	assert.Equal(t, "real-1", client.creates[1].ParentID, "nested folder references the real id of its parent")

	require.Len(t, client.moves, 2)
	assert.Equal(t, "real-1", client.moves[0].ParentID)
	assert.Equal(t, "real-2", client.moves[1].ParentID)
	assert.Equal(t, "r1", client.moves[0].ItemID, "real node ids pass through unmapped")
}

func TestCommitPartialFailureStands(t *testing.T) {
	e, client, _ := newTestEngine(t)
	client.failMove = 2

	require.NoError(t, e.Begin("t1"))
	_, err := e.StageCreateFolder("", "Results")
	require.NoError(t, err)
	require.NoError(t, e.StageMove("r1", DropTarget{Kind: TargetSibling, NodeID: "d1"}))
	require.NoError(t, e.StageMove("d2", DropTarget{Kind: TargetSibling, NodeID: "r2"}))

	result, err := e.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, result.FoldersCreated, "steps before the failure are not rolled back")
	assert.Equal(t, 1, result.MovesApplied)
	assert.NotEmpty(t, result.FailedStep)

	// The engine abandons the rest and returns to idle either way
	assert.Equal(t, StateIdle, e.State())
	assert.Len(t, client.moves, 2, "no moves attempted past the failing one")
}

func TestCommitFolderFailure(t *testing.T) {
	e, client, _ := newTestEngine(t)
	client.failCreate = 1

	require.NoError(t, e.Begin("t1"))
	_, err := e.StageCreateFolder("", "Results")
	require.NoError(t, err)
	require.NoError(t, e.StageMove("r1", DropTarget{Kind: TargetRoot}))

	result, err := e.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, result.FoldersCreated)
	assert.Equal(t, 0, result.MovesApplied, "moves never start once a folder fails")
	assert.Contains(t, result.FailedStep, "Results")
	assert.Empty(t, client.moves)
}

func TestCommitRejectedWhenStale(t *testing.T) {
	e, client, store := newTestEngine(t)
	require.NoError(t, e.Begin("t1"))
	require.NoError(t, e.StageMove("r1", DropTarget{Kind: TargetRoot}))

	bumpStore(t, store)

	_, err := e.Commit(context.Background())
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, StateIdle, e.State(), "a stale session is discarded, not retried")
	assert.Empty(t, client.creates)
	assert.Empty(t, client.moves)
}

func TestCommitRequiresStaging(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.Commit(context.Background())
	assert.ErrorIs(t, err, ErrNotStaging)
}

func TestBeginOnTeamWithoutFolders(t *testing.T) {
	store := storeWithTeam(t, nil)
	e := NewEngine(store, &fakeCommitClient{})

	// A brand-new team has no tree yet; reordering starts by staging
	// its first folder.
	require.NoError(t, e.Begin("t1"))
	assert.Empty(t, e.WorkingTree())

	tempID, err := e.StageCreateFolder("", "First")
	require.NoError(t, err)

	working := e.WorkingTree()
	require.Len(t, working, 1)
	assert.Equal(t, tempID, working[0].ID)
}
