package reorder

import (
	"testing"

	"csd-runlab/modules/core/teams"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workingForest builds:
//
//	docs (folder)
//	  ├── d1 (item)
//	  ├── d2 (item)
//	  └── sub (folder)
//	        └── s1 (item)
//	r1 (item)
//	r2 (item)
func workingForest() []*teams.TreeNode {
	return []*teams.TreeNode{
		{
			ID: "docs", Kind: teams.KindFolder, Name: "Docs",
			Children: []*teams.TreeNode{
				{ID: "d1", Kind: teams.KindItem, ItemRef: "an-1"},
				{ID: "d2", Kind: teams.KindItem, ItemRef: "an-2"},
				{
					ID: "sub", Kind: teams.KindFolder, Name: "Sub",
					Children: []*teams.TreeNode{
						{ID: "s1", Kind: teams.KindItem, ItemRef: "an-3"},
					},
				},
			},
		},
		{ID: "r1", Kind: teams.KindItem, ItemRef: "an-4"},
		{ID: "r2", Kind: teams.KindItem, ItemRef: "an-5"},
	}
}

func TestResolveMoveRejections(t *testing.T) {
	forest := workingForest()

	tests := []struct {
		name   string
		nodeID string
		target DropTarget
		want   error
	}{
		{"unknown node", "ghost", DropTarget{Kind: TargetRoot}, ErrUnknownNode},
		{"item dropped on itself", "r1", DropTarget{Kind: TargetSibling, NodeID: "r1"}, ErrNoOp},
		{"folder dropped on itself", "docs", DropTarget{Kind: TargetFolder, NodeID: "docs"}, ErrCycle},
		{"folder into direct child", "docs", DropTarget{Kind: TargetFolder, NodeID: "sub"}, ErrCycle},
		{"folder onto nested descendant", "docs", DropTarget{Kind: TargetSibling, NodeID: "s1"}, ErrCycle},
		{"unknown folder target", "r1", DropTarget{Kind: TargetFolder, NodeID: "ghost"}, ErrUnknownParent},
		{"item as folder target", "r1", DropTarget{Kind: TargetFolder, NodeID: "r2"}, ErrUnknownParent},
		{"unknown sibling target", "r1", DropTarget{Kind: TargetSibling, NodeID: "ghost"}, ErrUnknownNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveMove(forest, tt.nodeID, tt.target)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolveMoveIntoFolderAppends(t *testing.T) {
	forest := workingForest()

	move, err := resolveMove(forest, "r1", DropTarget{Kind: TargetFolder, NodeID: "docs"})
	require.NoError(t, err)
	assert.Equal(t, "docs", move.TargetParentID)
	assert.Equal(t, 3, move.TargetIndex, "folder drops land after the existing children")
}

func TestResolveMoveEscapeToRoot(t *testing.T) {
	forest := workingForest()

	// Dropping into the folder the node already lives in escapes it to the
	// root rather than re-inserting it in place
	move, err := resolveMove(forest, "d1", DropTarget{Kind: TargetFolder, NodeID: "docs"})
	require.NoError(t, err)
	assert.Empty(t, move.TargetParentID)
	assert.Equal(t, len(forest), move.TargetIndex)
}

func TestResolveMoveOnSibling(t *testing.T) {
	t.Run("backward within same parent", func(t *testing.T) {
		forest := workingForest()
		move, err := resolveMove(forest, "d2", DropTarget{Kind: TargetSibling, NodeID: "d1"})
		require.NoError(t, err)
		assert.Equal(t, "docs", move.TargetParentID)
		assert.Equal(t, 0, move.TargetIndex)
	})

	t.Run("forward within same parent shifts down", func(t *testing.T) {
		forest := workingForest()
		// d1 detaches from index 0, so sub's slot shifts from 2 to 1
		move, err := resolveMove(forest, "d1", DropTarget{Kind: TargetSibling, NodeID: "sub"})
		require.NoError(t, err)
		assert.Equal(t, 1, move.TargetIndex)
	})

	t.Run("forward onto immediate neighbor is a no-op", func(t *testing.T) {
		forest := workingForest()
		_, err := resolveMove(forest, "d1", DropTarget{Kind: TargetSibling, NodeID: "d2"})
		assert.ErrorIs(t, err, ErrNoOp)
	})

	t.Run("across parents keeps the sibling index", func(t *testing.T) {
		forest := workingForest()
		move, err := resolveMove(forest, "r1", DropTarget{Kind: TargetSibling, NodeID: "d2"})
		require.NoError(t, err)
		assert.Equal(t, "docs", move.TargetParentID)
		assert.Equal(t, 1, move.TargetIndex)
	})

	t.Run("onto a root sibling", func(t *testing.T) {
		forest := workingForest()
		move, err := resolveMove(forest, "s1", DropTarget{Kind: TargetSibling, NodeID: "r2"})
		require.NoError(t, err)
		assert.Empty(t, move.TargetParentID)
		assert.Equal(t, 2, move.TargetIndex)
	})
}

func TestResolveMoveToRootZone(t *testing.T) {
	t.Run("from inside a folder", func(t *testing.T) {
		forest := workingForest()
		move, err := resolveMove(forest, "s1", DropTarget{Kind: TargetRoot})
		require.NoError(t, err)
		assert.Empty(t, move.TargetParentID)
		assert.Equal(t, 3, move.TargetIndex)
	})

	t.Run("already last at root is a no-op", func(t *testing.T) {
		forest := workingForest()
		_, err := resolveMove(forest, "r2", DropTarget{Kind: TargetRoot})
		assert.ErrorIs(t, err, ErrNoOp)
	})

	t.Run("root node moves to the end", func(t *testing.T) {
		forest := workingForest()
		move, err := resolveMove(forest, "r1", DropTarget{Kind: TargetRoot})
		require.NoError(t, err)
		// r1's own slot disappears on detach, so the end is len-1
		assert.Equal(t, 2, move.TargetIndex)
	})
}
