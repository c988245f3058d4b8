package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleForest builds:
//
//	alpha (folder)
//	  ├── a1 (item -> an-1)
//	  └── beta (folder)
//	        └── b1 (item -> an-2)
//	r1 (item -> an-3)
func sampleForest() []*TreeNode {
	return []*TreeNode{
		{
			ID: "alpha", Kind: KindFolder, Name: "Alpha",
			Children: []*TreeNode{
				{ID: "a1", Kind: KindItem, ItemRef: "an-1"},
				{
					ID: "beta", Kind: KindFolder, Name: "Beta",
					Children: []*TreeNode{
						{ID: "b1", Kind: KindItem, ItemRef: "an-2"},
					},
				},
			},
		},
		{ID: "r1", Kind: KindItem, ItemRef: "an-3"},
	}
}

func TestFindNode(t *testing.T) {
	forest := sampleForest()

	node, parent, idx := FindNode(forest, "b1")
	require.NotNil(t, node)
	assert.Equal(t, "b1", node.ID)
	require.NotNil(t, parent)
	assert.Equal(t, "beta", parent.ID)
	assert.Equal(t, 0, idx)

	node, parent, idx = FindNode(forest, "r1")
	require.NotNil(t, node)
	assert.Nil(t, parent)
	assert.Equal(t, 1, idx)

	node, parent, idx = FindNode(forest, "nope")
	assert.Nil(t, node)
	assert.Nil(t, parent)
	assert.Equal(t, -1, idx)
}

func TestIsDescendant(t *testing.T) {
	forest := sampleForest()
	alpha, _, _ := FindNode(forest, "alpha")

	assert.True(t, IsDescendant(alpha, "a1"))
	assert.True(t, IsDescendant(alpha, "b1"), "transitive descendants count")
	assert.False(t, IsDescendant(alpha, "alpha"), "a node is not its own descendant")
	assert.False(t, IsDescendant(alpha, "r1"))
	assert.False(t, IsDescendant(nil, "a1"))
}

func TestDetach(t *testing.T) {
	forest := sampleForest()

	forest, removed := Detach(forest, "beta")
	require.NotNil(t, removed)
	assert.Equal(t, "beta", removed.ID)
	assert.Len(t, removed.Children, 1, "subtree travels with the detached node")

	node, _, _ := FindNode(forest, "beta")
	assert.Nil(t, node)
	node, _, _ = FindNode(forest, "b1")
	assert.Nil(t, node, "descendants leave with their ancestor")

	forest, removed = Detach(forest, "missing")
	assert.Nil(t, removed)
	assert.Equal(t, 3, CountNodes(forest), "failed detach leaves the forest alone")
}

func TestInsertAt(t *testing.T) {
	forest := sampleForest()
	node := &TreeNode{ID: "new", Kind: KindItem, ItemRef: "an-9"}

	t.Run("into folder", func(t *testing.T) {
		out, ok := InsertAt(sampleForest(), "beta", 0, node)
		require.True(t, ok)
		beta, _, _ := FindNode(out, "beta")
		require.Len(t, beta.Children, 2)
		assert.Equal(t, "new", beta.Children[0].ID)
	})

	t.Run("at root", func(t *testing.T) {
		out, ok := InsertAt(sampleForest(), "", 1, node)
		require.True(t, ok)
		assert.Equal(t, "new", out[1].ID)
	})

	t.Run("index clamped", func(t *testing.T) {
		out, ok := InsertAt(sampleForest(), "", 99, node)
		require.True(t, ok)
		assert.Equal(t, "new", out[len(out)-1].ID)

		out, ok = InsertAt(sampleForest(), "", -5, node)
		require.True(t, ok)
		assert.Equal(t, "new", out[0].ID)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, ok := InsertAt(forest, "missing", 0, node)
		assert.False(t, ok)
	})

	t.Run("item is not a valid parent", func(t *testing.T) {
		_, ok := InsertAt(forest, "r1", 0, node)
		assert.False(t, ok)
	})
}

func TestCloneForestIsDeep(t *testing.T) {
	forest := sampleForest()
	clone := CloneForest(forest)

	clone[0].Name = "changed"
	clone[0].Children[0].ItemRef = "changed"
	clone[0].Children = append(clone[0].Children, &TreeNode{ID: "extra", Kind: KindItem})

	assert.Equal(t, "Alpha", forest[0].Name)
	assert.Equal(t, "an-1", forest[0].Children[0].ItemRef)
	assert.Len(t, forest[0].Children, 2)

	assert.Nil(t, CloneForest(nil))
}

func TestCountNodes(t *testing.T) {
	assert.Equal(t, 5, CountNodes(sampleForest()))
	assert.Equal(t, 0, CountNodes(nil))
}

func TestCollectItemRefs(t *testing.T) {
	refs := CollectItemRefs(sampleForest())
	assert.ElementsMatch(t, []string{"an-1", "an-2", "an-3"}, refs)
}
