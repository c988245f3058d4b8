package reorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRows() []Row {
	return []Row{
		{NodeID: "docs", IsFolder: true, Bounds: Rect{X: 0, Y: 0, Width: 40, Height: 1}},
		{NodeID: "d1", Bounds: Rect{X: 0, Y: 1, Width: 40, Height: 1}},
		{NodeID: "d2", Bounds: Rect{X: 0, Y: 2, Width: 40, Height: 1}},
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 5, Y: 2, Width: 10, Height: 3}

	assert.True(t, r.Contains(Point{X: 5, Y: 2}))
	assert.True(t, r.Contains(Point{X: 14, Y: 4}))
	assert.False(t, r.Contains(Point{X: 15, Y: 2}), "right edge is exclusive")
	assert.False(t, r.Contains(Point{X: 5, Y: 5}), "bottom edge is exclusive")
	assert.False(t, r.Contains(Point{X: 4, Y: 3}))
}

func TestResolveTargetPriority(t *testing.T) {
	rows := testRows()
	rootZone := &Rect{X: 0, Y: 4, Width: 40, Height: 1}

	t.Run("folder row wins", func(t *testing.T) {
		target, ok := ResolveTarget(rows, rootZone, Point{X: 3, Y: 0}, true)
		require.True(t, ok)
		assert.Equal(t, TargetFolder, target.Kind)
		assert.Equal(t, "docs", target.NodeID)
	})

	t.Run("item row resolves to sibling", func(t *testing.T) {
		target, ok := ResolveTarget(rows, rootZone, Point{X: 3, Y: 2}, true)
		require.True(t, ok)
		assert.Equal(t, TargetSibling, target.Kind)
		assert.Equal(t, "d2", target.NodeID)
	})

	t.Run("root zone while staging", func(t *testing.T) {
		target, ok := ResolveTarget(rows, rootZone, Point{X: 3, Y: 4}, true)
		require.True(t, ok)
		assert.Equal(t, TargetRoot, target.Kind)
	})

	t.Run("root zone inactive outside staging", func(t *testing.T) {
		// Falls through to nearest-row resolution instead
		target, ok := ResolveTarget(rows, rootZone, Point{X: 3, Y: 4}, false)
		require.True(t, ok)
		assert.NotEqual(t, TargetRoot, target.Kind)
		assert.Equal(t, "d2", target.NodeID)
	})
}

func TestResolveTargetNearestFallback(t *testing.T) {
	rows := testRows()

	// Pointer below every row and the (absent) root zone: snap to the nearest
	// row center, which is the last row
	target, ok := ResolveTarget(rows, nil, Point{X: 20, Y: 10}, true)
	require.True(t, ok)
	assert.Equal(t, "d2", target.NodeID)

	// Nearest resolution reports folders as folder drops
	target, ok = ResolveTarget(rows[:1], nil, Point{X: 100, Y: 100}, true)
	require.True(t, ok)
	assert.Equal(t, TargetFolder, target.Kind)

	_, ok = ResolveTarget(nil, nil, Point{}, true)
	assert.False(t, ok)
}

func TestHoverExpanderFiresAfterLinger(t *testing.T) {
	h := NewHoverExpander(100 * time.Millisecond)
	base := time.Now()

	assert.Empty(t, h.Observe("docs", base), "first sight starts the timer")
	assert.Empty(t, h.Observe("docs", base.Add(50*time.Millisecond)), "not lingered yet")
	assert.Equal(t, "docs", h.Observe("docs", base.Add(120*time.Millisecond)))
	assert.Empty(t, h.Observe("docs", base.Add(500*time.Millisecond)), "fires once per hover")
}

func TestHoverExpanderResetsOnFolderChange(t *testing.T) {
	h := NewHoverExpander(100 * time.Millisecond)
	base := time.Now()

	h.Observe("docs", base)
	// Pointer slides to another folder just before the deadline
	assert.Empty(t, h.Observe("sub", base.Add(90*time.Millisecond)))
	assert.Empty(t, h.Observe("sub", base.Add(150*time.Millisecond)), "timer restarted")
	assert.Equal(t, "sub", h.Observe("sub", base.Add(200*time.Millisecond)))
}

func TestHoverExpanderClearsOnLeave(t *testing.T) {
	h := NewHoverExpander(100 * time.Millisecond)
	base := time.Now()

	h.Observe("docs", base)
	assert.Empty(t, h.Observe("", base.Add(50*time.Millisecond)))
	// Re-entering the same folder starts over
	assert.Empty(t, h.Observe("docs", base.Add(60*time.Millisecond)))
	assert.Equal(t, "docs", h.Observe("docs", base.Add(170*time.Millisecond)))
}

func TestHoverExpanderDefaultDelay(t *testing.T) {
	h := NewHoverExpander(0)
	base := time.Now()

	h.Observe("docs", base)
	assert.Empty(t, h.Observe("docs", base.Add(200*time.Millisecond)))
	assert.Equal(t, "docs", h.Observe("docs", base.Add(450*time.Millisecond)))
}
