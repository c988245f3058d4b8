package reorder

import (
	"time"
)

// Point is a pointer position in screen cells
type Point struct {
	X, Y int
}

// Rect is a screen-space bounding box
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether the point falls inside the rect
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

func (r Rect) center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Row is one rendered tree row the hit tester can resolve against
type Row struct {
	NodeID   string
	IsFolder bool
	Bounds   Rect
}

// ResolveTarget maps a pointer position to a drop target. Folder rows and
// sibling rows overlap in screen space, so a single strategy produces
// ambiguous drops; the resolution order is fixed:
//
//  1. a folder under the pointer (hovering a folder always offers
//     "drop inside")
//  2. a non-folder row under the pointer (precise reordering)
//  3. the root drop-zone, but only while a reorder session is active
//  4. the row whose center is nearest the pointer
//
// Returns false only when there is nothing at all to resolve against.
func ResolveTarget(rows []Row, rootZone *Rect, p Point, staging bool) (DropTarget, bool) {
	for _, row := range rows {
		if row.IsFolder && row.Bounds.Contains(p) {
			return DropTarget{Kind: TargetFolder, NodeID: row.NodeID}, true
		}
	}

	for _, row := range rows {
		if !row.IsFolder && row.Bounds.Contains(p) {
			return DropTarget{Kind: TargetSibling, NodeID: row.NodeID}, true
		}
	}

	if staging && rootZone != nil && rootZone.Contains(p) {
		return DropTarget{Kind: TargetRoot}, true
	}

	best := -1
	bestDist := 0
	for i, row := range rows {
		c := row.Bounds.center()
		dx := c.X - p.X
		dy := c.Y - p.Y
		// Terminal cells are roughly twice as tall as wide; weight rows so
		// vertical distance dominates
		dist := dx*dx + 4*dy*dy
		if best == -1 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best == -1 {
		return DropTarget{}, false
	}

	row := rows[best]
	kind := TargetSibling
	if row.IsFolder {
		kind = TargetFolder
	}
	return DropTarget{Kind: kind, NodeID: row.NodeID}, true
}

// HoverExpander auto-expands a collapsed folder after the pointer has
// lingered over it. A quick pass-through must not fire, so the timer resets
// whenever the hovered folder changes.
type HoverExpander struct {
	delay   time.Duration
	current string
	since   time.Time
	fired   bool
}

// NewHoverExpander creates a tracker with the given linger delay
func NewHoverExpander(delay time.Duration) *HoverExpander {
	if delay <= 0 {
		delay = 400 * time.Millisecond
	}
	return &HoverExpander{delay: delay}
}

// Observe records the folder currently under the pointer ("" for none) and
// returns the id of a folder that should expand now, or ""
func (h *HoverExpander) Observe(folderID string, now time.Time) string {
	if folderID == "" {
		h.current = ""
		h.fired = false
		return ""
	}

	if folderID != h.current {
		h.current = folderID
		h.since = now
		h.fired = false
		return ""
	}

	if !h.fired && now.Sub(h.since) >= h.delay {
		h.fired = true
		return folderID
	}
	return ""
}

// Reset clears any tracked hover state
func (h *HoverExpander) Reset() {
	h.current = ""
	h.fired = false
}
