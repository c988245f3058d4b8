package reorder

import (
	"csd-runlab/modules/core/teams"
)

// TargetKind classifies what a drop resolved to
type TargetKind string

const (
	// TargetFolder drops into a folder (or, when the folder is the dragged
	// node's current parent, escapes to the root)
	TargetFolder TargetKind = "folder"
	// TargetSibling inserts at a sibling's position
	TargetSibling TargetKind = "sibling"
	// TargetRoot drops onto the dedicated root drop-zone
	TargetRoot TargetKind = "root"
)

// DropTarget is the resolved destination of a drag gesture
type DropTarget struct {
	Kind   TargetKind
	NodeID string // folder or sibling id; unused for TargetRoot
}

// resolveMove turns a drop into a concrete PendingMove against the working
// tree, or rejects it. Rejections never mutate the tree.
//
// Rules, in priority order:
//  1. self-drops and folder-into-own-subtree drops are rejected
//  2. dropping into the folder that already contains the node escapes it to
//     the root (there is no other direct gesture for leaving a folder)
//  3. dropping into any other folder appends to that folder's children
//  4. dropping on a sibling inserts at the sibling's index, shifted down by
//     one when reordering forward within the same parent (removal shifts
//     later indices down)
//  5. the root drop-zone appends at the end of the root
func resolveMove(working []*teams.TreeNode, nodeID string, target DropTarget) (PendingMove, error) {
	node, parent, srcIdx := teams.FindNode(working, nodeID)
	if node == nil {
		return PendingMove{}, ErrUnknownNode
	}

	if target.Kind != TargetRoot {
		if target.NodeID == nodeID {
			if node.IsFolder() {
				return PendingMove{}, ErrCycle
			}
			return PendingMove{}, ErrNoOp
		}
		if node.IsFolder() && teams.IsDescendant(node, target.NodeID) {
			return PendingMove{}, ErrCycle
		}
	}

	switch target.Kind {
	case TargetFolder:
		// Escape to root: the drop landed in the folder the node already
		// lives in. This outranks ordinary folder insertion.
		if parent != nil && parent.ID == target.NodeID {
			return PendingMove{
				ItemID:      nodeID,
				TargetIndex: len(working),
			}, nil
		}

		folder, _, _ := teams.FindNode(working, target.NodeID)
		if folder == nil || !folder.IsFolder() {
			return PendingMove{}, ErrUnknownParent
		}
		return PendingMove{
			ItemID:         nodeID,
			TargetParentID: folder.ID,
			TargetIndex:    len(folder.Children),
		}, nil

	case TargetSibling:
		sibling, sibParent, sibIdx := teams.FindNode(working, target.NodeID)
		if sibling == nil {
			return PendingMove{}, ErrUnknownNode
		}

		index := sibIdx
		sameParent := sibParent == parent || (sibParent != nil && parent != nil && sibParent.ID == parent.ID)
		if sameParent && srcIdx < sibIdx {
			index--
		}
		if sameParent && index == srcIdx {
			return PendingMove{}, ErrNoOp
		}

		move := PendingMove{ItemID: nodeID, TargetIndex: index}
		if sibParent != nil {
			move.TargetParentID = sibParent.ID
		}
		return move, nil

	case TargetRoot:
		rootLen := len(working)
		if parent == nil {
			rootLen-- // the node's own slot disappears on detach
			if srcIdx == rootLen {
				return PendingMove{}, ErrNoOp
			}
		}
		return PendingMove{ItemID: nodeID, TargetIndex: rootLen}, nil
	}

	return PendingMove{}, ErrUnknownNode
}
