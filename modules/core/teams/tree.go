package teams

// Tree helpers shared by the store and the reorder engine. All functions
// treat a forest ([]*TreeNode) as the unit of work and never retain
// references into their inputs unless documented.

// CloneForest returns a deep copy of a forest
func CloneForest(forest []*TreeNode) []*TreeNode {
	if forest == nil {
		return nil
	}
	out := make([]*TreeNode, len(forest))
	for i, n := range forest {
		out[i] = CloneNode(n)
	}
	return out
}

// CloneNode returns a deep copy of a node and its subtree
func CloneNode(n *TreeNode) *TreeNode {
	if n == nil {
		return nil
	}
	c := &TreeNode{
		ID:      n.ID,
		Kind:    n.Kind,
		Name:    n.Name,
		ItemRef: n.ItemRef,
	}
	if len(n.Children) > 0 {
		c.Children = make([]*TreeNode, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = CloneNode(child)
		}
	}
	return c
}

// FindNode locates a node by id. Returns the node, its parent (nil at root)
// and its index within its sibling list, or (nil, nil, -1) if absent.
func FindNode(forest []*TreeNode, id string) (node, parent *TreeNode, index int) {
	return findIn(forest, nil, id)
}

func findIn(siblings []*TreeNode, parent *TreeNode, id string) (*TreeNode, *TreeNode, int) {
	for i, n := range siblings {
		if n.ID == id {
			return n, parent, i
		}
		if len(n.Children) > 0 {
			if node, p, idx := findIn(n.Children, n, id); node != nil {
				return node, p, idx
			}
		}
	}
	return nil, nil, -1
}

// IsDescendant reports whether candidate is within ancestor's subtree
// (ancestor itself excluded)
func IsDescendant(ancestor *TreeNode, candidateID string) bool {
	if ancestor == nil {
		return false
	}
	for _, child := range ancestor.Children {
		if child.ID == candidateID {
			return true
		}
		if IsDescendant(child, candidateID) {
			return true
		}
	}
	return false
}

// Detach removes the node with the given id from the forest and returns the
// modified forest plus the removed node. The forest slices are modified in
// place where possible.
func Detach(forest []*TreeNode, id string) ([]*TreeNode, *TreeNode) {
	for i, n := range forest {
		if n.ID == id {
			return append(forest[:i], forest[i+1:]...), n
		}
	}
	for _, n := range forest {
		if len(n.Children) > 0 {
			children, removed := Detach(n.Children, id)
			if removed != nil {
				n.Children = children
				return forest, removed
			}
		}
	}
	return forest, nil
}

// InsertAt places node under parentID (or at the forest root when parentID is
// empty) at the given index, clamped to the valid range. Returns the modified
// forest and false if the parent does not exist or is not a folder.
func InsertAt(forest []*TreeNode, parentID string, index int, node *TreeNode) ([]*TreeNode, bool) {
	if parentID == "" {
		return insertSlice(forest, index, node), true
	}

	target, _, _ := FindNode(forest, parentID)
	if target == nil || !target.IsFolder() {
		return forest, false
	}
	target.Children = insertSlice(target.Children, index, node)
	return forest, true
}

func insertSlice(siblings []*TreeNode, index int, node *TreeNode) []*TreeNode {
	if index < 0 {
		index = 0
	}
	if index > len(siblings) {
		index = len(siblings)
	}
	siblings = append(siblings, nil)
	copy(siblings[index+1:], siblings[index:])
	siblings[index] = node
	return siblings
}

// CountNodes returns the number of nodes in the forest
func CountNodes(forest []*TreeNode) int {
	count := 0
	for _, n := range forest {
		count++
		count += CountNodes(n.Children)
	}
	return count
}

// CollectItemRefs returns the analysis ids referenced anywhere in the forest
func CollectItemRefs(forest []*TreeNode) []string {
	var refs []string
	for _, n := range forest {
		if n.Kind == KindItem && n.ItemRef != "" {
			refs = append(refs, n.ItemRef)
		}
		refs = append(refs, CollectItemRefs(n.Children)...)
	}
	return refs
}
