package tree

// Path is the chain of handles from the root to a node, both ends included.
type Path []NodeID

// Last returns the handle the path leads to, or 0 for an empty path.
func (p Path) Last() NodeID {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// Surface is the widget that draws the tree. The engine talks to it only
// through these calls; everything else about rendering is its own business.
//
// After NotifyStructureChanged a surface is expected to treat every node under
// the given subtree as collapsed until ExpandPath says otherwise. Errors are
// returned to the engine's caller unchanged.
type Surface interface {
	// IsExpanded reports whether the node at the end of path is expanded.
	IsExpanded(path Path) bool

	// ExpandPath expands the node at the end of path and every ancestor.
	ExpandPath(path Path) error

	// NotifyStructureChanged tells the surface that everything under the
	// given node must be re-queried.
	NotifyStructureChanged(id NodeID) error

	// ScrollToAndSelect reveals and selects the given node.
	ScrollToAndSelect(id NodeID) error
}

func (t *Tree) notify(n *Node) error {
	if t.surface == nil {
		return nil
	}
	return t.surface.NotifyStructureChanged(n.id)
}

func (t *Tree) scrollTo(n *Node) error {
	if t.surface == nil {
		return nil
	}
	return t.surface.ScrollToAndSelect(n.id)
}
