package tree

// pendingEdit is a deep move prepared in full before anything live changes:
// the destination copy of the subtree and the originals to trim. apply links
// the copy in and trims the originals in one pass, so no observer ever sees
// the subtree missing from both places.
type pendingEdit struct {
	tree   *Tree
	source *Node
	clone  *Node
	parent *Node
	pos    int

	clones map[NodeID]NodeID // original handle -> clone handle
	trim   []*Node           // the original subtree, pre-order
}

func (t *Tree) planDeepMove(n, parent *Node, pos int) *pendingEdit {
	e := &pendingEdit{
		tree:   t,
		source: n,
		parent: parent,
		pos:    pos,
		clones: make(map[NodeID]NodeID),
	}
	e.clone = e.copyOf(n)
	for d := range n.descendants() {
		e.trim = append(e.trim, d)
	}
	return e
}

// copyOf clones src and records every original-to-clone pair.
func (e *pendingEdit) copyOf(src *Node) *Node {
	cp := e.tree.alloc(src.name, src.payload)
	cp.visible = src.visible
	e.clones[src.id] = cp.id
	for c := range src.Children() {
		cc := e.copyOf(c)
		cp.children = append(cp.children, cc.id)
		cc.parent = cp.id
	}
	return cp
}

// apply performs the edit and moves the captured expand state over to the
// clones. It returns the clone now at the destination.
func (e *pendingEdit) apply(vis VisibilityState) *Node {
	e.parent.AddChild(e.clone, e.pos)
	for _, n := range e.trim {
		n.markedForDeletion = true
	}
	from := e.source.Parent()
	e.tree.trimMarked(from)

	for orig, cp := range e.clones {
		vis.rename(orig, cp)
	}
	return e.clone
}

// trimMarked detaches and destroys every child of n marked for deletion.
// A marked child takes its marked subtree with it; unmarked subtrees are
// searched further down.
func (t *Tree) trimMarked(n *Node) int {
	if n == nil {
		return 0
	}
	freed := 0
	for _, c := range n.childNodes() {
		if c.markedForDeletion {
			n.RemoveChild(c)
			freed += t.destroy(c)
			continue
		}
		freed += t.trimMarked(c)
	}
	return freed
}
