package tree

// Structural mutations. Each operation checks all of its preconditions before
// touching the tree, so a rejected call leaves nothing half done. Errors from
// the surface are returned as-is once the structural change has been made.

// Add inserts the detached node n under parent at pos (-1 appends).
//
// Outside fast mode the parent must be reachable from the root, the current
// expand state is preserved, and the new node is scrolled into view.
func (t *Tree) Add(n, parent *Node, pos int) error {
	const op = "add"
	switch {
	case !t.owns(n):
		return opErr(op, n, ErrNodeNotFound)
	case !t.owns(parent):
		return opErr(op, n, ErrInvalidParent)
	case n == t.root || n.parent != 0 && n.Attached():
		return opErr(op, n, ErrDuplicateNode)
	case n.parent != 0:
		return opErr(op, n, ErrDetachedNode)
	case n == parent:
		return opErr(op, n, ErrSelfReferential)
	case IsAncestorOf(n, parent):
		return opErr(op, n, ErrCycleDetected)
	case !t.fast && !parent.Attached():
		return opErr(op, n, ErrInvalidParent)
	}

	t.log.Debug().Str("op", op).Str("node", n.name).Str("parent", parent.name).Int("pos", pos).Msg("tree edit")

	var vis VisibilityState
	if !t.fast {
		vis = t.Snapshot()
	}

	parent.AddChild(n, pos)
	n.visible = parent == t.root || parent.visible

	if err := t.notify(parent); err != nil {
		return err
	}
	if t.fast {
		return nil
	}

	// The new subtree was not part of the snapshot; keep whatever flags it
	// arrived with.
	for d := range n.descendants() {
		if d.visible {
			vis.add(d.id)
		}
	}
	if err := t.Restore(vis); err != nil {
		return err
	}
	return t.scrollTo(n)
}

// Remove takes n out of the tree. With saveChildren the children of n are
// first moved into n's slot under its parent, keeping their order and their
// own subtrees; otherwise the whole subtree is destroyed with n.
func (t *Tree) Remove(n *Node, saveChildren bool) error {
	const op = "remove"
	if !t.owns(n) {
		return opErr(op, n, ErrNodeNotFound)
	}
	if n == t.root {
		return opErr(op, n, ErrSelfReferential)
	}
	parent := n.Parent()
	if parent == nil {
		return opErr(op, n, ErrDetachedNode)
	}

	var vis VisibilityState
	if !t.fast {
		vis = t.Snapshot()
	}

	idx := parent.IndexOf(n)
	if saveChildren {
		for i, c := range n.childNodes() {
			parent.AddChild(c, idx+i)
		}
	}
	parent.RemoveChild(n)
	freed := t.destroy(n)

	t.log.Debug().Str("op", op).Str("node", n.name).Bool("save_children", saveChildren).Int("freed", freed).Msg("tree edit")

	if err := t.notify(parent); err != nil {
		return err
	}
	if t.fast {
		return nil
	}
	return t.Restore(vis)
}

// Move relocates n under newParent at pos and returns the node that now
// occupies the destination.
//
// A shallow move (moveChildren false) re-links n itself; its subtree travels
// with it and n is returned. A deep move (moveChildren true) materializes a
// clone of the subtree at the destination before the original is trimmed, and
// returns the clone. Either way the expand state of the moved nodes is kept.
//
// Moving a node under its current parent is a no-op.
func (t *Tree) Move(n, newParent *Node, moveChildren bool, pos int) (*Node, error) {
	const op = "move"
	switch {
	case !t.owns(n):
		return nil, opErr(op, n, ErrNodeNotFound)
	case !t.owns(newParent):
		return nil, opErr(op, n, ErrInvalidParent)
	case n == t.root, n == newParent:
		return nil, opErr(op, n, ErrSelfReferential)
	}
	oldParent := n.Parent()
	switch {
	case oldParent == nil:
		return nil, opErr(op, n, ErrDetachedNode)
	case IsAncestorOf(n, newParent):
		return nil, opErr(op, n, ErrCycleDetected)
	case !t.fast && !newParent.Attached():
		return nil, opErr(op, n, ErrInvalidParent)
	}
	if oldParent == newParent {
		return n, nil
	}

	t.log.Debug().Str("op", op).Str("node", n.name).Str("parent", newParent.name).Bool("deep", moveChildren).Int("pos", pos).Msg("tree edit")

	var vis VisibilityState
	if !t.fast {
		vis = t.Snapshot()
	}

	moved := n
	if moveChildren {
		edit := t.planDeepMove(n, newParent, pos)
		moved = edit.apply(vis)
	} else {
		newParent.AddChild(n, pos)
	}

	if err := t.notify(commonAncestor(oldParent, newParent)); err != nil {
		return moved, err
	}
	if t.fast {
		return moved, nil
	}
	return moved, t.Restore(vis)
}

// Replace puts repl, which must be a fresh childless node, in old's exact
// slot, hands it old's children in order, and destroys old. repl inherits
// old's expand state.
func (t *Tree) Replace(old, repl *Node) error {
	const op = "replace"
	switch {
	case !t.owns(old):
		return opErr(op, old, ErrNodeNotFound)
	case !t.owns(repl):
		return opErr(op, repl, ErrNodeNotFound)
	case old == t.root:
		return opErr(op, old, ErrSelfReferential)
	case repl == t.root, repl == old, repl.parent != 0 && repl.Attached():
		return opErr(op, repl, ErrDuplicateNode)
	case repl.parent != 0:
		return opErr(op, repl, ErrDetachedNode)
	case repl.ChildCount() > 0:
		return opErr(op, repl, ErrHasChildren)
	}
	parent := old.Parent()
	if parent == nil {
		return opErr(op, old, ErrDetachedNode)
	}
	if IsAncestorOf(repl, old) {
		return opErr(op, repl, ErrCycleDetected)
	}

	t.log.Debug().Str("op", op).Str("node", old.name).Str("replacement", repl.name).Msg("tree edit")

	var vis VisibilityState
	if !t.fast {
		vis = t.Snapshot()
	}

	idx := parent.IndexOf(old)
	parent.AddChild(repl, idx)
	repl.visible = old.visible
	for _, c := range old.childNodes() {
		repl.AddChild(c, -1)
	}
	parent.RemoveChild(old)
	oldID := old.id
	t.destroy(old)

	if err := t.notify(parent); err != nil {
		return err
	}
	if t.fast {
		return nil
	}
	vis.rename(oldID, repl.id)
	for d := range repl.descendants() {
		if d.visible {
			vis.add(d.id)
		}
	}
	return t.Restore(vis)
}

// Discard frees a node that was created with NewNode but never added, along
// with any detached children built under it.
func (t *Tree) Discard(n *Node) error {
	const op = "discard"
	switch {
	case !t.owns(n):
		return opErr(op, n, ErrNodeNotFound)
	case n == t.root:
		return opErr(op, n, ErrSelfReferential)
	case n.parent != 0:
		return opErr(op, n, ErrDuplicateNode)
	}
	t.destroy(n)
	return nil
}

// AddTo is Add with the parent looked up by name.
func (t *Tree) AddTo(n *Node, parentName string, pos int) error {
	parent, err := t.lookup("add", parentName)
	if err != nil {
		return err
	}
	return t.Add(n, parent, pos)
}

// RemoveNamed is Remove with the node looked up by name.
func (t *Tree) RemoveNamed(name string, saveChildren bool) error {
	n, err := t.lookup("remove", name)
	if err != nil {
		return err
	}
	return t.Remove(n, saveChildren)
}

// MoveNamed is Move with both nodes looked up by name.
func (t *Tree) MoveNamed(name, parentName string, moveChildren bool, pos int) (*Node, error) {
	n, err := t.lookup("move", name)
	if err != nil {
		return nil, err
	}
	parent, err := t.lookup("move", parentName)
	if err != nil {
		return nil, err
	}
	return t.Move(n, parent, moveChildren, pos)
}

func (t *Tree) lookup(op, name string) (*Node, error) {
	if n := t.FindByName(name); n != nil {
		return n, nil
	}
	return nil, &OpError{Op: op, Node: name, Err: ErrNodeNotFound}
}

// childNodes copies the children out so they can be re-linked while iterating.
func (n *Node) childNodes() []*Node {
	out := make([]*Node, 0, len(n.children))
	for c := range n.Children() {
		out = append(out, c)
	}
	return out
}
