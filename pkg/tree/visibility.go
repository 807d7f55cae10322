package tree

// VisibilityState is the set of nodes that were expanded when it was
// captured. Nodes are matched by handle, so a state captured before an edit
// still applies after the nodes have changed position or parent.
type VisibilityState struct {
	expanded map[NodeID]struct{}
}

func newVisibilityState() VisibilityState {
	return VisibilityState{expanded: make(map[NodeID]struct{})}
}

// Contains reports whether n was expanded.
func (s VisibilityState) Contains(n *Node) bool {
	if n == nil || s.expanded == nil {
		return false
	}
	_, ok := s.expanded[n.id]
	return ok
}

// Len returns the number of expanded nodes captured.
func (s VisibilityState) Len() int {
	return len(s.expanded)
}

// IDs returns the captured handles in no particular order.
func (s VisibilityState) IDs() []NodeID {
	ids := make([]NodeID, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	return ids
}

func (s VisibilityState) add(id NodeID) {
	if s.expanded != nil {
		s.expanded[id] = struct{}{}
	}
}

func (s VisibilityState) drop(id NodeID) {
	delete(s.expanded, id)
}

// rename carries the entry for from over to to, if there is one.
func (s VisibilityState) rename(from, to NodeID) {
	if _, ok := s.expanded[from]; ok {
		delete(s.expanded, from)
		s.expanded[to] = struct{}{}
	}
}

// Snapshot asks the surface which attached nodes are expanded, records the
// answer on each node and returns it. Without a surface the nodes' current
// flags are returned unchanged.
func (t *Tree) Snapshot() VisibilityState {
	s := newVisibilityState()
	for n := range t.All() {
		if t.surface != nil {
			n.visible = t.surface.IsExpanded(n.Path())
		}
		if n.visible {
			s.add(n.id)
		}
	}
	return s
}

// Restore re-expands every node captured in s that is still attached and
// writes the flags to match. Order does not matter: expanding a node expands
// its ancestors too.
func (t *Tree) Restore(s VisibilityState) error {
	var expand []*Node
	for n := range t.All() {
		n.visible = s.Contains(n)
		if n.visible {
			expand = append(expand, n)
		}
	}
	if t.surface == nil {
		return nil
	}
	for _, n := range expand {
		if err := t.surface.ExpandPath(n.Path()); err != nil {
			return err
		}
	}
	return nil
}

// RefreshVisibility tells the surface the whole tree changed and re-expands
// every node whose flag is set. It is the manual step after a batch of
// fast-mode edits.
func (t *Tree) RefreshVisibility() error {
	s := newVisibilityState()
	for n := range t.All() {
		if n.visible {
			s.add(n.id)
		}
	}
	if err := t.notify(t.root); err != nil {
		return err
	}
	return t.Restore(s)
}

// SetVisible sets a node's flag directly. It is used when building a tree in
// fast mode before RefreshVisibility.
func (n *Node) SetVisible(v bool) {
	n.visible = v
}
