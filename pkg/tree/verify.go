package tree

import "fmt"

// Verify checks every structural invariant of the tree and returns an error
// wrapping ErrCorrupt for the first one that does not hold.
func (t *Tree) Verify() error {
	if t.root == nil || t.nodes[RootID] != t.root {
		return fmt.Errorf("%w: root missing from arena", ErrCorrupt)
	}
	if t.root.parent != 0 {
		return fmt.Errorf("%w: root has parent %d", ErrCorrupt, t.root.parent)
	}

	member := make(map[NodeID]NodeID, len(t.nodes))
	for id, n := range t.nodes {
		if n.id != id || n.tree != t {
			return fmt.Errorf("%w: node %d is registered under %d", ErrCorrupt, n.id, id)
		}
		if n.markedForDeletion {
			return fmt.Errorf("%w: node %q still marked for deletion", ErrCorrupt, n.name)
		}
		for _, cid := range n.children {
			c, ok := t.nodes[cid]
			if !ok {
				return fmt.Errorf("%w: node %q lists missing child %d", ErrCorrupt, n.name, cid)
			}
			if c.parent != id {
				return fmt.Errorf("%w: child %q of %q points at parent %d", ErrCorrupt, c.name, n.name, c.parent)
			}
			if prev, dup := member[cid]; dup {
				return fmt.Errorf("%w: node %q is a child of both %d and %d", ErrCorrupt, c.name, prev, id)
			}
			member[cid] = id
		}
	}

	for id, n := range t.nodes {
		if n.parent != 0 && member[id] != n.parent {
			return fmt.Errorf("%w: node %q is missing from its parent's children", ErrCorrupt, n.name)
		}
		steps := 0
		for p := n.Parent(); p != nil; p = p.Parent() {
			if steps++; steps > len(t.nodes) {
				return fmt.Errorf("%w: cycle through node %q", ErrCorrupt, n.name)
			}
		}
	}

	for n := range t.All() {
		if n.parent == 0 {
			return fmt.Errorf("%w: attached node %q has no parent", ErrCorrupt, n.name)
		}
	}
	return nil
}
