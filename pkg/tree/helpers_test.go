package tree

import (
	"errors"
	"strings"
)

// fakeSurface mimics a tree widget: a node counts as expanded only when it
// and all its ancestors are, and a structure change collapses the subtree.
type fakeSurface struct {
	tree     *Tree
	expanded map[NodeID]bool
	notified []NodeID
	selected NodeID

	notifyErr error
	expandErr error
}

func newFakeSurface(t *Tree) *fakeSurface {
	s := &fakeSurface{tree: t, expanded: make(map[NodeID]bool)}
	t.SetSurface(s)
	return s
}

func (s *fakeSurface) IsExpanded(p Path) bool {
	if len(p) < 2 {
		return false
	}
	for _, id := range p[1:] {
		if !s.expanded[id] {
			return false
		}
	}
	return true
}

func (s *fakeSurface) ExpandPath(p Path) error {
	if s.expandErr != nil {
		return s.expandErr
	}
	for i, id := range p {
		if i == 0 {
			continue
		}
		s.expanded[id] = true
	}
	return nil
}

func (s *fakeSurface) NotifyStructureChanged(id NodeID) error {
	s.notified = append(s.notified, id)
	if s.notifyErr != nil {
		return s.notifyErr
	}
	n := s.tree.Node(id)
	if n == nil {
		return nil
	}
	for d := range n.descendants() {
		delete(s.expanded, d.id)
	}
	return nil
}

func (s *fakeSurface) ScrollToAndSelect(id NodeID) error {
	s.selected = id
	return nil
}

// expandedNames lists expanded attached nodes in pre-order.
func (s *fakeSurface) expandedNames() []string {
	var out []string
	for n := range s.tree.All() {
		if s.IsExpanded(n.Path()) {
			out = append(out, n.Name())
		}
	}
	return out
}

func (s *fakeSurface) expand(names ...string) {
	for _, name := range names {
		n := s.tree.FindByName(name)
		_ = s.ExpandPath(n.Path())
	}
}

// shape renders the attached tree as nested names, e.g. "A(B,C) D".
func shape(t *Tree) string {
	var parts []string
	for c := range t.Root().Children() {
		parts = append(parts, shapeOf(c))
	}
	return strings.Join(parts, " ")
}

func shapeOf(n *Node) string {
	if n.ChildCount() == 0 {
		return n.Name()
	}
	var kids []string
	for c := range n.Children() {
		kids = append(kids, shapeOf(c))
	}
	return n.Name() + "(" + strings.Join(kids, ",") + ")"
}

// build adds named nodes under parents; "" as parent means the root.
func build(t *Tree, pairs ...string) map[string]*Node {
	nodes := make(map[string]*Node)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, parentName := pairs[i], pairs[i+1]
		parent := t.Root()
		if parentName != "" {
			parent = nodes[parentName]
		}
		n := t.NewNode(name, nil)
		if err := t.Add(n, parent, -1); err != nil {
			panic(err)
		}
		nodes[name] = n
	}
	return nodes
}

var errSurface = errors.New("surface exploded")
