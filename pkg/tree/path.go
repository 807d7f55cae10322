package tree

import (
	"reflect"
	"slices"
	"strings"
)

// FindByName returns the first attached node, in pre-order, whose name
// matches name ignoring case. The root is never returned.
func (t *Tree) FindByName(name string) *Node {
	for n := range t.All() {
		if strings.EqualFold(n.name, name) {
			return n
		}
	}
	return nil
}

// FindByPayload returns the first attached node, in pre-order, whose payload
// is identical to p. Pointers, maps, slices, channels and funcs match by
// reference; other comparable values match by ==.
func (t *Tree) FindByPayload(p any) *Node {
	if p == nil {
		return nil
	}
	for n := range t.All() {
		if samePayload(n.payload, p) {
			return n
		}
	}
	return nil
}

func samePayload(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if va.Kind() == reflect.Slice && va.Len() != vb.Len() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	}
	if !va.Comparable() {
		return false
	}
	return a == b
}

// PathTo returns the nodes from the root down to n, both included. For a
// detached node the chain ends at the top of its detached subtree.
func (t *Tree) PathTo(n *Node) []*Node {
	if !t.owns(n) {
		return nil
	}
	var chain []*Node
	for cur := n; cur != nil; cur = cur.Parent() {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Path returns the handles from the root down to n.
func (n *Node) Path() Path {
	if n.tree == nil {
		return nil
	}
	nodes := n.tree.PathTo(n)
	p := make(Path, len(nodes))
	for i, x := range nodes {
		p[i] = x.id
	}
	return p
}

// NamePath returns the "/"-joined names from the top level down to n. It is
// empty for the root.
func (n *Node) NamePath() string {
	var parts []string
	for cur := n; cur != nil && !cur.IsRoot(); cur = cur.Parent() {
		parts = append(parts, cur.name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// IsAncestorOf reports whether a is a proper ancestor of b.
func IsAncestorOf(a, b *Node) bool {
	if a == nil || b == nil || a.tree == nil || a.tree != b.tree {
		return false
	}
	for p := b.Parent(); p != nil; p = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}

// IsDescendantOf reports whether a lies strictly below b.
func IsDescendantOf(a, b *Node) bool {
	return IsAncestorOf(b, a)
}

// commonAncestor returns the deepest node that has both a and b in its
// subtree (either may be the answer itself).
func commonAncestor(a, b *Node) *Node {
	seen := make(map[NodeID]bool)
	for cur := a; cur != nil; cur = cur.Parent() {
		seen[cur.id] = true
	}
	for cur := b; cur != nil; cur = cur.Parent() {
		if seen[cur.id] {
			return cur
		}
	}
	return a.tree.root
}
