package tree

import "iter"

// NodeID is a stable handle for a node within a Tree. Zero means "no node".
type NodeID uint64

// RootID is the handle of the hidden root of every tree.
const RootID NodeID = 1

// Node is a vertex in the hierarchy. Structure is stored as handles into the
// owning tree's arena rather than as pointers, so a destroyed or cloned node
// can never leave a dangling back-reference.
type Node struct {
	id   NodeID
	tree *Tree // owning arena, nil once the node has been destroyed

	name    string
	payload any

	parent   NodeID   // 0 for the root and for detached nodes
	children []NodeID // owned, in insertion order

	// visible is true when the node's subtree is expanded in the surface.
	// Written by Snapshot/Restore, read by the engine.
	visible bool

	// markedForDeletion is only set while a deep move is being applied.
	markedForDeletion bool
}

// ID returns the node's handle.
func (n *Node) ID() NodeID {
	if n == nil {
		return 0
	}
	return n.id
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.name
}

// SetName renames the node. Names need not be unique.
func (n *Node) SetName(name string) {
	n.name = name
}

// Payload returns the opaque data associated with the node.
func (n *Node) Payload() any {
	return n.payload
}

// SetPayload replaces the node's payload.
func (n *Node) SetPayload(p any) {
	n.payload = p
}

// Visible reports whether the node was expanded at the last snapshot.
func (n *Node) Visible() bool {
	return n.visible
}

// IsRoot reports whether n is its tree's hidden root.
func (n *Node) IsRoot() bool {
	return n.tree != nil && n.tree.root == n
}

// Parent returns the parent node, or nil for the root and detached nodes.
func (n *Node) Parent() *Node {
	if n.tree == nil || n.parent == 0 {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// Attached reports whether n is reachable from the root.
func (n *Node) Attached() bool {
	if n.tree == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == n.tree.root {
			return true
		}
	}
	return false
}

// Depth returns the number of edges between n and the top of its chain.
// Top-level nodes under the hidden root have depth 1.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		d++
	}
	return d
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// ChildAt returns the child at index i, or nil if i is out of range.
func (n *Node) ChildAt(i int) *Node {
	if n.tree == nil || i < 0 || i >= len(n.children) {
		return nil
	}
	return n.tree.nodes[n.children[i]]
}

// IndexOf returns the position of c among n's children, or -1.
func (n *Node) IndexOf(c *Node) int {
	if c == nil {
		return -1
	}
	for i, id := range n.children {
		if id == c.id {
			return i
		}
	}
	return -1
}

// Children yields the direct children in insertion order. The sequence is
// evaluated lazily and may be ranged over any number of times.
func (n *Node) Children() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for i := 0; i < len(n.children); i++ {
			c := n.ChildAt(i)
			if c == nil {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// AddChild inserts c as a child of n at pos. Positions outside
// [0, ChildCount()] (including -1) append. If c already has a parent it is
// detached from it first. No other validation is done here.
func (n *Node) AddChild(c *Node, pos int) {
	if c == nil || n.tree == nil || c.tree != n.tree {
		return
	}
	if old := c.Parent(); old != nil {
		old.RemoveChild(c)
	}
	if pos < 0 || pos > len(n.children) {
		pos = len(n.children)
	}
	n.children = append(n.children, 0)
	copy(n.children[pos+1:], n.children[pos:])
	n.children[pos] = c.id
	c.parent = n.id
}

// RemoveChild detaches c from n and clears its parent. It reports whether c
// was a child of n.
func (n *Node) RemoveChild(c *Node) bool {
	i := n.IndexOf(c)
	if i < 0 {
		return false
	}
	n.children = append(n.children[:i], n.children[i+1:]...)
	c.parent = 0
	return true
}

// Clone returns a detached deep copy of n's subtree. The copies are new nodes
// in the same tree with the same names, payloads and visibility flags.
func (n *Node) Clone() *Node {
	if n.tree == nil {
		return nil
	}
	cp := n.tree.alloc(n.name, n.payload)
	cp.visible = n.visible
	for c := range n.Children() {
		cc := c.Clone()
		cp.children = append(cp.children, cc.id)
		cc.parent = cp.id
	}
	return cp
}

// descendants yields n's subtree in pre-order, n included.
func (n *Node) descendants() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for c := range n.Children() {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}
