// Package tree implements the node hierarchy behind arbor's widget tree: an
// arena of nodes addressed by stable handles, the structural mutation engine
// (add, remove, move, replace) and the visibility tracker that keeps the
// rendering surface's expand state intact across every structural edit.
//
// A Tree is not safe for concurrent use. Every operation is expected to run
// on the goroutine that owns the Surface, and a Surface callback must not
// start another mutation of the same tree.
package tree

import (
	"iter"

	"github.com/rs/zerolog"
)

// Tree owns every node created through it. The root is hidden: it is never
// returned by lookups or iteration and cannot be removed, moved or replaced.
type Tree struct {
	nodes  map[NodeID]*Node
	root   *Node
	nextID NodeID

	surface Surface
	fast    bool
	log     zerolog.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithSurface attaches the rendering surface the engine reports to.
func WithSurface(s Surface) Option {
	return func(t *Tree) { t.surface = s }
}

// WithFastMode starts the tree in fast mode. See SetFastMode.
func WithFastMode(on bool) Option {
	return func(t *Tree) { t.fast = on }
}

// WithLogger sets the logger used for operation tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tree) { t.log = l }
}

// New creates a tree holding only its hidden root.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes:  make(map[NodeID]*Node),
		nextID: RootID,
		log:    zerolog.Nop(),
	}
	t.root = t.alloc("", nil)
	t.root.visible = true
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetSurface attaches (or with nil, detaches) the rendering surface.
func (t *Tree) SetSurface(s Surface) {
	t.surface = s
}

// Surface returns the attached rendering surface, if any.
func (t *Tree) Surface() Surface {
	return t.surface
}

// SetFastMode toggles fast mode. While on, inserts skip the parent
// reachability check, no visibility snapshot/restore is taken around edits,
// and new nodes are not scrolled into view. Callers should call
// RefreshVisibility once a fast batch is complete.
func (t *Tree) SetFastMode(on bool) {
	t.fast = on
}

// FastMode reports whether fast mode is on.
func (t *Tree) FastMode() bool {
	return t.fast
}

// Root returns the hidden root. Use it as the parent of top-level nodes.
func (t *Tree) Root() *Node {
	return t.root
}

// NewNode creates a detached node. It becomes part of the tree only through Add.
func (t *Tree) NewNode(name string, payload any) *Node {
	return t.alloc(name, payload)
}

// Node resolves a handle. It returns nil for unknown or destroyed handles.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes[id]
}

// Len returns the number of attached nodes, not counting the root.
func (t *Tree) Len() int {
	n := 0
	for range t.All() {
		n++
	}
	return n
}

// All yields every attached node in pre-order, excluding the root.
func (t *Tree) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for c := range t.root.Children() {
			if !c.walk(yield) {
				return
			}
		}
	}
}

func (t *Tree) alloc(name string, payload any) *Node {
	n := &Node{
		id:      t.nextID,
		tree:    t,
		name:    name,
		payload: payload,
	}
	t.nextID++
	t.nodes[n.id] = n
	return n
}

// destroy frees n and its whole subtree from the arena. n must already be
// detached from its parent.
func (t *Tree) destroy(n *Node) int {
	var doomed []*Node
	for d := range n.descendants() {
		doomed = append(doomed, d)
	}
	for _, d := range doomed {
		delete(t.nodes, d.id)
		d.children = nil
		d.parent = 0
		d.tree = nil
	}
	return len(doomed)
}

// owns reports whether n is a live node of this tree.
func (t *Tree) owns(n *Node) bool {
	return n != nil && n.tree == t && t.nodes[n.id] == n
}
