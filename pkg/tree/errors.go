package tree

import (
	"errors"
	"fmt"
)

// Lookup errors
var (
	// ErrNodeNotFound indicates that a node handle or name could not be resolved
	// in this tree. Nodes that were destroyed, or that belong to another tree,
	// are reported the same way.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidParent indicates that the target parent of an insert is not
	// reachable from the root.
	ErrInvalidParent = errors.New("parent is not part of the tree")
)

// Structural errors
var (
	// ErrCycleDetected indicates that a move would place a node underneath
	// one of its own descendants.
	ErrCycleDetected = errors.New("move would create a cycle")

	// ErrSelfReferential indicates that a node was used as its own parent, or
	// that the hidden root was targeted by remove, move or replace.
	ErrSelfReferential = errors.New("self-referential operation")

	// ErrDuplicateNode indicates that a node already present in the tree was
	// passed where a new node was expected.
	ErrDuplicateNode = errors.New("node is already in the tree")

	// ErrDetachedNode indicates that an operation needs a node with a parent
	// but got one that has not been attached, or needs a fresh node but got
	// one already built under a detached node.
	ErrDetachedNode = errors.New("node is not attached")

	// ErrHasChildren indicates that a replacement node already carries
	// children of its own.
	ErrHasChildren = errors.New("replacement already has children")

	// ErrCorrupt is reported by Verify when an invariant does not hold.
	// It should not happen.
	ErrCorrupt = errors.New("tree invariant violated")
)

// OpError records the operation and node that failed a precondition.
type OpError struct {
	Op   string // "add", "remove", "move", "replace", "find"
	Node string // Name of the node the operation targeted
	Err  error  // One of the sentinel errors above
}

func (e *OpError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Node, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opErr(op string, n *Node, err error) error {
	name := ""
	if n != nil {
		name = n.name
	}
	return &OpError{Op: op, Node: name, Err: err}
}
