package tree

import "testing"

// TestAddChildClampsPosition verifies out-of-range positions append
func TestAddChildClampsPosition(t *testing.T) {
	tr := New()
	p := tr.NewNode("p", nil)
	a := tr.NewNode("a", nil)
	b := tr.NewNode("b", nil)
	c := tr.NewNode("c", nil)
	d := tr.NewNode("d", nil)

	p.AddChild(a, -1)
	p.AddChild(b, 99)
	p.AddChild(c, 0)
	p.AddChild(d, 2)

	if got := shapeOf(p); got != "p(c,a,d,b)" {
		t.Errorf("expected p(c,a,d,b), got %s", got)
	}
	for _, n := range []*Node{a, b, c, d} {
		if n.Parent() != p {
			t.Errorf("expected %s to point at p", n.Name())
		}
	}
}

// TestAddChildDetachesFromPreviousParent verifies a node never sits in two child lists
func TestAddChildDetachesFromPreviousParent(t *testing.T) {
	tr := New()
	p := tr.NewNode("p", nil)
	q := tr.NewNode("q", nil)
	c := tr.NewNode("c", nil)

	p.AddChild(c, -1)
	q.AddChild(c, -1)

	if p.ChildCount() != 0 {
		t.Errorf("expected p to lose c, has %d children", p.ChildCount())
	}
	if c.Parent() != q {
		t.Error("expected c to belong to q")
	}
}

// TestRemoveChild verifies detaching clears the back-reference
func TestRemoveChild(t *testing.T) {
	tr := New()
	p := tr.NewNode("p", nil)
	c := tr.NewNode("c", nil)
	other := tr.NewNode("other", nil)
	p.AddChild(c, -1)

	if p.RemoveChild(other) {
		t.Error("expected RemoveChild of a stranger to report false")
	}
	if !p.RemoveChild(c) {
		t.Fatal("expected RemoveChild to report true")
	}
	if c.Parent() != nil {
		t.Error("expected parent to be cleared")
	}
	if p.ChildCount() != 0 {
		t.Errorf("expected no children, got %d", p.ChildCount())
	}
}

// TestChildrenIsRestartable verifies the child sequence can be ranged repeatedly and stopped early
func TestChildrenIsRestartable(t *testing.T) {
	tr := New()
	nodes := build(tr, "A", "", "B", "A", "C", "A", "D", "A")
	a := nodes["A"]

	for round := 0; round < 2; round++ {
		var names []string
		for c := range a.Children() {
			names = append(names, c.Name())
		}
		if len(names) != 3 || names[0] != "B" || names[2] != "D" {
			t.Errorf("round %d: unexpected children %v", round, names)
		}
	}

	count := 0
	for range a.Children() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected early stop after 1, got %d", count)
	}
}

// TestCloneIsDetachedDeepCopy verifies clones share names and payloads but not identity
func TestCloneIsDetachedDeepCopy(t *testing.T) {
	tr := New()
	payload := &struct{ n int }{7}
	nodes := build(tr, "A", "", "B", "A", "C", "B")
	nodes["B"].SetPayload(payload)
	nodes["B"].SetVisible(true)

	cp := nodes["A"].Clone()

	if cp.Parent() != nil {
		t.Error("expected clone to be detached")
	}
	if cp == nodes["A"] || cp.ID() == nodes["A"].ID() {
		t.Error("expected a new node")
	}
	if got := shapeOf(cp); got != "A(B(C))" {
		t.Errorf("expected A(B(C)), got %s", got)
	}
	b := cp.ChildAt(0)
	if b.Payload() != payload {
		t.Error("expected payload to be shared by reference")
	}
	if !b.Visible() {
		t.Error("expected visibility flag to be copied")
	}
	if b.ID() == nodes["B"].ID() {
		t.Error("expected cloned child to have its own handle")
	}
	if tr.Len() != 3 {
		t.Errorf("expected clone not to be attached, tree has %d nodes", tr.Len())
	}
}

// TestNodeDepthAndAttached verifies depth counting and reachability
func TestNodeDepthAndAttached(t *testing.T) {
	tr := New()
	nodes := build(tr, "A", "", "B", "A")
	loose := tr.NewNode("loose", nil)

	if d := nodes["B"].Depth(); d != 2 {
		t.Errorf("expected depth 2, got %d", d)
	}
	if !nodes["B"].Attached() {
		t.Error("expected B to be attached")
	}
	if loose.Attached() {
		t.Error("expected loose node to be detached")
	}
	if !tr.Root().IsRoot() || nodes["A"].IsRoot() {
		t.Error("IsRoot mismatch")
	}
}
