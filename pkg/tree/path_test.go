package tree

import "testing"

func TestFindByName(t *testing.T) {
	tr := New()
	nodes := build(tr, "Alpha", "", "beta", "Alpha", "BETA", "")

	tests := []struct {
		name  string
		query string
		want  *Node
	}{
		{"exact", "Alpha", nodes["Alpha"]},
		{"case_insensitive", "ALPHA", nodes["Alpha"]},
		{"first_preorder_match", "Beta", nodes["beta"]},
		{"missing", "gamma", nil},
		{"root_name_never_matches", "", nil},
		{"no_prefix_match", "Alp", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.FindByName(tt.query); got != tt.want {
				t.Errorf("FindByName(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

type widget struct{ label string }

func TestFindByPayloadMatchesIdentity(t *testing.T) {
	tr := New()
	nodes := build(tr, "A", "", "B", "A", "C", "")

	w1 := &widget{"same"}
	w2 := &widget{"same"}
	nodes["B"].SetPayload(w1)
	nodes["C"].SetPayload(w2)

	if got := tr.FindByPayload(w2); got != nodes["C"] {
		t.Errorf("expected C for w2, got %v", got)
	}
	if got := tr.FindByPayload(&widget{"same"}); got != nil {
		t.Errorf("expected no match for an equal but distinct pointer, got %s", got.Name())
	}
	if got := tr.FindByPayload(nil); got != nil {
		t.Error("expected nil payload to match nothing")
	}
}

func TestFindByPayloadNonComparable(t *testing.T) {
	tr := New()
	nodes := build(tr, "A", "", "B", "")

	s := []string{"x"}
	m := map[string]int{"x": 1}
	nodes["A"].SetPayload(s)
	nodes["B"].SetPayload(m)

	if got := tr.FindByPayload(s); got != nodes["A"] {
		t.Error("expected slice payload to match by reference")
	}
	if got := tr.FindByPayload([]string{"x"}); got != nil {
		t.Error("expected a different slice not to match")
	}
	if got := tr.FindByPayload(m); got != nodes["B"] {
		t.Error("expected map payload to match by reference")
	}
	if got := tr.FindByPayload(42); got != nil {
		t.Error("expected value of another type not to match")
	}
}

func TestPathTo(t *testing.T) {
	tr := New()
	nodes := build(tr, "A", "", "B", "A", "C", "B")

	path := tr.PathTo(nodes["C"])
	if len(path) != 4 {
		t.Fatalf("expected 4 nodes root..C, got %d", len(path))
	}
	if path[0] != tr.Root() || path[3] != nodes["C"] {
		t.Error("expected path to run from root to C")
	}

	ids := nodes["C"].Path()
	if ids.Last() != nodes["C"].ID() || ids[0] != RootID {
		t.Errorf("unexpected handle path %v", ids)
	}

	if got := nodes["C"].NamePath(); got != "A/B/C" {
		t.Errorf("NamePath = %q", got)
	}
	if got := tr.Root().NamePath(); got != "" {
		t.Errorf("root NamePath = %q", got)
	}
}

func TestAncestry(t *testing.T) {
	tr := New()
	nodes := build(tr, "A", "", "B", "A", "C", "B", "D", "")

	if !IsAncestorOf(nodes["A"], nodes["C"]) {
		t.Error("expected A to be an ancestor of C")
	}
	if IsAncestorOf(nodes["C"], nodes["A"]) {
		t.Error("expected C not to be an ancestor of A")
	}
	if IsAncestorOf(nodes["A"], nodes["A"]) {
		t.Error("expected a node not to be its own ancestor")
	}
	if !IsDescendantOf(nodes["C"], nodes["A"]) {
		t.Error("expected C to descend from A")
	}
	if IsDescendantOf(nodes["D"], nodes["A"]) {
		t.Error("expected D not to descend from A")
	}
	if got := commonAncestor(nodes["C"], nodes["B"]); got != nodes["B"] {
		t.Errorf("expected common ancestor B, got %s", got.Name())
	}
	if got := commonAncestor(nodes["C"], nodes["D"]); got != tr.Root() {
		t.Errorf("expected root as common ancestor, got %s", got.Name())
	}
}
