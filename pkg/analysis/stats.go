// Package analysis computes shape statistics for a tree.
package analysis

import (
	"sort"

	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/stat"
)

// KindOther counts nodes whose payload is not a widget.
const KindOther model.Kind = "other"

// DefaultHubLimit caps Stats.Hubs.
const DefaultHubLimit = 5

// Stats summarizes the shape of a tree. The hidden root is not counted.
type Stats struct {
	Nodes    int                `json:"nodes"`
	Leaves   int                `json:"leaves"`
	MaxDepth int                `json:"max_depth"`
	Expanded int                `json:"expanded"` // nodes with children shown
	ByKind   map[model.Kind]int `json:"by_kind"`

	// Branching is over nodes with at least one child, the root included.
	BranchingMean   float64 `json:"branching_mean"`
	BranchingStdDev float64 `json:"branching_stddev"`
	DepthMean       float64 `json:"depth_mean"`

	// Hubs are the nodes most paths between other nodes pass through.
	Hubs []Hub `json:"hubs,omitempty"`
}

// Hub is a node with its betweenness centrality score.
type Hub struct {
	Name  string  `json:"name"`
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// Compute walks t once and returns its statistics.
func Compute(t *tree.Tree) Stats {
	s := Stats{ByKind: make(map[model.Kind]int)}

	var branching, depths []float64
	if c := t.Root().ChildCount(); c > 0 {
		branching = append(branching, float64(c))
	}

	g := simple.NewUndirectedGraph()
	for n := range t.All() {
		s.Nodes++
		d := n.Depth()
		s.MaxDepth = max(s.MaxDepth, d)
		depths = append(depths, float64(d))
		if n.Visible() && n.ChildCount() > 0 {
			s.Expanded++
		}
		if w, ok := model.AsWidget(n.Payload()); ok {
			s.ByKind[w.Kind()]++
		} else {
			s.ByKind[KindOther]++
		}
		if c := n.ChildCount(); c > 0 {
			branching = append(branching, float64(c))
		} else {
			s.Leaves++
		}

		id := int64(n.ID())
		g.AddNode(simple.Node(id))
		if p := n.Parent(); !p.IsRoot() {
			g.SetEdge(g.NewEdge(simple.Node(int64(p.ID())), simple.Node(id)))
		}
	}

	if len(branching) > 0 {
		s.BranchingMean, s.BranchingStdDev = stat.MeanStdDev(branching, nil)
		if len(branching) == 1 {
			s.BranchingStdDev = 0
		}
	}
	if len(depths) > 0 {
		s.DepthMean = stat.Mean(depths, nil)
	}
	s.Hubs = hubs(t, g, DefaultHubLimit)
	return s
}

// hubs ranks nodes by betweenness, highest first, ties by name.
func hubs(t *tree.Tree, g *simple.UndirectedGraph, limit int) []Hub {
	if g.Nodes().Len() < 3 {
		return nil
	}
	var out []Hub
	for id, score := range network.Betweenness(g) {
		if score <= 0 {
			continue
		}
		n := t.Node(tree.NodeID(id))
		out = append(out, Hub{Name: n.Name(), Path: n.NamePath(), Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
