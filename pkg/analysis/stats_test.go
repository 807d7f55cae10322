package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

func buildTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New()
	add := func(name string, payload any, parent *tree.Node) *tree.Node {
		n := tr.NewNode(name, payload)
		require.NoError(t, tr.Add(n, parent, -1))
		return n
	}
	settings := add("Settings", &model.Label{Caption: "Settings"}, tr.Root())
	add("General", &model.Label{Caption: "General"}, settings)
	add("Save", &model.Control{Caption: "Save", Action: "save"}, settings)
	add("Reset", nil, settings)
	help := add("Help", &model.IconLabel{Caption: "Help", Icon: model.IconInfo}, tr.Root())
	settings.SetVisible(true)
	help.SetVisible(true)
	return tr
}

func TestCompute(t *testing.T) {
	s := Compute(buildTree(t))

	require.Equal(t, 5, s.Nodes)
	require.Equal(t, 4, s.Leaves)
	require.Equal(t, 2, s.MaxDepth)
	require.Equal(t, 1, s.Expanded)
	require.Equal(t, map[model.Kind]int{
		model.KindLabel:     2,
		model.KindControl:   1,
		model.KindIconLabel: 1,
		KindOther:           1,
	}, s.ByKind)

	// Branching over the root (2 children) and Settings (3 children).
	require.InDelta(t, 2.5, s.BranchingMean, 1e-9)
	require.InDelta(t, math.Sqrt(0.5), s.BranchingStdDev, 1e-9)
	require.InDelta(t, 1.6, s.DepthMean, 1e-9)

	require.Len(t, s.Hubs, 1)
	require.Equal(t, "Settings", s.Hubs[0].Name)
	require.Equal(t, "Settings", s.Hubs[0].Path)
	require.Greater(t, s.Hubs[0].Score, 0.0)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(tree.New())
	require.Zero(t, s.Nodes)
	require.Zero(t, s.BranchingMean)
	require.Zero(t, s.DepthMean)
	require.Empty(t, s.Hubs)
}

func TestComputeSingleBranch(t *testing.T) {
	tr := tree.New()
	require.NoError(t, tr.Add(tr.NewNode("Only", nil), tr.Root(), -1))

	s := Compute(tr)
	require.Equal(t, 1.0, s.BranchingMean)
	require.Zero(t, s.BranchingStdDev)
	require.False(t, math.IsNaN(s.BranchingStdDev))
}

func TestHubsRankedByScore(t *testing.T) {
	// A chain A/B/C/D: the two inner nodes carry every path.
	tr := tree.New()
	parent := tr.Root()
	for _, name := range []string{"A", "B", "C", "D"} {
		n := tr.NewNode(name, nil)
		require.NoError(t, tr.Add(n, parent, -1))
		parent = n
	}

	s := Compute(tr)
	require.Len(t, s.Hubs, 2)
	require.Equal(t, s.Hubs[0].Score, s.Hubs[1].Score)
	require.Equal(t, "A/B", s.Hubs[0].Path)
	require.Equal(t, "A/B/C", s.Hubs[1].Path)
}
