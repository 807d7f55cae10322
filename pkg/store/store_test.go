package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleTree builds:
//
//	Settings (expanded)
//	  General
//	  Save [control]
//	Help [icon]
//	  About
func sampleTree(t *testing.T) *tree.Tree {
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
	help := add("Help", &model.IconLabel{Caption: "Help", Icon: model.IconInfo}, tr.Root())
	add("About", "not a widget", help)
	settings.SetVisible(true)
	help.SetVisible(false)
	return tr
}

func outline(n *tree.Node) string {
	s := n.Name()
	if n.ChildCount() == 0 {
		return s
	}
	s += "("
	i := 0
	for c := range n.Children() {
		if i > 0 {
			s += ","
		}
		s += outline(c)
		i++
	}
	return s + ")"
}

func TestSaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	src := sampleTree(t)

	require.NoError(t, s.Save(ctx, "main", src))

	dst := tree.New()
	require.NoError(t, s.Load(ctx, "main", dst))
	require.NoError(t, dst.Verify())
	require.Equal(t, outline(src.Root()), outline(dst.Root()))

	save := dst.FindByName("Save")
	require.Equal(t, &model.Control{Caption: "Save", Action: "save"}, save.Payload())
	require.Equal(t, &model.IconLabel{Caption: "Help", Icon: model.IconInfo}, dst.FindByName("Help").Payload())
	require.Nil(t, dst.FindByName("About").Payload(), "non-widget payloads are not stored")

	require.True(t, dst.FindByName("Settings").Visible())
	require.False(t, dst.FindByName("Help").Visible())
	require.False(t, dst.FastMode())
}

func TestSaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "main", sampleTree(t)))

	small := tree.New()
	require.NoError(t, small.Add(small.NewNode("Only", nil), small.Root(), -1))
	require.NoError(t, s.Save(ctx, "main", small))

	dst := tree.New()
	require.NoError(t, s.Load(ctx, "main", dst))
	require.Equal(t, 1, dst.Len())

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, list[0].Nodes)
}

func TestLoadErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Load(ctx, "missing", tree.New())
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, s.Save(ctx, "main", sampleTree(t)))
	err = s.Load(ctx, "main", sampleTree(t))
	require.ErrorIs(t, err, ErrTreeNotEmpty)
}

func TestLoadCorruptLeavesTreeEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "main", sampleTree(t)))

	_, err := s.db.ExecContext(ctx, `UPDATE snapshots SET node_count = node_count + 1 WHERE name = 'main'`)
	require.NoError(t, err)
	dst := tree.New()
	require.ErrorIs(t, s.Load(ctx, "main", dst), tree.ErrCorrupt)
	require.Zero(t, dst.Len())

	require.NoError(t, s.Save(ctx, "main", sampleTree(t)))
	// Settings and General become each other's parents.
	_, err = s.db.ExecContext(ctx, `UPDATE nodes SET parent =
		(SELECT id FROM nodes WHERE snapshot = 'main' AND name = 'General')
		WHERE snapshot = 'main' AND name = 'Settings'`)
	require.NoError(t, err)
	dst = tree.New()
	require.ErrorIs(t, s.Load(ctx, "main", dst), tree.ErrCorrupt)
	require.Zero(t, dst.Len())
	require.Zero(t, dst.Root().ChildCount())
}

func TestListAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.Save(ctx, "older", sampleTree(t)))
	s.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, s.Save(ctx, "newer", tree.New()))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "newer", list[0].Name)
	require.Equal(t, 0, list[0].Nodes)
	require.Equal(t, "older", list[1].Name)
	require.Equal(t, 5, list[1].Nodes)
	require.True(t, list[1].SavedAt.Equal(base))

	require.NoError(t, s.Delete(ctx, "older"))
	require.ErrorIs(t, s.Delete(ctx, "older"), ErrSnapshotNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestReopenKeepsSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "main", sampleTree(t)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	dst := tree.New()
	require.NoError(t, s.Load(ctx, "main", dst))
	require.Equal(t, 5, dst.Len())
}
