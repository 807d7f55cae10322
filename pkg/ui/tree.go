// tree.go - Outline tree view; the rendering surface the tree engine drives.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// TreeState represents the persistent state of the tree view.
// This is saved to .arbor/tree-state.json to preserve expand/collapse state
// across sessions.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": {
//	    "Settings/Display": true,   // explicitly expanded
//	    "Help": false               // explicitly collapsed
//	  }
//	}
//
// Keys are name paths from the top level down, joined with "/". Only nodes
// that differ from the default depth rule are stored. A missing or corrupted
// file means defaults.
type TreeState struct {
	Version  int             `json:"version"`  // Schema version (currently 1)
	Expanded map[string]bool `json:"expanded"` // Name path -> explicitly set state
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

// DefaultTreeState returns a new TreeState with sensible defaults
func DefaultTreeState() *TreeState {
	return &TreeState{
		Version:  TreeStateVersion,
		Expanded: make(map[string]bool),
	}
}

// treeStateFileName is the filename for persisted tree state
const treeStateFileName = "tree-state.json"

// TreeStatePath returns the path to the tree state file inside stateDir.
func TreeStatePath(stateDir string) string {
	if stateDir == "" {
		stateDir = ".arbor"
	}
	return filepath.Join(stateDir, treeStateFileName)
}

// TreeView draws a tree.Tree and implements tree.Surface. It keeps its own
// expand flags, so between edits a node stays expanded while an ancestor is
// collapsed and reappears expanded when the ancestor opens again.
type TreeView struct {
	tree     *tree.Tree
	expanded map[tree.NodeID]bool
	flatList []*tree.Node // visible nodes in display order
	cursor   int
	selected tree.NodeID

	viewport       viewport.Model
	viewportOffset int
	theme          Theme
	width          int
	height         int

	// Persistence; empty stateDir disables it
	stateDir    string
	expandDepth int

	log zerolog.Logger
}

// NewTreeView creates a view over t and attaches it as t's surface.
func NewTreeView(t *tree.Tree, theme Theme) *TreeView {
	v := &TreeView{
		tree:        t,
		expanded:    make(map[tree.NodeID]bool),
		theme:       theme,
		expandDepth: 1,
		viewport:    viewport.New(0, 0),
		log:         zerolog.Nop(),
	}
	t.SetSurface(v)
	v.rebuildFlatList()
	return v
}

// SetLogger sets where persistence warnings go.
func (v *TreeView) SetLogger(l zerolog.Logger) {
	v.log = l
}

// SetStateDir enables persistence of expand state under dir.
func (v *TreeView) SetStateDir(dir string) {
	v.stateDir = dir
}

// SetExpandDepth sets how many levels are expanded by default.
func (v *TreeView) SetExpandDepth(depth int) {
	v.expandDepth = depth
}

// SetSize updates the available dimensions for the tree view
func (v *TreeView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = height
	v.ensureCursorVisible()
}

// IsExpanded reports whether the last node of p is expanded and shown, that
// is, it and every ancestor below the root are expanded.
func (v *TreeView) IsExpanded(p tree.Path) bool {
	if len(p) < 2 {
		return false
	}
	for _, id := range p[1:] {
		if !v.expanded[id] {
			return false
		}
	}
	return true
}

// ExpandPath expands every node on p.
func (v *TreeView) ExpandPath(p tree.Path) error {
	for _, id := range p {
		if id == tree.RootID {
			continue
		}
		if v.tree.Node(id) == nil {
			return fmt.Errorf("expand node %d: %w", id, tree.ErrNodeNotFound)
		}
		v.expanded[id] = true
	}
	v.rebuildFlatList()
	return nil
}

// NotifyStructureChanged collapses the subtree at id and forgets flags of
// nodes that no longer exist.
func (v *TreeView) NotifyStructureChanged(id tree.NodeID) error {
	for nid := range v.expanded {
		if v.tree.Node(nid) == nil {
			delete(v.expanded, nid)
		}
	}
	n := v.tree.Node(id)
	if n == nil {
		v.rebuildFlatList()
		return nil
	}
	v.setExpandedRecursive(n, false)
	v.rebuildFlatList()
	return nil
}

// ScrollToAndSelect reveals the node by expanding its ancestors and moves
// the cursor onto it.
func (v *TreeView) ScrollToAndSelect(id tree.NodeID) error {
	n := v.tree.Node(id)
	if n == nil || !n.Attached() || n.IsRoot() {
		return fmt.Errorf("select node %d: %w", id, tree.ErrNodeNotFound)
	}
	for p := n.Parent(); p != nil && !p.IsRoot(); p = p.Parent() {
		v.expanded[p.ID()] = true
	}
	v.rebuildFlatList()
	v.selectIndex(v.indexOf(id))
	return nil
}

// ApplyDefaults expands nodes whose depth is at most the expand depth and
// collapses the rest.
func (v *TreeView) ApplyDefaults() {
	v.expanded = make(map[tree.NodeID]bool)
	for n := range v.tree.All() {
		if n.Depth() <= v.expandDepth {
			v.expanded[n.ID()] = true
		}
	}
	v.rebuildFlatList()
}

// SyncFromTree takes the expand flags recorded on the tree's nodes.
func (v *TreeView) SyncFromTree() {
	v.expanded = make(map[tree.NodeID]bool)
	for n := range v.tree.All() {
		if n.Visible() {
			v.expanded[n.ID()] = true
		}
	}
	v.rebuildFlatList()
}

// saveState persists the current expand/collapse state to disk.
// Only stores nodes that differ from the default depth rule.
// Errors are logged but do not interrupt the user experience.
func (v *TreeView) saveState() {
	if v.stateDir == "" {
		return
	}
	state := DefaultTreeState()
	for n := range v.tree.All() {
		defaultExpanded := n.Depth() <= v.expandDepth
		if v.expanded[n.ID()] != defaultExpanded {
			state.Expanded[n.NamePath()] = v.expanded[n.ID()]
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		v.log.Warn().Err(err).Msg("failed to marshal tree state")
		return
	}

	path := TreeStatePath(v.stateDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		v.log.Warn().Err(err).Str("dir", filepath.Dir(path)).Msg("failed to create state directory")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		v.log.Warn().Err(err).Str("path", path).Msg("failed to write tree state")
	}
}

// LoadState applies the default depth rule, then any saved state, and
// records the result on the tree's nodes. A missing or corrupted file
// leaves the defaults.
func (v *TreeView) LoadState() {
	v.ApplyDefaults()
	if v.stateDir != "" {
		if state, err := readTreeState(TreeStatePath(v.stateDir)); err == nil {
			v.applyState(state)
		} else if !os.IsNotExist(err) {
			v.log.Warn().Err(err).Msg("invalid tree state file, using defaults")
		}
	}
	v.tree.Snapshot()
	v.rebuildFlatList()
}

func readTreeState(path string) (*TreeState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Version != TreeStateVersion {
		return nil, fmt.Errorf("unsupported tree state version %d", state.Version)
	}
	return &state, nil
}

// applyState sets expand flags from a loaded state. Unknown paths are
// stale and ignored.
func (v *TreeView) applyState(state *TreeState) {
	if state == nil || len(state.Expanded) == 0 {
		return
	}
	for n := range v.tree.All() {
		if expanded, ok := state.Expanded[n.NamePath()]; ok {
			v.expanded[n.ID()] = expanded
		}
	}
}

// userChanged records a user expand/collapse on the tree and disk.
func (v *TreeView) userChanged() {
	v.rebuildFlatList()
	v.tree.Snapshot()
	v.saveState()
}

// View renders the visible slice of the tree.
func (v *TreeView) View() string {
	if len(v.flatList) == 0 {
		return v.renderEmptyState()
	}

	start, end := v.visibleRange()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		node := v.flatList[i]
		line := v.renderNode(node)
		if i == v.cursor {
			line = v.theme.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	if v.viewport.Width <= 0 || v.viewport.Height <= 0 {
		return strings.Join(lines, "\n")
	}
	v.viewport.SetContent(strings.Join(lines, "\n"))
	return v.viewport.View()
}

// renderEmptyState renders the view when the tree has no nodes.
func (v *TreeView) renderEmptyState() string {
	r := v.theme.Renderer
	titleStyle := r.NewStyle().Foreground(v.theme.Primary).Bold(true)
	mutedStyle := r.NewStyle().Foreground(v.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Outline"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Nothing here yet."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Press a to add a node."))
	return sb.String()
}

// renderNode renders a single tree node with tree characters and styling.
func (v *TreeView) renderNode(n *tree.Node) string {
	r := v.theme.Renderer
	var sb strings.Builder

	prefix := v.buildTreePrefix(n)
	sb.WriteString(prefix)

	indicatorStyle := r.NewStyle().Foreground(v.theme.Secondary)
	sb.WriteString(indicatorStyle.Render(v.getExpandIndicator(n)))
	sb.WriteString(" ")

	w, _ := model.AsWidget(n.Payload())
	icon, iconColor := v.theme.WidgetIcon(w)
	sb.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteString(" ")

	text := n.Name()
	if w != nil && w.Text() != "" {
		text = w.Text()
	}
	used := prefixWidth(n) + 2 + runewidth.StringWidth(icon) + 1
	maxLen := v.width - used
	if maxLen < 20 {
		maxLen = 20
	}
	text = runewidth.Truncate(text, maxLen, "…")

	textStyle := v.theme.Base
	if c, ok := w.(*model.Control); ok && c.Disabled {
		textStyle = r.NewStyle().Foreground(v.theme.Muted)
	}
	sb.WriteString(textStyle.Render(text))
	return sb.String()
}

// prefixWidth is the display width of buildTreePrefix's output.
func prefixWidth(n *tree.Node) int {
	return 4 * (n.Depth() - 1)
}

// buildTreePrefix builds the indentation and branch characters for a node.
func (v *TreeView) buildTreePrefix(n *tree.Node) string {
	if n.Depth() <= 1 {
		return ""
	}
	treeStyle := v.theme.Renderer.NewStyle().Foreground(v.theme.Muted)

	var parts []string
	for a := n.Parent(); a != nil && a.Depth() > 1; a = a.Parent() {
		if hasSiblingsBelow(a) {
			parts = append(parts, "│   ")
		} else {
			parts = append(parts, "    ")
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	if hasSiblingsBelow(n) {
		parts = append(parts, "├── ")
	} else {
		parts = append(parts, "└── ")
	}
	return treeStyle.Render(strings.Join(parts, ""))
}

// hasSiblingsBelow checks if a node has siblings below it in the tree.
func hasSiblingsBelow(n *tree.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	return p.IndexOf(n) < p.ChildCount()-1
}

// getExpandIndicator returns the expand/collapse indicator for a node.
func (v *TreeView) getExpandIndicator(n *tree.Node) string {
	if n.ChildCount() == 0 {
		return "•" // Leaf node
	}
	if v.expanded[n.ID()] {
		return "▾" // Expanded
	}
	return "▸" // Collapsed
}

// SelectedNode returns the currently selected tree node, or nil if none.
func (v *TreeView) SelectedNode() *tree.Node {
	if v.cursor >= 0 && v.cursor < len(v.flatList) {
		return v.flatList[v.cursor]
	}
	return nil
}

// MoveDown moves the cursor down in the flat list.
func (v *TreeView) MoveDown() {
	if v.cursor < len(v.flatList)-1 {
		v.selectIndex(v.cursor + 1)
	}
}

// MoveUp moves the cursor up in the flat list.
func (v *TreeView) MoveUp() {
	if v.cursor > 0 {
		v.selectIndex(v.cursor - 1)
	}
}

// ToggleExpand expands or collapses the currently selected node.
func (v *TreeView) ToggleExpand() {
	n := v.SelectedNode()
	if n != nil && n.ChildCount() > 0 {
		v.expanded[n.ID()] = !v.expanded[n.ID()]
		v.userChanged()
	}
}

// ExpandAll expands all nodes in the tree.
func (v *TreeView) ExpandAll() {
	v.setExpandedRecursive(v.tree.Root(), true)
	v.userChanged()
}

// CollapseAll collapses all nodes in the tree.
func (v *TreeView) CollapseAll() {
	v.setExpandedRecursive(v.tree.Root(), false)
	v.userChanged()
}

// JumpToTop moves cursor to the first node.
func (v *TreeView) JumpToTop() {
	v.selectIndex(0)
}

// JumpToBottom moves cursor to the last node.
func (v *TreeView) JumpToBottom() {
	v.selectIndex(len(v.flatList) - 1)
}

// JumpToParent moves cursor to the parent of the currently selected node.
// Top-level nodes stay put.
func (v *TreeView) JumpToParent() {
	n := v.SelectedNode()
	if n == nil || n.Parent() == nil || n.Parent().IsRoot() {
		return
	}
	if i := v.indexOf(n.Parent().ID()); i >= 0 {
		v.selectIndex(i)
	}
}

// ExpandOrMoveToChild handles the → / l key:
// - If node has children and is collapsed: expand it
// - If node has children and is expanded: move to first child
// - If node is a leaf: do nothing
func (v *TreeView) ExpandOrMoveToChild() {
	n := v.SelectedNode()
	if n == nil || n.ChildCount() == 0 {
		return
	}
	if !v.expanded[n.ID()] {
		v.expanded[n.ID()] = true
		v.userChanged()
		return
	}
	if i := v.indexOf(n.ChildAt(0).ID()); i >= 0 {
		v.selectIndex(i)
	}
}

// CollapseOrJumpToParent handles the ← / h key:
// - If node has children and is expanded: collapse it
// - If node is collapsed or is a leaf: jump to parent
func (v *TreeView) CollapseOrJumpToParent() {
	n := v.SelectedNode()
	if n == nil {
		return
	}
	if n.ChildCount() > 0 && v.expanded[n.ID()] {
		v.expanded[n.ID()] = false
		v.userChanged()
		return
	}
	v.JumpToParent()
}

// PageDown moves cursor down by half a viewport.
func (v *TreeView) PageDown() {
	v.selectIndex(v.cursor + v.pageSize())
}

// PageUp moves cursor up by half a viewport.
func (v *TreeView) PageUp() {
	v.selectIndex(v.cursor - v.pageSize())
}

func (v *TreeView) pageSize() int {
	if size := v.height / 2; size >= 1 {
		return size
	}
	return 5
}

// SelectByPath moves the cursor to the node at the given name path,
// expanding ancestors as needed. Returns true if found.
func (v *TreeView) SelectByPath(path string) bool {
	for n := range v.tree.All() {
		if n.NamePath() == path {
			return v.ScrollToAndSelect(n.ID()) == nil
		}
	}
	return false
}

// IsNodeExpanded reports the view's own flag for n.
func (v *TreeView) IsNodeExpanded(n *tree.Node) bool {
	return n != nil && v.expanded[n.ID()]
}

// NodeCount returns the number of visible nodes.
func (v *TreeView) NodeCount() int {
	return len(v.flatList)
}

// VisibleNames returns the names of visible nodes in display order.
func (v *TreeView) VisibleNames() []string {
	names := make([]string, len(v.flatList))
	for i, n := range v.flatList {
		names[i] = n.Name()
	}
	return names
}

// visibleRange returns the start and end indices of nodes to render.
func (v *TreeView) visibleRange() (start, end int) {
	if len(v.flatList) == 0 {
		return 0, 0
	}
	visibleCount := v.height
	if visibleCount <= 0 {
		visibleCount = 20 // Default
	}

	start = v.viewportOffset
	end = start + visibleCount
	if end > len(v.flatList) {
		end = len(v.flatList)
		start = max(end-visibleCount, 0)
	}
	return start, end
}

func (v *TreeView) ensureCursorVisible() {
	visibleCount := v.height
	if visibleCount <= 0 {
		visibleCount = 20
	}
	if v.cursor < v.viewportOffset {
		v.viewportOffset = v.cursor
	}
	if v.cursor >= v.viewportOffset+visibleCount {
		v.viewportOffset = v.cursor - visibleCount + 1
	}
	if v.viewportOffset < 0 {
		v.viewportOffset = 0
	}
}

func (v *TreeView) selectIndex(i int) {
	if len(v.flatList) == 0 {
		v.cursor = 0
		v.selected = 0
		return
	}
	i = max(0, min(i, len(v.flatList)-1))
	v.cursor = i
	v.selected = v.flatList[i].ID()
	v.ensureCursorVisible()
}

func (v *TreeView) indexOf(id tree.NodeID) int {
	for i, n := range v.flatList {
		if n.ID() == id {
			return i
		}
	}
	return -1
}

// setExpandedRecursive sets the expanded state for a node and all descendants.
func (v *TreeView) setExpandedRecursive(n *tree.Node, expanded bool) {
	if !n.IsRoot() {
		if expanded {
			v.expanded[n.ID()] = true
		} else {
			delete(v.expanded, n.ID())
		}
	}
	for c := range n.Children() {
		v.setExpandedRecursive(c, expanded)
	}
}

// rebuildFlatList rebuilds the flattened list of visible nodes and keeps
// the cursor on the selected node when it is still shown.
func (v *TreeView) rebuildFlatList() {
	v.flatList = v.flatList[:0]
	for c := range v.tree.Root().Children() {
		v.appendVisible(c)
	}
	if i := v.indexOf(v.selected); i >= 0 {
		v.selectIndex(i)
		return
	}
	v.selectIndex(v.cursor)
}

// appendVisible adds a node and its visible descendants to flatList.
func (v *TreeView) appendVisible(n *tree.Node) {
	v.flatList = append(v.flatList, n)
	if v.expanded[n.ID()] {
		for c := range n.Children() {
			v.appendVisible(c)
		}
	}
}
