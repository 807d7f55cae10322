package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

type mode int

const (
	modeNormal mode = iota
	modeAddChild
	modeAddSibling
	modeRename
	modePickKind
)

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

// SaveFunc writes the tree back to wherever it came from.
type SaveFunc func(*tree.Tree) error

// ReloadMsg asks the app to swap in a freshly loaded tree, e.g. after the
// outline file changed on disk.
type ReloadMsg struct {
	Tree *tree.Tree
	Err  error
}

// App is the interactive outline editor.
type App struct {
	tree   *tree.Tree
	view   *TreeView
	theme  Theme
	input  textinput.Model
	picker KindPickerModel

	mode       mode
	addParent  tree.NodeID // target of a pending add
	addPos     int
	markedNode tree.NodeID // node picked up with m, dropped with p/P

	status    string
	statusErr bool
	dirty     bool
	width     int
	height    int

	save        SaveFunc
	stateDir    string
	expandDepth int
	log         zerolog.Logger
}

// AppOption configures an App.
type AppOption func(*App)

// WithSave sets the function called by the save key.
func WithSave(fn SaveFunc) AppOption {
	return func(a *App) { a.save = fn }
}

// WithStateDir enables expand-state persistence in dir.
func WithStateDir(dir string) AppOption {
	return func(a *App) { a.stateDir = dir }
}

// WithExpandDepth sets how many levels start expanded.
func WithExpandDepth(depth int) AppOption {
	return func(a *App) { a.expandDepth = depth }
}

// WithAppLogger sets the logger.
func WithAppLogger(l zerolog.Logger) AppOption {
	return func(a *App) { a.log = l }
}

// NewApp builds the editor over t, attaching a TreeView as its surface.
func NewApp(t *tree.Tree, theme Theme, opts ...AppOption) *App {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 40

	a := &App{
		tree:        t,
		theme:       theme,
		input:       ti,
		expandDepth: 1,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.attach(t)
	return a
}

func (a *App) attach(t *tree.Tree) {
	a.tree = t
	a.view = NewTreeView(t, a.theme)
	a.view.SetLogger(a.log)
	a.view.SetStateDir(a.stateDir)
	a.view.SetExpandDepth(a.expandDepth)
	a.view.LoadState()
	if a.width > 0 {
		a.view.SetSize(a.width, a.bodyHeight())
	}
	a.markedNode = 0
}

// Tree returns the tree being edited.
func (a *App) Tree() *tree.Tree {
	return a.tree
}

// TreeView returns the view, for callers that drive it directly.
func (a *App) TreeView() *TreeView {
	return a.view
}

// Status returns the current status line text.
func (a *App) Status() string {
	return a.status
}

// Dirty reports unsaved edits.
func (a *App) Dirty() bool {
	return a.dirty
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.view.SetSize(msg.Width, a.bodyHeight())
		a.picker.SetSize(msg.Width, msg.Height)
		return a, nil

	case ReloadMsg:
		if msg.Err != nil {
			a.setError(fmt.Errorf("reload: %w", msg.Err))
			return a, nil
		}
		if a.dirty {
			a.setStatus("outline changed on disk; unsaved edits kept")
			return a, nil
		}
		a.attach(msg.Tree)
		a.setStatus("reloaded")
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case modeAddChild, modeAddSibling, modeRename:
			return a.updateInput(msg)
		case modePickKind:
			return a.updatePicker(msg)
		}
		return a.updateNormal(msg)
	}
	return a, nil
}

func (a *App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := a.view
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "j", "down":
		v.MoveDown()
	case "k", "up":
		v.MoveUp()
	case "l", "right":
		v.ExpandOrMoveToChild()
	case "h", "left":
		v.CollapseOrJumpToParent()
	case "enter", " ":
		v.ToggleExpand()
	case "g", "home":
		v.JumpToTop()
	case "G", "end":
		v.JumpToBottom()
	case "ctrl+d", "pgdown":
		v.PageDown()
	case "ctrl+u", "pgup":
		v.PageUp()
	case "E":
		v.ExpandAll()
	case "C":
		v.CollapseAll()
	case "a":
		parent := v.SelectedNode()
		if parent == nil {
			parent = a.tree.Root()
		}
		return a, a.startInput(modeAddChild, parent, -1, "")
	case "A":
		sel := v.SelectedNode()
		if sel == nil {
			return a, a.startInput(modeAddChild, a.tree.Root(), -1, "")
		}
		parent := sel.Parent()
		return a, a.startInput(modeAddSibling, parent, parent.IndexOf(sel)+1, "")
	case "r":
		if sel := v.SelectedNode(); sel != nil {
			return a, a.startInput(modeRename, sel, 0, sel.Name())
		}
	case "d":
		a.remove(false)
	case "D":
		a.remove(true)
	case ">", "tab":
		a.indent()
	case "<", "shift+tab":
		a.outdent()
	case "m":
		if sel := v.SelectedNode(); sel != nil {
			a.markedNode = sel.ID()
			a.setStatus("marked " + sel.NamePath() + "; p to move here, P to move a deep copy and drop the original")
		}
	case "p":
		a.dropMarked(false)
	case "P":
		a.dropMarked(true)
	case "y":
		if sel := v.SelectedNode(); sel != nil {
			if err := copyToClipboard(sel.NamePath()); err != nil {
				a.setError(fmt.Errorf("copy path: %w", err))
			} else {
				a.setStatus("copied " + sel.NamePath())
			}
		}
	case "s", "ctrl+s":
		a.saveNow()
	}
	return a, nil
}

func (a *App) startInput(m mode, target *tree.Node, pos int, value string) tea.Cmd {
	a.mode = m
	a.addParent = target.ID()
	a.addPos = pos
	a.input.Reset()
	a.input.SetValue(value)
	switch m {
	case modeRename:
		a.input.Placeholder = "new name"
	default:
		a.input.Placeholder = "name"
	}
	return a.input.Focus()
}

func (a *App) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.cancelInput()
		return a, nil
	case "enter":
		name := strings.TrimSpace(a.input.Value())
		if name == "" {
			a.cancelInput()
			return a, nil
		}
		if a.mode == modeRename {
			a.rename(name)
			a.cancelInput()
			return a, nil
		}
		a.input.Blur()
		a.picker = NewKindPickerModel(name, a.theme)
		a.picker.SetSize(a.width, a.height)
		a.mode = modePickKind
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.cancelInput()
	case "j", "down":
		a.picker.MoveDown()
	case "k", "up":
		a.picker.MoveUp()
	case "enter":
		a.add(a.picker.caption, a.picker.Build())
		a.cancelInput()
	}
	return a, nil
}

func (a *App) cancelInput() {
	a.mode = modeNormal
	a.input.Blur()
	a.input.Reset()
}

func (a *App) add(name string, w model.Widget) {
	parent := a.tree.Node(a.addParent)
	if parent == nil {
		a.setError(fmt.Errorf("add %q: %w", name, tree.ErrInvalidParent))
		return
	}
	n := a.tree.NewNode(name, w)
	if err := a.tree.Add(n, parent, a.addPos); err != nil {
		_ = a.tree.Discard(n)
		a.setError(err)
		return
	}
	a.edited("added " + n.NamePath())
}

// rename swaps the selected node for a fresh one carrying the new name, so
// the view and anything holding the old handle see a replacement.
func (a *App) rename(name string) {
	old := a.tree.Node(a.addParent)
	if old == nil {
		return
	}
	var payload any
	if w, ok := model.AsWidget(old.Payload()); ok {
		cp := w.Clone()
		setCaption(cp, name)
		payload = cp
	} else {
		payload = old.Payload()
	}
	repl := a.tree.NewNode(name, payload)
	if err := a.tree.Replace(old, repl); err != nil {
		_ = a.tree.Discard(repl)
		a.setError(err)
		return
	}
	if err := a.view.ScrollToAndSelect(repl.ID()); err != nil {
		a.log.Debug().Err(err).Msg("select after rename")
	}
	a.edited("renamed to " + name)
}

func setCaption(w model.Widget, caption string) {
	switch v := w.(type) {
	case *model.Label:
		v.Caption = caption
	case *model.Control:
		v.Caption = caption
	case *model.IconLabel:
		v.Caption = caption
	}
}

func (a *App) remove(saveChildren bool) {
	sel := a.view.SelectedNode()
	if sel == nil {
		return
	}
	path := sel.NamePath()
	if sel.ID() == a.markedNode {
		a.markedNode = 0
	}
	if err := a.tree.Remove(sel, saveChildren); err != nil {
		a.setError(err)
		return
	}
	if saveChildren {
		a.edited("removed " + path + ", kept children")
		return
	}
	a.edited("removed " + path)
}

// indent moves the selection under its previous sibling, as the last child.
func (a *App) indent() {
	sel := a.view.SelectedNode()
	if sel == nil {
		return
	}
	parent := sel.Parent()
	i := parent.IndexOf(sel)
	if i <= 0 {
		a.setStatus("nothing to indent under")
		return
	}
	a.move(sel, parent.ChildAt(i-1), false, -1)
}

// outdent moves the selection out of its parent, right after it.
func (a *App) outdent() {
	sel := a.view.SelectedNode()
	if sel == nil {
		return
	}
	parent := sel.Parent()
	if parent.IsRoot() {
		a.setStatus("already at top level")
		return
	}
	grand := parent.Parent()
	a.move(sel, grand, false, grand.IndexOf(parent)+1)
}

func (a *App) dropMarked(deep bool) {
	src := a.tree.Node(a.markedNode)
	if src == nil {
		a.setStatus("nothing marked; press m first")
		return
	}
	dst := a.view.SelectedNode()
	if dst == nil {
		dst = a.tree.Root()
	}
	a.markedNode = 0
	a.move(src, dst, deep, -1)
}

func (a *App) move(n, to *tree.Node, deep bool, pos int) {
	from := n.Parent()
	moved, err := a.tree.Move(n, to, deep, pos)
	if err != nil {
		a.setError(err)
		return
	}
	if moved == n && n.Parent() == from {
		a.setStatus(n.NamePath() + " is already there")
		return
	}
	if err := a.view.ScrollToAndSelect(moved.ID()); err != nil {
		a.log.Debug().Err(err).Msg("select after move")
	}
	a.edited("moved " + moved.NamePath())
}

func (a *App) saveNow() {
	if a.save == nil {
		a.setStatus("no file to save to")
		return
	}
	if err := a.save(a.tree); err != nil {
		a.setError(fmt.Errorf("save: %w", err))
		return
	}
	a.dirty = false
	a.setStatus("saved")
}

func (a *App) edited(status string) {
	a.dirty = true
	a.view.saveState()
	a.setStatus(status)
	a.log.Debug().Str("status", status).Int("nodes", a.tree.Len()).Msg("outline edited")
}

func (a *App) setStatus(s string) {
	a.status = s
	a.statusErr = false
}

func (a *App) setError(err error) {
	a.status = describeError(err)
	a.statusErr = true
	a.log.Warn().Err(err).Msg("edit rejected")
}

// describeError turns engine errors into short status messages.
func describeError(err error) string {
	switch {
	case errors.Is(err, tree.ErrCycleDetected):
		return "can't move a node under itself"
	case errors.Is(err, tree.ErrSelfReferential):
		return "can't do that to the node itself"
	case errors.Is(err, tree.ErrDuplicateNode):
		return "node is already in the tree"
	case errors.Is(err, tree.ErrHasChildren):
		return "replacement already has children"
	case errors.Is(err, tree.ErrInvalidParent):
		return "target is not in the tree"
	}
	return err.Error()
}

func (a *App) bodyHeight() int {
	if h := a.height - 2; h > 0 {
		return h
	}
	return 0
}

func (a *App) View() string {
	if a.mode == modePickKind {
		return a.picker.View()
	}

	body := a.view.View()
	var prompt string
	switch a.mode {
	case modeAddChild:
		prompt = "Add child: " + a.input.View()
	case modeAddSibling:
		prompt = "Add sibling: " + a.input.View()
	case modeRename:
		prompt = "Rename: " + a.input.View()
	}
	if prompt != "" {
		return lipgloss.JoinVertical(lipgloss.Left, body, prompt)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, a.renderFooter())
}

func (a *App) renderFooter() string {
	r := a.theme.Renderer
	statusStyle := r.NewStyle().Foreground(a.theme.Highlight).Padding(0, 1)
	if a.statusErr {
		statusStyle = statusStyle.Foreground(a.theme.Danger)
	}
	helpStyle := r.NewStyle().Foreground(a.theme.Subtext).Padding(0, 1)
	countStyle := r.NewStyle().Foreground(a.theme.Secondary).Padding(0, 1)

	count := fmt.Sprintf("%d nodes", a.tree.Len())
	if a.dirty {
		count += " *"
	}
	keys := "a/A: add • r: rename • d/D: delete • </>: outdent/indent • m,p: move • s: save • q: quit"

	statusSection := statusStyle.Render(a.status)
	countSection := countStyle.Render(count)
	keysSection := helpStyle.Render(keys)

	remaining := a.width - lipgloss.Width(statusSection) - lipgloss.Width(countSection) - lipgloss.Width(keysSection)
	if remaining < 0 {
		remaining = 0
	}
	filler := r.NewStyle().Width(remaining).Render("")
	return lipgloss.JoinHorizontal(lipgloss.Bottom, statusSection, filler, countSection, keysSection)
}
