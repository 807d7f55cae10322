// Package loader reads and writes outline documents and builds trees from them.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// DocumentVersion is the outline format version written by SaveFile.
const DocumentVersion = 1

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported outline format")

// Document is an outline file.
type Document struct {
	Version int    `json:"version" yaml:"version"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Items   []Item `json:"items" yaml:"items"`
}

// Item is one outline entry. A missing widget means a label captioned with
// the item's name.
type Item struct {
	Name     string          `json:"name" yaml:"name"`
	Widget   *model.Envelope `json:"widget,omitempty" yaml:"widget,omitempty"`
	Expanded bool            `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Children []Item          `json:"children,omitempty" yaml:"children,omitempty"`
}

type format int

const (
	formatYAML format = iota
	formatJSON
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".json":
		return formatJSON, nil
	}
	return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// Parse decodes an outline in the format implied by name's extension.
func Parse(name string, data []byte) (*Document, error) {
	f, err := formatOf(name)
	if err != nil {
		return nil, err
	}
	var doc Document
	switch f {
	case formatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("%s: unsupported outline version %d", name, doc.Version)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &doc, nil
}

// LoadFile reads and parses one outline file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outline: %w", err)
	}
	return Parse(path, data)
}

// LoadAll parses files in parallel. Results keep the order of paths; the
// first error cancels the rest.
func LoadAll(ctx context.Context, paths []string) ([]*Document, error) {
	docs := make([]*Document, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := LoadFile(p)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Marshal encodes doc in the format implied by name's extension.
func Marshal(name string, doc *Document) ([]byte, error) {
	f, err := formatOf(name)
	if err != nil {
		return nil, err
	}
	if f == formatJSON {
		return json.MarshalIndent(doc, "", "  ")
	}
	return yaml.Marshal(doc)
}

// SaveFile writes doc to path through a temp file and rename, so readers
// never see a half-written outline.
func SaveFile(path string, doc *Document) error {
	data, err := Marshal(path, doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("save outline: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save outline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save outline: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save outline: %w", err)
	}
	return nil
}

// Validate checks every item has a name and a usable widget.
func (d *Document) Validate() error {
	var check func(items []Item, prefix string) error
	check = func(items []Item, prefix string) error {
		for i, it := range items {
			where := fmt.Sprintf("%sitems[%d]", prefix, i)
			if strings.TrimSpace(it.Name) == "" {
				return fmt.Errorf("%s: name is required", where)
			}
			if _, err := it.widget(); err != nil {
				return fmt.Errorf("%s (%s): %w", where, it.Name, err)
			}
			if err := check(it.Children, where+"."); err != nil {
				return err
			}
		}
		return nil
	}
	return check(d.Items, "")
}

// Count returns the number of items in the document, nested ones included.
func (d *Document) Count() int {
	var count func([]Item) int
	count = func(items []Item) int {
		n := len(items)
		for _, it := range items {
			n += count(it.Children)
		}
		return n
	}
	return count(d.Items)
}

// Build appends the document's items under t's root. The inserts run in
// fast mode; afterwards the previous mode is restored and the surface is
// refreshed once from the items' expanded flags.
func Build(t *tree.Tree, doc *Document) error {
	return build(t, doc, true)
}

// Append inserts the document's items one at a time in the tree's current
// mode, so every insert is checked and reaches the surface on its own. The
// surface is then refreshed from the items' expanded flags.
func Append(t *tree.Tree, doc *Document) error {
	return build(t, doc, false)
}

func build(t *tree.Tree, doc *Document, fast bool) error {
	prev := t.FastMode()
	if fast {
		t.SetFastMode(true)
	}

	// Outside fast mode every insert re-reads the surface and overwrites the
	// flags of nodes already placed, so they are applied once all nodes exist.
	type flag struct {
		n        *tree.Node
		expanded bool
	}
	var flags []flag
	var add func(items []Item, parent *tree.Node) error
	add = func(items []Item, parent *tree.Node) error {
		for _, it := range items {
			w, err := it.widget()
			if err != nil {
				return fmt.Errorf("build %q: %w", it.Name, err)
			}
			n := t.NewNode(it.Name, w)
			if err := t.Add(n, parent, -1); err != nil {
				return fmt.Errorf("build %q: %w", it.Name, err)
			}
			flags = append(flags, flag{n, it.Expanded})
			if err := add(it.Children, n); err != nil {
				return err
			}
		}
		return nil
	}
	err := add(doc.Items, t.Root())
	t.SetFastMode(prev)
	if err != nil {
		return err
	}
	for _, f := range flags {
		f.n.SetVisible(f.expanded)
	}
	return t.RefreshVisibility()
}

// widget returns the item's payload. Without a widget, or with an empty
// text, the item's name is the caption.
func (it Item) widget() (model.Widget, error) {
	if it.Widget == nil {
		return &model.Label{Caption: it.Name}, nil
	}
	w, err := it.Widget.Unwrap()
	if err != nil {
		return nil, err
	}
	if w.Text() == "" {
		setText(w, it.Name)
	}
	return w, w.Validate()
}

func setText(w model.Widget, text string) {
	switch v := w.(type) {
	case *model.Label:
		v.Caption = text
	case *model.Control:
		v.Caption = text
	case *model.IconLabel:
		v.Caption = text
	}
}

// Dump converts t back into a document. Payloads that are not widgets are
// dropped; the item name still carries the node's name.
func Dump(t *tree.Tree, title string) *Document {
	var items func(n *tree.Node) []Item
	items = func(n *tree.Node) []Item {
		var out []Item
		for c := range n.Children() {
			it := Item{Name: c.Name(), Expanded: c.Visible(), Children: items(c)}
			if w, ok := model.AsWidget(c.Payload()); ok {
				env := model.Wrap(w)
				if !(env.Kind == model.KindLabel && env.Text == c.Name()) {
					it.Widget = &env
				}
			}
			out = append(out, it)
		}
		return out
	}
	return &Document{Version: DocumentVersion, Title: title, Items: items(t.Root())}
}

// LoadTree reads path and builds a fresh tree from it.
func LoadTree(path string, opts ...tree.Option) (*tree.Tree, *Document, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	t := tree.New(opts...)
	if err := Build(t, doc); err != nil {
		return nil, nil, err
	}
	return t, doc, nil
}
