package model

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind identifies which widget variant a node carries.
type Kind string

const (
	KindLabel     Kind = "label"      // Plain text
	KindControl   Kind = "control"    // Clickable control bound to an action
	KindIconLabel Kind = "icon_label" // Text with a leading icon
)

// IsValid returns true if the kind is a recognized value
func (k Kind) IsValid() bool {
	switch k {
	case KindLabel, KindControl, KindIconLabel:
		return true
	}
	return false
}

// Widget is the payload a tree node carries for the rendering surface.
// The set of variants is closed: Label, Control and IconLabel.
type Widget interface {
	Kind() Kind
	Text() string
	Clone() Widget
	Validate() error

	widget()
}

// Label is a plain text node.
type Label struct {
	Caption string
}

func (*Label) widget()         {}
func (*Label) Kind() Kind      { return KindLabel }
func (l *Label) Text() string  { return l.Caption }
func (l *Label) Clone() Widget { c := *l; return &c }

// Validate checks if the label is usable
func (l *Label) Validate() error {
	if strings.TrimSpace(l.Caption) == "" {
		return fmt.Errorf("label text cannot be empty")
	}
	return nil
}

// Control is a node the user can activate. Action is an opaque command name
// handed back to the application.
type Control struct {
	Caption  string
	Action   string
	Tooltip  string
	Disabled bool
}

func (*Control) widget()         {}
func (*Control) Kind() Kind      { return KindControl }
func (c *Control) Text() string  { return c.Caption }
func (c *Control) Clone() Widget { cp := *c; return &cp }

// Validate checks if the control is usable
func (c *Control) Validate() error {
	if strings.TrimSpace(c.Caption) == "" {
		return fmt.Errorf("control text cannot be empty")
	}
	if c.Action == "" {
		return fmt.Errorf("control %q has no action", c.Caption)
	}
	return nil
}

// IconLabel is text drawn after a named icon.
type IconLabel struct {
	Caption string
	Icon    Icon
}

func (*IconLabel) widget()         {}
func (*IconLabel) Kind() Kind      { return KindIconLabel }
func (i *IconLabel) Text() string  { return i.Caption }
func (i *IconLabel) Clone() Widget { c := *i; return &c }

// Validate checks if the icon label is usable
func (i *IconLabel) Validate() error {
	if strings.TrimSpace(i.Caption) == "" {
		return fmt.Errorf("icon label text cannot be empty")
	}
	if i.Icon == "" {
		return fmt.Errorf("icon label %q has no icon", i.Caption)
	}
	return nil
}

// Icon names a glyph. Any non-empty name is accepted; renderers fall back to
// a default glyph for names they do not know.
type Icon string

const (
	IconFolder  Icon = "folder"
	IconFile    Icon = "file"
	IconGear    Icon = "gear"
	IconWarning Icon = "warning"
	IconInfo    Icon = "info"
)

// IsKnown returns true if the icon is one of the built-in names.
func (i Icon) IsKnown() bool {
	switch i {
	case IconFolder, IconFile, IconGear, IconWarning, IconInfo:
		return true
	}
	return false
}

// Envelope is the kind-tagged form of a Widget used on disk and in the
// snapshot store.
type Envelope struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Text     string `json:"text" yaml:"text"`
	Action   string `json:"action,omitempty" yaml:"action,omitempty"`
	Tooltip  string `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Icon     Icon   `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Wrap converts a widget into its envelope. A nil widget yields the zero envelope.
func Wrap(w Widget) Envelope {
	switch v := w.(type) {
	case *Label:
		return Envelope{Kind: KindLabel, Text: v.Caption}
	case *Control:
		return Envelope{Kind: KindControl, Text: v.Caption, Action: v.Action, Tooltip: v.Tooltip, Disabled: v.Disabled}
	case *IconLabel:
		return Envelope{Kind: KindIconLabel, Text: v.Caption, Icon: v.Icon}
	}
	return Envelope{}
}

// Unwrap converts the envelope back into a widget. An empty kind is read as
// a label so hand-written outlines can omit it.
func (e Envelope) Unwrap() (Widget, error) {
	switch e.Kind {
	case "", KindLabel:
		return &Label{Caption: e.Text}, nil
	case KindControl:
		return &Control{Caption: e.Text, Action: e.Action, Tooltip: e.Tooltip, Disabled: e.Disabled}, nil
	case KindIconLabel:
		return &IconLabel{Caption: e.Text, Icon: e.Icon}, nil
	}
	return nil, fmt.Errorf("unknown widget kind: %q", e.Kind)
}

// MarshalWidget encodes a widget as envelope JSON.
func MarshalWidget(w Widget) ([]byte, error) {
	return json.Marshal(Wrap(w))
}

// UnmarshalWidget decodes envelope JSON into a widget.
func UnmarshalWidget(data []byte) (Widget, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode widget: %w", err)
	}
	return e.Unwrap()
}

// AsWidget returns p as a Widget when it is one.
func AsWidget(p any) (Widget, bool) {
	w, ok := p.(Widget)
	return w, ok
}
