package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vanderheijden86/arbor/pkg/model"
)

// KindPickerModel is the modal that picks the widget kind for a new node.
type KindPickerModel struct {
	kinds         []model.Kind
	caption       string // Text the new node will carry
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewKindPickerModel creates a picker for a node captioned caption.
func NewKindPickerModel(caption string, theme Theme) KindPickerModel {
	return KindPickerModel{
		kinds:   []model.Kind{model.KindLabel, model.KindControl, model.KindIconLabel},
		caption: caption,
		theme:   theme,
	}
}

// SetSize updates the picker dimensions
func (m *KindPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves selection up
func (m *KindPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *KindPickerModel) MoveDown() {
	if m.selectedIndex < len(m.kinds)-1 {
		m.selectedIndex++
	}
}

// SelectedKind returns the highlighted kind
func (m *KindPickerModel) SelectedKind() model.Kind {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.kinds) {
		return m.kinds[m.selectedIndex]
	}
	return model.KindLabel
}

// Build returns a widget of the selected kind for the caption. Controls get
// an action derived from the caption; icon labels start as files.
func (m *KindPickerModel) Build() model.Widget {
	switch m.SelectedKind() {
	case model.KindControl:
		return &model.Control{Caption: m.caption, Action: actionName(m.caption)}
	case model.KindIconLabel:
		return &model.IconLabel{Caption: m.caption, Icon: model.IconFile}
	}
	return &model.Label{Caption: m.caption}
}

// actionName turns "Save As..." into "save_as".
func actionName(caption string) string {
	var sb strings.Builder
	sep := false
	for _, r := range strings.ToLower(caption) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if sep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
			sep = false
		default:
			sep = true
		}
	}
	return sb.String()
}

// View renders the kind picker overlay
func (m *KindPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme

	boxWidth := 35
	if m.width < 45 {
		boxWidth = m.width - 10
	}
	if boxWidth < 25 {
		boxWidth = 25
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)
	lines = append(lines, titleStyle.Render("New Node: "+m.caption))
	lines = append(lines, "")

	for i, kind := range m.kinds {
		isSelected := i == m.selectedIndex

		itemStyle := t.Renderer.NewStyle()
		if isSelected {
			itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
		} else {
			itemStyle = itemStyle.Foreground(t.Base.GetForeground())
		}

		prefix := "  "
		if isSelected {
			prefix = "> "
		}
		lines = append(lines, itemStyle.Render(prefix+formatKindName(string(kind))))
	}

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("j/k: navigate | enter: create | esc: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

// formatKindName converts a kind to a display name
// Example: "icon_label" -> "Icon Label"
func formatKindName(kind string) string {
	parts := strings.Split(kind, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
