package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/vanderheijden86/arbor/pkg/model"
)

// Theme holds the colors and base styles shared by the views.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
}

// DefaultTheme builds the theme on the given renderer.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79FF"},
		Secondary: lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#F1C40F"},
		Muted:     lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"},
		Highlight: lipgloss.AdaptiveColor{Light: "#0A7E8C", Dark: "#4FD1C5"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#A0A0A0"},
		Border:    lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#3C3C3C"},
		Danger:    lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF6B6B"},
	}
	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#E0E0E0"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E4E2FF", Dark: "#2E2B5F"}).
		Bold(true)
	return t
}

// ThemeFor returns the default theme with the background forced to "dark"
// or "light". Any other name lets the terminal decide.
func ThemeFor(name string) Theme {
	r := lipgloss.NewRenderer(os.Stdout)
	switch name {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	return DefaultTheme(r)
}

// WidgetIcon returns the glyph and color drawn before a node's text.
func (t Theme) WidgetIcon(w model.Widget) (string, lipgloss.AdaptiveColor) {
	switch v := w.(type) {
	case *model.Control:
		if v.Disabled {
			return "▷", t.Muted
		}
		return "▶", t.Primary
	case *model.IconLabel:
		switch v.Icon {
		case model.IconFolder:
			return "📁", t.Secondary
		case model.IconFile:
			return "📄", t.Subtext
		case model.IconGear:
			return "⚙", t.Highlight
		case model.IconWarning:
			return "⚠", t.Danger
		case model.IconInfo:
			return "ℹ", t.Highlight
		}
		return "◆", t.Subtext
	}
	return "·", t.Muted
}
