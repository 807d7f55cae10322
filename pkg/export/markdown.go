// Package export renders trees as Markdown, SVG and PNG.
package export

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// Markdown renders t as a nested bullet list, two spaces per level, under an
// optional title heading.
func Markdown(t *tree.Tree, title string) string {
	var sb strings.Builder

	if title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	if t.Len() == 0 {
		sb.WriteString("_Empty outline._\n")
		return sb.String()
	}

	for n := range t.All() {
		sb.WriteString(strings.Repeat("  ", n.Depth()-1))
		sb.WriteString("- ")
		sb.WriteString(markdownItem(n))
		sb.WriteString("\n")
	}
	return sb.String()
}

func markdownItem(n *tree.Node) string {
	w, ok := model.AsWidget(n.Payload())
	if !ok {
		return escapeMarkdown(n.Name())
	}
	text := escapeMarkdown(w.Text())
	switch v := w.(type) {
	case *model.Control:
		s := fmt.Sprintf("**%s** `%s`", text, v.Action)
		if v.Disabled {
			s += " _(disabled)_"
		}
		if v.Tooltip != "" {
			s += " - " + escapeMarkdown(v.Tooltip)
		}
		return s
	case *model.IconLabel:
		return fmt.Sprintf("%s _(%s)_", text, v.Icon)
	}
	return text
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
