package export

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

const (
	strokeColor = "#6B7280"
	textColor   = "#111827"
	mutedColor  = "#9CA3AF"
)

// SVG draws t as an indented box diagram with elbow connectors.
func SVG(w io.Writer, t *tree.Tree) error {
	l := layoutTree(t)
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(l.width, l.height)
	canvas.Title("arbor outline")
	canvas.Rect(0, 0, l.width, l.height, "fill:white")

	canvas.Gstyle(fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", strokeColor))
	for _, b := range l.boxes {
		if b.parent < 0 {
			continue
		}
		x1, y1, x2, y2, x3, y3 := l.connector(b)
		canvas.Polyline([]int{x1, x2, x3}, []int{y1, y2, y3})
	}
	canvas.Gend()

	for _, b := range l.boxes {
		style := fmt.Sprintf("fill:%s;stroke:%s", fill(b.kind), strokeColor)
		text := fmt.Sprintf("font-family:monospace;font-size:12px;fill:%s", textColor)
		if c, ok := b.node.Payload().(*model.Control); ok && c.Disabled {
			style += ";stroke-dasharray:3,2"
			text = fmt.Sprintf("font-family:monospace;font-size:12px;fill:%s", mutedColor)
		}
		canvas.Roundrect(b.x, b.y, b.w, boxHeight, 4, 4, style)
		canvas.Text(b.x+boxPad, b.y+boxHeight-6, b.label, text)
	}

	canvas.End()
	return ew.err
}

// errWriter keeps the first write error, since svgo drops them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
