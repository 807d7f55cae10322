package export

import (
	"fmt"
	"io"

	"git.sr.ht/~sbinet/gg"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
	"golang.org/x/image/font/basicfont"
)

// PNG rasterizes the same diagram as SVG and writes it to path.
func PNG(path string, t *tree.Tree) error {
	if err := drawPNG(t).SavePNG(path); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// EncodePNG rasterizes t and writes the PNG to w.
func EncodePNG(w io.Writer, t *tree.Tree) error {
	return drawPNG(t).EncodePNG(w)
}

func drawPNG(t *tree.Tree) *gg.Context {
	l := layoutTree(t)
	dc := gg.NewContext(l.width, l.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	// 7x13 matches charWidth, so box widths fit their labels.
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetLineWidth(1)
	dc.SetHexColor(strokeColor)
	for _, b := range l.boxes {
		if b.parent < 0 {
			continue
		}
		x1, y1, x2, y2, x3, y3 := l.connector(b)
		dc.MoveTo(float64(x1), float64(y1))
		dc.LineTo(float64(x2), float64(y2))
		dc.LineTo(float64(x3), float64(y3))
		dc.Stroke()
	}

	for _, b := range l.boxes {
		x, y := float64(b.x), float64(b.y)
		w, h := float64(b.w), float64(boxHeight)

		dc.DrawRoundedRectangle(x, y, w, h, 4)
		dc.SetHexColor(fill(b.kind))
		dc.FillPreserve()
		dc.SetHexColor(strokeColor)
		dc.Stroke()

		color := textColor
		if c, ok := b.node.Payload().(*model.Control); ok && c.Disabled {
			color = mutedColor
		}
		dc.SetHexColor(color)
		dc.DrawString(b.label, x+boxPad, y+h-6)
	}
	return dc
}
