package export

import (
	"github.com/mattn/go-runewidth"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// Diagram geometry, in pixels.
const (
	margin    = 16
	rowHeight = 28
	boxHeight = 20
	indent    = 24
	charWidth = 7
	boxPad    = 8
)

// box is one node placed on the diagram. Boxes are in pre-order, so a
// parent always comes before its children.
type box struct {
	node   *tree.Node
	label  string
	kind   model.Kind
	x, y   int
	w      int
	parent int // index of the parent box, -1 for top level
}

type layout struct {
	boxes         []box
	width, height int
}

// layoutTree places every attached node on its own row, indented by depth.
func layoutTree(t *tree.Tree) layout {
	var l layout
	index := make(map[tree.NodeID]int)
	row := 0
	for n := range t.All() {
		label := n.Name()
		kind := model.KindLabel
		if w, ok := model.AsWidget(n.Payload()); ok {
			label = w.Text()
			kind = w.Kind()
		}
		b := box{
			node:   n,
			label:  label,
			kind:   kind,
			x:      margin + (n.Depth()-1)*indent,
			y:      margin + row*rowHeight,
			w:      runewidth.StringWidth(label)*charWidth + 2*boxPad,
			parent: -1,
		}
		if p := n.Parent(); !p.IsRoot() {
			b.parent = index[p.ID()]
		}
		index[n.ID()] = len(l.boxes)
		l.boxes = append(l.boxes, b)
		l.width = max(l.width, b.x+b.w+margin)
		row++
	}
	l.width = max(l.width, 2*margin)
	l.height = margin*2 + max(row*rowHeight-(rowHeight-boxHeight), 0)
	return l
}

// connector returns the elbow from the parent's box down and across to b.
func (l layout) connector(b box) (x1, y1, x2, y2, x3, y3 int) {
	p := l.boxes[b.parent]
	x1 = p.x + indent/2
	y1 = p.y + boxHeight
	x2 = x1
	y2 = b.y + boxHeight/2
	x3 = b.x
	y3 = y2
	return
}

// fill is the box colour for each widget kind.
func fill(k model.Kind) string {
	switch k {
	case model.KindControl:
		return "#DBEAFE"
	case model.KindIconLabel:
		return "#FEF3C7"
	}
	return "#F3F4F6"
}
