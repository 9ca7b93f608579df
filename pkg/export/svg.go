package export

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/treestack/pkg/model"
)

// Diagram geometry shared by the SVG and PNG renderers.
const (
	rowHeight   = 28
	indentWidth = 24
	margin      = 16
	charWidth   = 8
	boxPadding  = 8
	titleHeight = 32
)

type box struct {
	x, y, w, h int
	row        Row
}

// layoutBoxes positions one box per row, children indented under their
// parent.
func layoutBoxes(rows []Row, title string) (boxes []box, width, height int) {
	top := margin
	if title != "" {
		top += titleHeight
	}
	width = 2*margin + len(title)*charWidth
	for i, r := range rows {
		b := box{
			x:   margin + r.Depth*indentWidth,
			y:   top + i*rowHeight,
			w:   len([]rune(r.Label))*charWidth + 2*boxPadding,
			h:   rowHeight - 6,
			row: r,
		}
		boxes = append(boxes, b)
		if right := b.x + b.w + margin; right > width {
			width = right
		}
	}
	height = top + len(rows)*rowHeight + margin
	return boxes, width, height
}

// connectors returns parent/child box index pairs.
func connectors(boxes []box) [][2]int {
	var links [][2]int
	stack := []int{}
	for i, b := range boxes {
		for len(stack) > b.row.Depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			links = append(links, [2]int{stack[len(stack)-1], i})
		}
		stack = append(stack, i)
	}
	return links
}

type palette struct {
	fill, stroke, text string
}

func paletteFor(r Row) palette {
	switch {
	case r.Hidden:
		return palette{"#F5F5F5", "#BDBDBD", "#9E9E9E"}
	case r.Disabled:
		return palette{"#EEEEEE", "#9E9E9E", "#757575"}
	case r.Selected:
		return palette{"#E3F2FD", "#1E88E5", "#0D47A1"}
	default:
		return palette{"#FFFFFF", "#616161", "#212121"}
	}
}

// WriteSVG renders the forest as an indented box diagram.
func WriteSVG(w io.Writer, nodes []model.Node, title string, opts Options) error {
	rows := Flatten(nodes, opts)
	boxes, width, height := layoutBoxes(rows, title)

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#FAFAFA")
	if title != "" {
		canvas.Title(title)
		canvas.Text(margin, margin+16, title, "font-family:sans-serif;font-size:16px;font-weight:bold;fill:#212121")
	}

	canvas.Gstyle("stroke:#9E9E9E;stroke-width:1;fill:none")
	for _, l := range connectors(boxes) {
		p, c := boxes[l[0]], boxes[l[1]]
		x := p.x + indentWidth/2
		y := c.y + c.h/2
		canvas.Polyline([]int{x, x, c.x}, []int{p.y + p.h, y, y})
	}
	canvas.Gend()

	for _, b := range boxes {
		pal := paletteFor(b.row)
		canvas.Group(fmt.Sprintf(`id="%s"`, xmlID(b.row.Key)))
		canvas.Roundrect(b.x, b.y, b.w, b.h, 4, 4,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", pal.fill, pal.stroke))
		style := fmt.Sprintf("font-family:monospace;font-size:13px;fill:%s", pal.text)
		if b.row.Disabled {
			style += ";text-decoration:line-through"
		}
		canvas.Text(b.x+boxPadding, b.y+b.h/2+4, b.row.Label, style)
		canvas.Gend()
	}

	canvas.End()
	return nil
}

// xmlID makes a key safe for use as an XML id attribute.
func xmlID(key string) string {
	out := []rune("n-")
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
