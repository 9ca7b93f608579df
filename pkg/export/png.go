package export

import (
	"io"

	"git.sr.ht/~sbinet/gg"

	"github.com/vanderheijden86/treestack/pkg/model"
)

func renderPNG(nodes []model.Node, title string, opts Options) *gg.Context {
	rows := Flatten(nodes, opts)
	boxes, width, height := layoutBoxes(rows, title)

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#FAFAFA")
	dc.Clear()

	if title != "" {
		dc.SetHexColor("#212121")
		dc.DrawString(title, margin, margin+16)
	}

	dc.SetHexColor("#9E9E9E")
	dc.SetLineWidth(1)
	for _, l := range connectors(boxes) {
		p, c := boxes[l[0]], boxes[l[1]]
		x := float64(p.x + indentWidth/2)
		y := float64(c.y + c.h/2)
		dc.DrawLine(x, float64(p.y+p.h), x, y)
		dc.DrawLine(x, y, float64(c.x), y)
		dc.Stroke()
	}

	for _, b := range boxes {
		pal := paletteFor(b.row)
		x, y, w, h := float64(b.x), float64(b.y), float64(b.w), float64(b.h)

		dc.DrawRoundedRectangle(x, y, w, h, 4)
		dc.SetHexColor(pal.fill)
		dc.FillPreserve()
		dc.SetHexColor(pal.stroke)
		dc.Stroke()

		dc.SetHexColor(pal.text)
		dc.DrawStringAnchored(b.row.Label, x+boxPadding, y+h/2, 0, 0.35)
		if b.row.Disabled {
			tw, _ := dc.MeasureString(b.row.Label)
			dc.DrawLine(x+boxPadding, y+h/2, x+boxPadding+tw, y+h/2)
			dc.Stroke()
		}
	}
	return dc
}

// WritePNG renders the same box diagram as WriteSVG as a PNG image.
func WritePNG(w io.Writer, nodes []model.Node, title string, opts Options) error {
	return renderPNG(nodes, title, opts).EncodePNG(w)
}

// SavePNG writes the diagram to path.
func SavePNG(path string, nodes []model.Node, title string, opts Options) error {
	return renderPNG(nodes, title, opts).SavePNG(path)
}
