package export

import (
	"image"

	"github.com/fogleman/gg"
)

// Rasterize strokes the document's polylines into an image the size of the
// document. It stands in for the live snapshot when no frame was captured.
func (d *Document) Rasterize() image.Image {
	ctx := gg.NewContext(max(d.Width, 1), max(d.Height, 1))
	ctx.SetRGB(d.Background[0], d.Background[1], d.Background[2])
	ctx.Clear()
	ctx.SetRGB(d.Stroke[0], d.Stroke[1], d.Stroke[2])
	ctx.SetLineWidth(d.StrokeWidth)
	for _, p := range d.Paths {
		if len(p) == 0 {
			continue
		}
		ctx.MoveTo(p[0].X, p[0].Y)
		for _, pt := range p[1:] {
			ctx.LineTo(pt.X, pt.Y)
		}
		ctx.Stroke()
		ctx.ClearPath()
	}
	return ctx.Image()
}
