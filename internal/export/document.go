package export

import (
	"bufio"
	"bytes"
	"image"
	"image/png"
	"io"
	"strconv"

	"github.com/olivier-w/osciline/internal/params"
)

// Default file names handed to the save collaborator.
const (
	SVGName = "scanlines.svg"
	PNGName = "scanlines.png"
)

// Point is a sampled polyline vertex in pixels, y down.
type Point struct {
	X, Y float64
}

// Path is one exported scanline.
type Path []Point

// Document is the finished vector rendition.
type Document struct {
	Width       int
	Height      int
	Background  params.RGB
	Stroke      params.RGB
	StrokeWidth float64
	Paths       []Path
	// Requested is the live row count; it exceeds len(Paths) when the
	// export was clamped.
	Requested int
}

// Clamped reports whether lines were dropped by the row ceiling.
func (d *Document) Clamped() bool { return d.Requested > len(d.Paths) }

// WriteSVG encodes the document as SVG. Coordinates carry one decimal.
func (d *Document) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var num []byte
	f := func(v float64) {
		num = strconv.AppendFloat(num[:0], v, 'f', 1, 64)
		bw.Write(num)
	}
	i := func(v int) {
		num = strconv.AppendInt(num[:0], int64(v), 10)
		bw.Write(num)
	}

	bw.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="`)
	i(d.Width)
	bw.WriteString(`" height="`)
	i(d.Height)
	bw.WriteString(`" viewBox="0 0 `)
	i(d.Width)
	bw.WriteByte(' ')
	i(d.Height)
	bw.WriteString("\">\n")

	bw.WriteString(`<rect width="100%" height="100%" fill="`)
	bw.WriteString(d.Background.Hex())
	bw.WriteString("\"/>\n")

	bw.WriteString(`<g fill="none" stroke="`)
	bw.WriteString(d.Stroke.Hex())
	bw.WriteString(`" stroke-width="`)
	f(d.StrokeWidth)
	bw.WriteString("\">\n")
	for _, p := range d.Paths {
		if len(p) == 0 {
			continue
		}
		bw.WriteString(`<path d="M `)
		for k, pt := range p {
			if k > 0 {
				bw.WriteString(" L ")
			}
			f(pt.X)
			bw.WriteByte(',')
			f(pt.Y)
		}
		bw.WriteString("\"/>\n")
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

// SVG returns the encoded document.
func (d *Document) SVG() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WriteSVG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes a raster snapshot to accompany the vector document.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
