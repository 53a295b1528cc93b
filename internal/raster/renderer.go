// Package raster is the live per-pixel backend: it composites every
// scanline into an RGBA frame each animation tick.
package raster

import (
	"image"
	"math"

	"github.com/olivier-w/osciline/internal/media"
	"github.com/olivier-w/osciline/internal/params"
	"github.com/olivier-w/osciline/internal/wave"
)

// Renderer evaluates the scanline effect for every pixel of a frame.
// Pixels are visited column by column: the wave and the brightness
// disruption depend only on u and the line, so each (column, line) pair is
// evaluated once and only the pixels within reach of the line are shaded.
// The result equals a full per-pixel max over all lines.
type Renderer struct {
	eval  wave.Evaluator32
	cover []float32
}

// Render draws the effect for parameters p at time t into dst. tex is the
// source frame sampled for brightness disruption; nil means no media.
func (r *Renderer) Render(dst *image.RGBA, p params.Params, t float64, tex *media.Frame) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return
	}
	rows := p.RowCount()
	r.eval.Prepare(p.Wave(), rows, t)
	if cap(r.cover) < h {
		r.cover = make([]float32, h)
	}
	cover := r.cover[:h]

	fh := float32(h)
	hw := float32(p.HalfWeight())
	aa := 1 / fh
	reach := hw + aa
	invRows := float32(1 / p.Rows)

	gain := float32(p.Brightness)
	var line, bg [3]float32
	for i := 0; i < 3; i++ {
		line[i] = float32(p.LineColor[i])
		bg[i] = float32(p.Background[i])
	}

	for x := 0; x < w; x++ {
		clear(cover)
		u := (float32(x) + 0.5) / float32(w)
		for i := 0; i < rows; i++ {
			lineY := float32(i) * invRows
			fy := lineY + r.eval.Displacement(u, i) + disruption(tex, u, lineY)

			y0 := int(math.Floor(float64((fy-reach)*fh - 0.5)))
			y1 := int(math.Ceil(float64((fy+reach)*fh - 0.5)))
			y0 = max(y0, 0)
			y1 = min(y1, h-1)
			for y := y0; y <= y1; y++ {
				v := (float32(y) + 0.5) / fh
				c := Coverage(abs32(v-fy), hw, aa)
				if c > cover[y] {
					cover[y] = c
				}
			}
		}

		off := dst.PixOffset(b.Min.X+x, b.Min.Y)
		for y := 0; y < h; y++ {
			c := cover[y]
			pix := dst.Pix[off : off+4 : off+4]
			for k := 0; k < 3; k++ {
				pix[k] = toByte((bg[k] + (line[k]-bg[k])*c) * gain)
			}
			pix[3] = 0xff
			off += dst.Stride
		}
	}
}

// Coverage is the soft-edged intensity of a line of half width hw at
// distance dist, fading to zero over aa.
func Coverage(dist, hw, aa float32) float32 {
	return 1 - smoothstep(hw, hw+aa, dist)
}

func disruption(tex *media.Frame, u, v float32) float32 {
	if tex == nil {
		return 0
	}
	d, err := media.FrameDisruption(tex, float64(u), float64(v))
	if err != nil {
		return 0
	}
	return float32(d)
}

func smoothstep(e0, e1, x float32) float32 {
	if e1 <= e0 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := (x - e0) / (e1 - e0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
