// Package params models the effect parameters shared by the live renderer
// and the vector exporter.
package params

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/olivier-w/osciline/internal/wave"
)

const (
	MaxRows       = 1000
	MaxWeight     = 10
	MaxBrightness = 4
	MaxAmplitude  = 2
	MaxFrequency  = 100
	MaxComplexity = 32

	MinAspect = 0.25
	MaxAspect = 4
)

// RGB is a colour with components in [0,1].
type RGB [3]float64

// ParseHex parses "#rrggbb" into an RGB.
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return RGB{c.R, c.G, c.B}.Clamp(), nil
}

// Hex formats the colour as "#rrggbb".
func (c RGB) Hex() string {
	c = c.Clamp()
	return colorful.Color{R: c[0], G: c[1], B: c[2]}.Hex()
}

// Clamp limits every component to [0,1].
func (c RGB) Clamp() RGB {
	for i := range c {
		c[i] = clamp(c[i], 0, 1)
	}
	return c
}

// Bytes returns the colour as 8-bit components.
func (c RGB) Bytes() (r, g, b uint8) {
	c = c.Clamp()
	return uint8(math.Round(c[0] * 255)), uint8(math.Round(c[1] * 255)), uint8(math.Round(c[2] * 255))
}

// Params is the mutable parameter state read by both backends.
type Params struct {
	Rows       float64
	Weight     float64
	Brightness float64
	Amplitude  float64
	Frequency  float64
	Complexity int
	Desync     float64
	LineColor  RGB
	Background RGB

	// Width and Height are the output resolution in device pixels.
	Width  int
	Height int
	// Aspect is width/height of the bound source media; 0 means none bound.
	Aspect float64
}

// Defaults returns the start-up parameters.
func Defaults() Params {
	return Params{
		Rows:       100,
		Weight:     0.5,
		Brightness: 1,
		LineColor:  RGB{0, 1, 0.2},
		Background: RGB{0, 0, 0},
	}
}

// Clamp brings every field into its valid range. Out-of-range input is
// never an error.
func (p Params) Clamp() Params {
	p.Rows = clamp(p.Rows, 1, MaxRows)
	p.Weight = clamp(p.Weight, 0, MaxWeight)
	p.Brightness = clamp(p.Brightness, 0, MaxBrightness)
	p.Amplitude = clamp(p.Amplitude, 0, MaxAmplitude)
	p.Frequency = clamp(p.Frequency, 0, MaxFrequency)
	if p.Complexity < 0 {
		p.Complexity = 0
	}
	if p.Complexity > MaxComplexity {
		p.Complexity = MaxComplexity
	}
	p.Desync = clamp(p.Desync, 0, 1)
	p.LineColor = p.LineColor.Clamp()
	p.Background = p.Background.Clamp()
	if p.Width < 0 {
		p.Width = 0
	}
	if p.Height < 0 {
		p.Height = 0
	}
	if p.Aspect != 0 {
		p.Aspect = ClampAspect(p.Aspect)
	}
	return p
}

// RowCount is the integer number of lines drawn: every i with i < Rows.
func (p Params) RowCount() int {
	return int(math.Ceil(p.Rows))
}

// HalfWeight is the normalized half thickness of a line.
func (p Params) HalfWeight() float64 {
	if p.Rows <= 0 {
		return 0
	}
	return (p.Weight / p.Rows) * 0.15
}

// Wave returns the synthesizer parameters.
func (p Params) Wave() wave.Params {
	return wave.Params{
		Amplitude:  p.Amplitude,
		Frequency:  p.Frequency,
		Complexity: p.Complexity,
		Desync:     p.Desync,
	}
}

// ClampAspect keeps an aspect ratio away from degenerate values.
func ClampAspect(a float64) float64 {
	if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return 1
	}
	return clamp(a, MinAspect, MaxAspect)
}

// AspectOf computes a clamped aspect ratio for a w×h source.
func AspectOf(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	return ClampAspect(float64(w) / float64(h))
}

// Fit returns the largest w×h box with the given aspect inside a viewW×viewH
// viewport. An aspect of 0 fills the viewport.
func Fit(viewW, viewH int, aspect float64) (w, h int) {
	if viewW <= 0 || viewH <= 0 {
		return 0, 0
	}
	if aspect <= 0 {
		return viewW, viewH
	}
	aspect = ClampAspect(aspect)
	if float64(viewW)/float64(viewH) > aspect {
		h = viewH
		w = int(math.Round(float64(viewH) * aspect))
	} else {
		w = viewW
		h = int(math.Round(float64(viewW) / aspect))
	}
	return max(w, 1), max(h, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
