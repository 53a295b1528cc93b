package wave

import "math"

// Hash constants shared with the fragment shader in internal/glview.
const (
	HashScale = 78.233
	HashGain  = 43758.5453
)

// Hash maps a seed to a pseudo-random value in [0,1).
// It is fract(sin(seed*HashScale)*HashGain), the same expression the shader uses.
func Hash(seed float64) float64 {
	v := math.Sin(seed*HashScale) * HashGain
	f := v - math.Floor(v)
	// v slightly below an integer can round up to exactly 1.
	if f >= 1 {
		return 0
	}
	return f
}
