package wave

import "math"

// Evaluator32 is the single-precision per-pixel evaluator used by the raster
// backend. Everything that does not depend on u is folded into per-frame
// tables by Prepare, so Displacement is a tight loop of sines with no hashing
// and no allocation.
type Evaluator32 struct {
	rows       int
	complexity int
	gain       float32
	amp        []float32 // per harmonic
	freq       []float32 // per line*complexity + harmonic
	phase      []float32 // per line*complexity + harmonic
}

// Prepare recomputes the tables for rows lines at time t. Buffers are reused
// across frames and only grow.
func (e *Evaluator32) Prepare(p Params, rows int, t float64) {
	if rows < 0 {
		rows = 0
	}
	e.rows = rows
	if p.Complexity <= 0 || p.Amplitude <= 0 {
		e.complexity = 0
		e.gain = 0
		return
	}
	e.complexity = p.Complexity
	e.gain = float32(ComplexityGain(p.Complexity))

	n := rows * p.Complexity
	e.amp = grow(e.amp, p.Complexity)
	e.freq = grow(e.freq, n)
	e.phase = grow(e.phase, n)

	for i := 1; i <= p.Complexity; i++ {
		e.amp[i-1] = float32(HarmonicAmplitude(p.Amplitude, i))
	}

	stability := Stability(p.Amplitude)
	st := StableTime(t, p.Amplitude)
	damp := RandomDamp(p.Amplitude)
	for line := 0; line < rows; line++ {
		li := float64(line)
		linePhase := Hash(li) * 2 * math.Pi * p.Desync * stability
		base := line * p.Complexity
		for i := 1; i <= p.Complexity; i++ {
			fi := float64(i)
			randomFactor := Hash(fi+li) * damp
			phase := st*(0.5+randomFactor*0.5) + linePhase
			// Wrap so the float32 addition in the inner loop keeps precision.
			e.phase[base+i-1] = float32(math.Mod(phase, 2*math.Pi))
			e.freq[base+i-1] = float32(p.Frequency * stability * (1 + Hash(fi*li)*p.Desync*stability))
		}
	}
}

// Displacement evaluates the prepared wave for line at u.
func (e *Evaluator32) Displacement(u float32, line int) float32 {
	if e.complexity == 0 || line < 0 || line >= e.rows {
		return 0
	}
	base := line * e.complexity
	freq := e.freq[base : base+e.complexity]
	phase := e.phase[base : base+e.complexity]
	var sum float32
	for k, a := range e.amp[:e.complexity] {
		sum += float32(math.Sin(float64(u*freq[k]+phase[k]))) * a
	}
	return sum * e.gain
}

func grow(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
