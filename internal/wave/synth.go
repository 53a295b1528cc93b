package wave

import "math"

// Params holds the wave-shaping subset of the effect parameters.
type Params struct {
	Amplitude  float64
	Frequency  float64
	Complexity int
	Desync     float64
}

// Stability damps desynchronization and frequency as amplitude grows.
func Stability(amplitude float64) float64 {
	return 1 / (1 + amplitude*0.5)
}

// TimeRate is the number of time quanta per second at the given amplitude.
func TimeRate(amplitude float64) float64 {
	return 20 / (1 + amplitude)
}

// StableTime quantizes t so high amplitudes step more coarsely through time.
func StableTime(t, amplitude float64) float64 {
	rate := TimeRate(amplitude)
	return math.Floor(t*rate) / rate
}

// ComplexityGain is the saturation factor 1-e^-n applied to the harmonic sum.
func ComplexityGain(complexity int) float64 {
	if complexity <= 0 {
		return 0
	}
	return 1 - math.Exp(-float64(complexity))
}

// RandomDamp is lerp(1, 0.3, amplitude) with amplitude clamped to [0,1].
func RandomDamp(amplitude float64) float64 {
	a := math.Min(math.Max(amplitude, 0), 1)
	return 1 + (0.3-1)*a
}

// HarmonicAmplitude is the weight of harmonic i (1-based).
func HarmonicAmplitude(amplitude float64, i int) float64 {
	return amplitude / (float64(i) + amplitude*0.5)
}

// Displacement returns the vertical offset of line at horizontal position u
// and time t, in normalized frame units.
func Displacement(p Params, u float64, line int, t float64) float64 {
	if p.Complexity <= 0 || p.Amplitude <= 0 {
		return 0
	}
	stability := Stability(p.Amplitude)
	li := float64(line)
	linePhase := Hash(li) * 2 * math.Pi * p.Desync * stability
	st := StableTime(t, p.Amplitude)
	damp := RandomDamp(p.Amplitude)

	var sum float64
	for i := 1; i <= p.Complexity; i++ {
		fi := float64(i)
		randomFactor := Hash(fi+li) * damp
		phase := st*(0.5+randomFactor*0.5) + linePhase
		freq := p.Frequency * stability * (1 + Hash(fi*li)*p.Desync*stability)
		sum += math.Sin(u*freq+phase) * HarmonicAmplitude(p.Amplitude, i)
	}
	return sum * ComplexityGain(p.Complexity)
}

// Bound is the largest |Displacement| the parameters can produce.
func Bound(p Params) float64 {
	if p.Complexity <= 0 || p.Amplitude <= 0 {
		return 0
	}
	var sum float64
	for i := 1; i <= p.Complexity; i++ {
		sum += HarmonicAmplitude(p.Amplitude, i)
	}
	return sum * ComplexityGain(p.Complexity)
}
