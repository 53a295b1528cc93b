package params

import (
	"fmt"
	"math"
)

// Field identifies one adjustable parameter.
type Field uint8

const (
	FieldRows Field = iota
	FieldWeight
	FieldBrightness
	FieldAmplitude
	FieldFrequency
	FieldComplexity
	FieldDesync
)

// Slider describes how a field is exposed as a control: the control works in
// slider units and the parameter is slider/Scale.
type Slider struct {
	Field Field
	Name  string
	Min   float64
	Max   float64
	Step  float64
	Scale float64
}

// Sliders lists the controls in display order.
var Sliders = []Slider{
	{FieldRows, "rows", 1, MaxRows, 1, 1},
	{FieldWeight, "weight", 0, MaxWeight, 0.1, 1},
	{FieldBrightness, "brightness", 0, MaxBrightness * 100, 5, 100},
	{FieldAmplitude, "amplitude", 0, MaxAmplitude * 1000, 5, 1000},
	{FieldFrequency, "frequency", 0, MaxFrequency * 10, 5, 10},
	{FieldComplexity, "complexity", 0, MaxComplexity, 1, 1},
	{FieldDesync, "desync", 0, 100, 5, 100},
}

// SliderFor returns the slider for f.
func SliderFor(f Field) Slider {
	for _, s := range Sliders {
		if s.Field == f {
			return s
		}
	}
	panic(fmt.Sprintf("params: unknown field %d", f))
}

func (f Field) String() string {
	return SliderFor(f).Name
}

// Get returns the field value in parameter units.
func (p Params) Get(f Field) float64 {
	switch f {
	case FieldRows:
		return p.Rows
	case FieldWeight:
		return p.Weight
	case FieldBrightness:
		return p.Brightness
	case FieldAmplitude:
		return p.Amplitude
	case FieldFrequency:
		return p.Frequency
	case FieldComplexity:
		return float64(p.Complexity)
	case FieldDesync:
		return p.Desync
	}
	return 0
}

// Set assigns the field in parameter units and clamps the result.
func (p Params) Set(f Field, v float64) Params {
	switch f {
	case FieldRows:
		p.Rows = v
	case FieldWeight:
		p.Weight = v
	case FieldBrightness:
		p.Brightness = v
	case FieldAmplitude:
		p.Amplitude = v
	case FieldFrequency:
		p.Frequency = v
	case FieldComplexity:
		p.Complexity = int(math.Round(v))
	case FieldDesync:
		p.Desync = v
	}
	return p.Clamp()
}

// SliderValue returns the field value in slider units.
func (p Params) SliderValue(f Field) float64 {
	return p.Get(f) * SliderFor(f).Scale
}

// SetSlider assigns the field from a value in slider units.
func (p Params) SetSlider(f Field, v float64) Params {
	s := SliderFor(f)
	v = clamp(v, s.Min, s.Max)
	return p.Set(f, v/s.Scale)
}

// Nudge moves the field by steps slider steps.
func (p Params) Nudge(f Field, steps float64) Params {
	s := SliderFor(f)
	return p.SetSlider(f, p.SliderValue(f)+steps*s.Step)
}
