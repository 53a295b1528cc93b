package ui

import (
	"fmt"
	"strings"

	"github.com/olivier-w/osciline/internal/params"
)

func renderBar(value, lo, hi float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2

	var ratio float64
	if hi > lo {
		ratio = (value - lo) / (hi - lo)
	}
	ratio = min(max(ratio, 0), 1)

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

// renderSlider draws one control row: name, bar and value in slider units.
func renderSlider(s params.Slider, p params.Params, width int, selected bool) string {
	v := p.SliderValue(s.Field)
	name := fmt.Sprintf("%-11s", s.Name)
	bar := renderBar(v, s.Min, s.Max, width)
	val := formatSliderValue(s, v)
	if selected {
		return selectedStyle.Render("▸ "+name) + " " + selectedStyle.Render(bar) + " " + valueStyle.Render(val)
	}
	return labelStyle.Render("  "+name) + " " + helpStyle.Render(bar) + " " + valueStyle.Render(val)
}

func formatSliderValue(s params.Slider, v float64) string {
	if s.Step >= 1 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func renderSwatch(label string, c params.RGB) string {
	return labelStyle.Render(label+" ") + valueStyle.Render(c.Hex())
}
