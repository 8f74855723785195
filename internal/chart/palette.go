package chart

import (
	"codeberg.org/mutker/meterdash/internal/meter"
	"github.com/charmbracelet/lipgloss"
)

// Palette maps metric names to series colors for one color mode.
type Palette struct {
	Mode     meter.ColorMode
	Series   map[string]lipgloss.Color
	Fallback lipgloss.Color
	Axis     lipgloss.Color
}

var palettes = map[meter.ColorMode]Palette{
	meter.ColorModeLight: {
		Mode: meter.ColorModeLight,
		Series: map[string]lipgloss.Color{
			"voltage":             "#1f77b4",
			"current":             "#d62728",
			"power":               "#2ca02c",
			"temperature":         "#ff7f0e",
			"resistance":          "#9467bd",
			"accumulated_current": "#8c564b",
			"accumulated_power":   "#e377c2",
		},
		Fallback: "#7f7f7f",
		Axis:     "#555555",
	},
	meter.ColorModeDark: {
		Mode: meter.ColorModeDark,
		Series: map[string]lipgloss.Color{
			"voltage":             "#6cb6ff",
			"current":             "#ff7b72",
			"power":               "#7ee787",
			"temperature":         "#ffa657",
			"resistance":          "#d2a8ff",
			"accumulated_current": "#e3b341",
			"accumulated_power":   "#f778ba",
		},
		Fallback: "#b1bac4",
		Axis:     "#8b949e",
	},
	meter.ColorModeContrast: {
		Mode: meter.ColorModeContrast,
		Series: map[string]lipgloss.Color{
			"voltage": "#00ffff",
			"current": "#ffff00",
			"power":   "#00ff00",
		},
		Fallback: "#ffffff",
		Axis:     "#ffffff",
	},
}

// PaletteFor returns the palette of a color mode, falling back to the light
// palette for unknown modes.
func PaletteFor(mode meter.ColorMode) Palette {
	if p, ok := palettes[mode]; ok {
		return p
	}

	return palettes[meter.ColorModeLight]
}

// Resolve returns the color of a metric. Every metric resolves.
func (p Palette) Resolve(metric string) lipgloss.Color {
	if c, ok := p.Series[metric]; ok {
		return c
	}

	return p.Fallback
}

// SeriesColors returns the left and right series colors for a selection.
// When both axes show the same metric the right series uses the fallback
// color so the two stay distinguishable.
func SeriesColors(sel meter.AxisSelection) (left, right lipgloss.Color) {
	p := PaletteFor(sel.ColorMode)
	left = p.Resolve(sel.LeftMetric)
	right = p.Resolve(sel.RightMetric)
	if sel.LeftMetric == sel.RightMetric && left != p.Fallback {
		right = p.Fallback
	}

	return left, right
}
