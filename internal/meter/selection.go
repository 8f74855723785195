package meter

import (
	"strings"

	"codeberg.org/mutker/meterdash/internal/errors"
)

// ColorMode names a chart palette.
type ColorMode string

const (
	ColorModeLight    ColorMode = "light"
	ColorModeDark     ColorMode = "dark"
	ColorModeContrast ColorMode = "contrast"
)

// ColorModes lists the palettes in the order the dashboard cycles them.
var ColorModes = []ColorMode{ColorModeLight, ColorModeDark, ColorModeContrast}

// ParseColorMode accepts a palette name case-insensitively.
func ParseColorMode(name string) (ColorMode, error) {
	mode := ColorMode(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range ColorModes {
		if mode == known {
			return mode, nil
		}
	}

	return "", errors.New().WithData(ErrInvalidColorMode, name)
}

// Next returns the palette following m, wrapping around.
func (m ColorMode) Next() ColorMode {
	for i, known := range ColorModes {
		if known == m {
			return ColorModes[(i+1)%len(ColorModes)]
		}
	}

	return ColorModes[0]
}

// AxisSelection is the user's choice of metrics for the left and right axes
// plus the palette. It is replaced wholesale on every change.
type AxisSelection struct {
	LeftMetric  string
	RightMetric string
	ColorMode   ColorMode
}

// Equal reports whether two selections would render the same series.
func (s AxisSelection) Equal(other AxisSelection) bool {
	return s == other
}
