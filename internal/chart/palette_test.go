package chart

import (
	"testing"

	"codeberg.org/mutker/meterdash/internal/device"
	"codeberg.org/mutker/meterdash/internal/meter"
	"github.com/stretchr/testify/assert"
)

func TestResolveIsTotal(t *testing.T) {
	names := []string{"", "unknown", "timestamp"}
	for _, m := range device.Metrics() {
		names = append(names, m.Name)
	}

	for _, mode := range append(meter.ColorModes, meter.ColorMode("sepia")) {
		p := PaletteFor(mode)
		for _, name := range names {
			assert.NotEmpty(t, p.Resolve(name), "%s/%s", mode, name)
		}
	}
}

func TestResolveFallback(t *testing.T) {
	p := PaletteFor(meter.ColorModeContrast)
	assert.Equal(t, p.Fallback, p.Resolve("temperature"))
	assert.NotEqual(t, p.Fallback, p.Resolve("voltage"))

	assert.Equal(t, meter.ColorModeLight, PaletteFor("sepia").Mode)
}

func TestSeriesColorsSameMetric(t *testing.T) {
	left, right := SeriesColors(meter.AxisSelection{LeftMetric: "power", RightMetric: "power"})
	assert.NotEqual(t, left, right)
}
