package chart

import (
	"strings"
	"testing"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/meter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalSurfaceRender(t *testing.T) {
	surface, err := NewTerminalSurface(voltageCurrent)
	require.NoError(t, err)

	require.NoError(t, surface.Load([]meter.ChartPoint{
		{Timestamp: 1_700_000_000_000, Left: meter.Float(5.0), Right: meter.Float(0.5)},
		{Timestamp: 1_700_000_001_000, Left: meter.Float(5.1)},
	}))
	require.NoError(t, surface.Append([]meter.ChartPoint{
		{Timestamp: 1_700_000_002_000, Right: meter.Float(0.7)},
	}))
	assert.Equal(t, 3, surface.Len())

	out := surface.Render(60, 12)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 12)
	assert.Contains(t, out, "Voltage (V)")
	assert.Contains(t, out, "Current (A)")
	assert.Contains(t, out, string(leftGlyph))
	assert.Contains(t, out, string(rightGlyph))
	assert.Contains(t, out, "5.100")
}

func TestTerminalSurfaceTooSmall(t *testing.T) {
	surface, _ := NewTerminalSurface(voltageCurrent)
	assert.Empty(t, surface.Render(20, 3))
}

func TestTerminalSurfaceEmpty(t *testing.T) {
	surface, _ := NewTerminalSurface(voltageCurrent)
	assert.Contains(t, surface.Render(60, 12), "waiting for data")
}

func TestTerminalSurfaceDisposed(t *testing.T) {
	surface, _ := NewTerminalSurface(voltageCurrent)
	surface.Dispose()

	assert.True(t, errors.HasCode(surface.Append(nil), ErrDisposed))
	assert.Zero(t, surface.Len())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "5.010", formatValue(5.01))
	assert.Equal(t, "12.5", formatValue(12.5))
	assert.Equal(t, "1500", formatValue(1500))
}
