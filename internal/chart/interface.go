package chart

import "codeberg.org/mutker/meterdash/internal/meter"

// Surface is a rendering target for the two series. A surface is owned by
// exactly one Sink and is disposed before it is replaced.
type Surface interface {
	Load(points []meter.ChartPoint) error
	Append(points []meter.ChartPoint) error
	Len() int
	Render(width, height int) string
	Dispose()
}

// SurfaceFactory builds a surface for a selection.
type SurfaceFactory func(sel meter.AxisSelection) (Surface, error)

// Token identifies one reconfiguration. Only the newest token may complete.
type Token uint64
