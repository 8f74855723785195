package telemetry

import "codeberg.org/mutker/meterdash/internal/meter"

// Sink is the rendering side the buffer delivers batches to.
type Sink interface {
	// Ready reports whether the sink accepts batches. It is false while a
	// snapshot load is in flight.
	Ready() bool
	// Selection is the axis selection batches are projected with.
	Selection() meter.AxisSelection
	// CurrentLength is the number of points already rendered.
	CurrentLength() int
	// AppendBatch renders an ordered batch of points.
	AppendBatch(points []meter.ChartPoint) error
}
