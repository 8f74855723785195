package meter

import (
	"math"
	"time"
)

// TimestampKey is the graph entry carrying the sample time in epoch
// milliseconds.
const TimestampKey = "timestamp"

// Sample is one decoded reading: a display row for the table and the keyed
// metric values for the chart. Samples are not modified after decoding.
type Sample struct {
	Table []string
	Graph map[string]float64
}

// Timestamp returns the sample time in epoch milliseconds.
func (s Sample) Timestamp() float64 {
	return s.Graph[TimestampKey]
}

// Value returns the named metric if the sample carries it.
func (s Sample) Value(metric string) (float64, bool) {
	if metric == "" || metric == TimestampKey {
		return 0, false
	}
	v, ok := s.Graph[metric]
	return v, ok
}

// ChartPoint is a sample projected onto the two chart axes.
type ChartPoint struct {
	Timestamp float64
	Left      *float64
	Right     *float64
}

// Empty reports whether the point carries no value for either axis.
func (p ChartPoint) Empty() bool {
	return p.Left == nil && p.Right == nil
}

// Equal reports whether both points carry the same timestamp and values.
func (p ChartPoint) Equal(other ChartPoint) bool {
	return p.Timestamp == other.Timestamp &&
		sameValue(p.Left, other.Left) &&
		sameValue(p.Right, other.Right)
}

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

// Time converts the millisecond timestamp into a time.Time.
func (p ChartPoint) Time() time.Time {
	whole, frac := math.Modf(p.Timestamp)
	return time.UnixMilli(int64(whole)).Add(time.Duration(frac * float64(time.Millisecond)))
}

// Float returns a pointer to v, for building points by hand.
func Float(v float64) *float64 {
	return &v
}

// Project maps a sample onto the selected axes. The second result is false
// when neither selected metric is present, in which case the point must not
// be emitted.
func Project(s Sample, sel AxisSelection) (ChartPoint, bool) {
	point := ChartPoint{Timestamp: s.Timestamp()}
	if v, ok := s.Value(sel.LeftMetric); ok {
		point.Left = Float(v)
	}
	if v, ok := s.Value(sel.RightMetric); ok {
		point.Right = Float(v)
	}

	return point, !point.Empty()
}
