// Package meter holds the data model shared by the dashboard core: decoded
// samples, the chart points projected from them and the axis selection that
// drives the projection.
package meter
