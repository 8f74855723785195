// Package snapshot fetches the historical series a chart is initialized
// with, either from the backend or from the local recorder.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/meter"
	"codeberg.org/mutker/meterdash/internal/recorder"
)

// Request selects the session and metrics of a snapshot.
type Request struct {
	Session   string
	Selection meter.AxisSelection
}

// Source fetches snapshots. Implementations may block and are called off
// the event loop.
type Source interface {
	Fetch(ctx context.Context, req Request) ([]meter.ChartPoint, error)
}

type row struct {
	Date  float64  `json:"date"`
	Left  *float64 `json:"left"`
	Right *float64 `json:"right"`
}

type columns struct {
	Date  []float64  `json:"date"`
	Left  []*float64 `json:"left"`
	Right []*float64 `json:"right"`
}

// Parse decodes a dataset given either as an array of {date, left, right}
// objects or as parallel date/left/right arrays. Points without any value
// are dropped.
func Parse(data []byte) ([]meter.ChartPoint, error) {
	errFactory := errors.New()

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []meter.ChartPoint{}, nil
	}

	points := []meter.ChartPoint{}
	switch data[0] {
	case '[':
		var rows []row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, errFactory.Wrap(ErrInvalidDataset, err)
		}
		for _, r := range rows {
			points = appendPoint(points, meter.ChartPoint{Timestamp: r.Date, Left: r.Left, Right: r.Right})
		}

	case '{':
		var cols columns
		if err := json.Unmarshal(data, &cols); err != nil {
			return nil, errFactory.Wrap(ErrInvalidDataset, err)
		}
		if len(cols.Left) > len(cols.Date) || len(cols.Right) > len(cols.Date) {
			return nil, errFactory.WithMessage(ErrInvalidDataset, "value arrays longer than date array")
		}
		for i, ts := range cols.Date {
			point := meter.ChartPoint{Timestamp: ts}
			if i < len(cols.Left) {
				point.Left = cols.Left[i]
			}
			if i < len(cols.Right) {
				point.Right = cols.Right[i]
			}
			points = appendPoint(points, point)
		}

	default:
		return nil, errFactory.WithMessage(ErrInvalidDataset, "dataset must be an array or an object")
	}

	return points, nil
}

func appendPoint(points []meter.ChartPoint, p meter.ChartPoint) []meter.ChartPoint {
	if p.Empty() {
		return points
	}

	return append(points, p)
}

// RecorderSource serves snapshots from the local recording database.
type RecorderSource struct {
	rec recorder.Recorder
}

func NewRecorderSource(rec recorder.Recorder) *RecorderSource {
	return &RecorderSource{rec: rec}
}

// Fetch returns the series of the newest session with the requested name,
// or an empty series when there is none.
func (s *RecorderSource) Fetch(ctx context.Context, req Request) ([]meter.ChartPoint, error) {
	session, ok, err := s.rec.FindSession(ctx, req.Session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []meter.ChartPoint{}, nil
	}

	return s.rec.Series(ctx, session.ID, req.Selection)
}
