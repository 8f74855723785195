package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
	"codeberg.org/mutker/meterdash/internal/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var selection = meter.AxisSelection{LeftMetric: "voltage", RightMetric: "current", ColorMode: meter.ColorModeDark}

func TestParseRows(t *testing.T) {
	points, err := Parse([]byte(`[
		{"date": 1000, "left": 5.0, "right": 0.5},
		{"date": 2000, "left": null, "right": 0.6},
		{"date": 3000, "left": null, "right": null},
		{"date": 4000, "left": 5.1}
	]`))
	require.NoError(t, err)

	want := []meter.ChartPoint{
		{Timestamp: 1000, Left: meter.Float(5.0), Right: meter.Float(0.5)},
		{Timestamp: 2000, Right: meter.Float(0.6)},
		{Timestamp: 4000, Left: meter.Float(5.1)},
	}
	assert.Equal(t, want, points)
}

func TestParseColumns(t *testing.T) {
	points, err := Parse([]byte(`{"date":[1,2,3],"left":[5,null,6],"right":[0.5]}`))
	require.NoError(t, err)

	want := []meter.ChartPoint{
		{Timestamp: 1, Left: meter.Float(5), Right: meter.Float(0.5)},
		{Timestamp: 3, Left: meter.Float(6)},
	}
	assert.Equal(t, want, points)
}

func TestParseEdgeCases(t *testing.T) {
	points, err := Parse([]byte(" "))
	require.NoError(t, err)
	assert.Empty(t, points)

	points, err = Parse([]byte("[]"))
	require.NoError(t, err)
	assert.NotNil(t, points)

	for _, bad := range []string{`"text"`, `[{"date":"x"}]`, `{"date":[1],"left":[1,2]}`} {
		_, err := Parse([]byte(bad))
		assert.True(t, errors.HasCode(err, ErrInvalidDataset), bad)
	}
}

func TestHTTPSource(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, graphPath, r.URL.Path)
		query = map[string]string{
			"name":       r.URL.Query().Get("name"),
			"left_axis":  r.URL.Query().Get("left_axis"),
			"right_axis": r.URL.Query().Get("right_axis"),
			"color_mode": r.URL.Query().Get("color_mode"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"date":1,"left":5,"right":0.5}]`))
	}))
	defer server.Close()

	source, err := NewHTTPSource(server.URL+"/", nil)
	require.NoError(t, err)

	points, err := source.Fetch(context.Background(), Request{Session: "My measurement", Selection: selection})
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, map[string]string{
		"name":       "My measurement",
		"left_axis":  "voltage",
		"right_axis": "current",
		"color_mode": "dark",
	}, query)
}

func TestHTTPSourceErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	source, err := NewHTTPSource(server.URL, nil)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), Request{Selection: selection})
	assert.True(t, errors.HasCode(err, ErrUnexpectedStatus))

	_, err = NewHTTPSource("ws://host", nil)
	assert.True(t, errors.HasCode(err, ErrInvalidBackend))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = source.Fetch(ctx, Request{Selection: selection})
	assert.True(t, errors.HasCode(err, ErrRequestFailed))
}

func TestRecorderSource(t *testing.T) {
	cfg := recorder.DefaultConfig(filepath.Join(t.TempDir(), "data.db"))
	cfg.Enabled = true
	cfg.BatchTimeout = 0

	rec, err := recorder.NewService(cfg, logger.Get())
	require.NoError(t, err)
	defer rec.Close()

	ctx := context.Background()
	session, err := rec.OpenSession(ctx, "bench", "UM34C", time.Now())
	require.NoError(t, err)
	require.NoError(t, rec.Record(ctx, session.ID, meter.Sample{
		Graph: map[string]float64{meter.TimestampKey: 1, "voltage": 5, "current": 0.5},
	}))

	source := NewRecorderSource(rec)

	points, err := source.Fetch(ctx, Request{Session: "bench", Selection: selection})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 0.5, *points[0].Right, 1e-9)

	points, err = source.Fetch(ctx, Request{Session: "unknown", Selection: selection})
	require.NoError(t, err)
	assert.Empty(t, points)
}
