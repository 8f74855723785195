package meter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"codeberg.org/mutker/meterdash/internal/errors"
)

type wireSample struct {
	Table []any          `json:"table"`
	Graph map[string]any `json:"graph"`
}

// Decode parses an update payload. The payload is either the JSON object
// itself or a JSON string that contains it.
func Decode(data []byte) (Sample, error) {
	errFactory := errors.New()

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return Sample{}, errFactory.Wrap(ErrDecode, err)
		}
		data = []byte(inner)
	}

	var wire wireSample
	if err := json.Unmarshal(data, &wire); err != nil {
		return Sample{}, errFactory.Wrap(ErrDecode, err)
	}

	sample := Sample{
		Table: make([]string, 0, len(wire.Table)),
		Graph: make(map[string]float64, len(wire.Graph)),
	}
	for _, cell := range wire.Table {
		sample.Table = append(sample.Table, cellText(cell))
	}
	for name, raw := range wire.Graph {
		if v, ok := raw.(float64); ok {
			sample.Graph[name] = v
		}
	}

	if _, ok := sample.Graph[TimestampKey]; !ok {
		return Sample{}, errFactory.New(ErrMissingTimestamp)
	}

	return sample, nil
}

// Encode is the inverse of Decode, used by the recorder's replay and tests.
func Encode(s Sample) ([]byte, error) {
	graph := make(map[string]float64, len(s.Graph))
	for k, v := range s.Graph {
		graph[k] = v
	}
	table := s.Table
	if table == nil {
		table = []string{}
	}

	return json.Marshal(struct {
		Table []string           `json:"table"`
		Graph map[string]float64 `json:"graph"`
	}{table, graph})
}

func cellText(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
