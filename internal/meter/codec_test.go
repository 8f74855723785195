package meter

import (
	"testing"

	"codeberg.org/mutker/meterdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		table   []string
		graph   map[string]float64
	}{
		{
			name:    "object",
			payload: `{"table":["12:00:01","5.01","0.512"],"graph":{"timestamp":1700000000000,"voltage":5.01,"current":0.512}}`,
			table:   []string{"12:00:01", "5.01", "0.512"},
			graph:   map[string]float64{"timestamp": 1700000000000, "voltage": 5.01, "current": 0.512},
		},
		{
			name:    "string encoded",
			payload: `"{\"table\":[\"a\"],\"graph\":{\"timestamp\":2,\"power\":2.5}}"`,
			table:   []string{"a"},
			graph:   map[string]float64{"timestamp": 2, "power": 2.5},
		},
		{
			name:    "numeric cells and null values",
			payload: `{"table":[1.5,null,"x"],"graph":{"timestamp":3,"voltage":null}}`,
			table:   []string{"1.5", "", "x"},
			graph:   map[string]float64{"timestamp": 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := Decode([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.table, sample.Table)
			assert.Equal(t, tt.graph, sample.Graph)
		})
	}
}

func TestDecodeFailures(t *testing.T) {
	_, err := Decode([]byte(`{"table":[],"graph":{"voltage":1}}`))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrMissingTimestamp))

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrDecode))

	_, err = Decode([]byte(`"{broken"`))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrDecode))
}

func TestEncodeDecode(t *testing.T) {
	in := Sample{
		Table: []string{"12:00:01", "5.01"},
		Graph: map[string]float64{"timestamp": 10, "voltage": 5.01},
	}

	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
