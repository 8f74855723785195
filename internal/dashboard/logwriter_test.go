package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWriterDelivers(t *testing.T) {
	w := NewLogWriter()

	n, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	msg := ListenLogs(w.Lines())()
	assert.Equal(t, logLineMsg{Text: "hello\n"}, msg)
}

func TestLogWriterNeverBlocks(t *testing.T) {
	w := NewLogWriter()

	for i := 0; i < logBuffer*2; i++ {
		_, err := w.Write([]byte("line\n"))
		require.NoError(t, err)
	}

	assert.Len(t, w.ch, logBuffer)
}

func TestLogWriterClose(t *testing.T) {
	w := NewLogWriter()
	w.Close()
	w.Close()

	n, err := w.Write([]byte("late"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Nil(t, ListenLogs(w.Lines())())
}
