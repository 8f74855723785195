package pid

import (
	"os"
	"strconv"
	"testing"

	"codeberg.org/mutker/meterdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Write(dir))
	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, Write(dir), "own PID file is not a conflict")

	require.NoError(t, Remove(dir))
	assert.NoFileExists(t, Path(dir))
	assert.NoError(t, Remove(dir))
}

func TestWriteConflictsWithLiveProcess(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte(strconv.Itoa(os.Getppid())), 0o600))

	err := Write(dir)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteTakesOverStaleFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("not a pid\n"), 0o600))

	require.NoError(t, Write(dir))
}
