package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaInit(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer db.Close()

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, ValidateAndUpdateSchema(db, t.TempDir(), logger.Get()))

	version, err = GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	for _, table := range []string{"sessions", "samples"} {
		exists, err := TableExists(db, table)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}

	// Current schema is left alone.
	require.NoError(t, ValidateAndUpdateSchema(db, t.TempDir(), logger.Get()))
}

func TestSchemaMigrationBacksUp(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer db.Close()

	// A version 1 database had no sample index.
	_, err = db.Exec(strings.Replace(createTablesSQL, createSampleIndexSQL, "", 1))
	require.NoError(t, err)
	_, err = db.Exec(recordVersionSQL, 1)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO sessions (name, device, started_at) VALUES ('bench', 'UM34C', 0)`)
	require.NoError(t, err)

	backups := t.TempDir()
	require.NoError(t, ValidateAndUpdateSchema(db, backups, logger.Get()))

	entries, err := os.ReadDir(backups)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "data_v1_")

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	exists, err := IndexExists(db, "samples_session_timestamp")
	require.NoError(t, err)
	assert.True(t, exists)

	var sessions int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&sessions))
	assert.Equal(t, 1, sessions, "migration keeps recorded data")
}

func TestSchemaFromNewerReleaseRefused(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
        CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
        INSERT INTO schema_versions VALUES (99, datetime('now'));
        CREATE TABLE samples (legacy TEXT);`)
	require.NoError(t, err)

	backups := t.TempDir()
	err = ValidateAndUpdateSchema(db, backups, logger.Get())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrSchemaTooNew))

	entries, err := os.ReadDir(backups)
	require.NoError(t, err)
	assert.Empty(t, entries)

	exists, err := TableExists(db, "sessions")
	require.NoError(t, err)
	assert.False(t, exists, "newer database left untouched")
}

func TestMetricColumn(t *testing.T) {
	col, err := metricColumn("accumulated_power")
	require.NoError(t, err)
	assert.Equal(t, "accumulated_power", col)

	col, err = metricColumn("")
	require.NoError(t, err)
	assert.Equal(t, "NULL", col)

	_, err = metricColumn("timestamp")
	assert.Error(t, err)
}
