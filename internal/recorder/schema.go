package recorder

import (
	"database/sql"
	"strings"

	"codeberg.org/mutker/meterdash/internal/device"
	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
)

// SchemaVersion is the version a fresh database is created with.
const SchemaVersion = 2

const (
	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS sessions (
	       id          INTEGER PRIMARY KEY,
	       name        TEXT NOT NULL,
	       device      TEXT NOT NULL,
	       started_at  INTEGER NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS samples (
	       id                  INTEGER PRIMARY KEY,
	       session_id          INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	       timestamp           REAL NOT NULL,
	       voltage             REAL,
	       current             REAL,
	       power               REAL,
	       temperature         REAL,
	       resistance          REAL,
	       accumulated_current REAL,
	       accumulated_power   REAL,
	       table_row           TEXT NOT NULL DEFAULT '[]'
	   );` + createSampleIndexSQL

	createSampleIndexSQL = `
	   CREATE INDEX IF NOT EXISTS samples_session_timestamp ON samples (session_id, timestamp);`

	insertSessionSQL = `
    INSERT INTO sessions (name, device, started_at) VALUES (?, ?, ?)`

	recordVersionSQL = `
    INSERT OR REPLACE INTO schema_versions (version, applied_at) VALUES (?, datetime('now'))`
)

// migrations upgrade an existing database one version at a time. A fresh
// database skips them and gets createTablesSQL directly.
var migrations = []migration{
	{version: 2, name: "index samples by session and time", sql: createSampleIndexSQL},
}

// metricColumns are the sample columns holding graph values, in insert
// order. Only these names are ever interpolated into SQL.
var metricColumns = func() []string {
	cols := make([]string, 0, len(device.Metrics()))
	for _, m := range device.Metrics() {
		cols = append(cols, m.Name)
	}
	return cols
}()

var insertSampleSQL = `
    INSERT INTO samples (session_id, timestamp, ` + strings.Join(metricColumns, ", ") + `, table_row)
    VALUES (?, ?` + strings.Repeat(", ?", len(metricColumns)) + `, ?)`

var selectSamplesSQL = `
    SELECT timestamp, ` + strings.Join(metricColumns, ", ") + `, table_row
    FROM samples
    WHERE session_id = ?
    ORDER BY timestamp ASC, id ASC`

// InitSchema creates the current schema in an empty database.
func InitSchema(db *sql.DB, log logger.Logger) error {
	log.Debug().Msg("Creating database...")

	err := inTx(db, log, func(tx *sql.Tx) error {
		if _, err := tx.Exec(createTablesSQL); err != nil {
			return errors.New().Wrap(ErrSchemaInitFailed, err).WithMessage("create tables")
		}
		return recordVersion(tx, SchemaVersion)
	})
	if err != nil {
		return err
	}

	log.Info().Int("version", SchemaVersion).Msg("Schema initialized")

	return nil
}

func recordVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec(recordVersionSQL, version); err != nil {
		return errors.New().Wrap(ErrSchemaInitFailed, err).WithMessage("record schema version")
	}

	return nil
}

// inTx runs fn in a transaction, rolling back when it fails.
func inTx(db *sql.DB, log logger.Logger, fn func(tx *sql.Tx) error) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Debug().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	return nil
}

// GetSchemaVersion returns the current schema version, 0 for an empty
// database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_versions`).Scan(&version); err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err).WithMessage("read schema version")
	}

	return int(version.Int64), nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, name string) (bool, error) {
	return objectExists(db, "table", name)
}

// IndexExists checks if an index exists
func IndexExists(db *sql.DB, name string) (bool, error) {
	return objectExists(db, "index", name)
}

func objectExists(db *sql.DB, kind, name string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master WHERE type = ? AND name = ?
        )
    `, kind, name).Scan(&exists)
	if err != nil {
		return false, errors.New().Wrap(ErrSchemaValidationFailed, err).WithMessage("look up " + kind + " " + name)
	}

	return exists, nil
}

// metricColumn validates a metric name against the schema. An empty name
// selects nothing.
func metricColumn(name string) (string, error) {
	if name == "" {
		return "NULL", nil
	}
	for _, col := range metricColumns {
		if col == name {
			return col, nil
		}
	}

	return "", errors.New().WithData(ErrUnknownMetric, name)
}
