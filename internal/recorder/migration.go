package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
)

const backupTimeLayout = "2006-01-02_15-04-05"

type migration struct {
	version int
	name    string
	sql     string
}

// ValidateAndUpdateSchema brings db to SchemaVersion. An empty database
// gets the current schema; an older one is backed up into backupDir and
// migrated step by step. A database written by a newer release is refused
// untouched.
func ValidateAndUpdateSchema(db *sql.DB, backupDir string, log logger.Logger) error {
	errFactory := errors.New()

	version, err := GetSchemaVersion(db)
	if err != nil {
		return err
	}

	log.Debug().Int("version", version).Msg("Current schema version")

	switch {
	case version == SchemaVersion:
		return nil
	case version == 0:
		return InitSchema(db, log)
	case version > SchemaVersion:
		return errFactory.WithData(ErrSchemaTooNew, version)
	}

	log.Info().
		Int("from", version).
		Int("to", SchemaVersion).
		Msg("Migrating database to new version, this may take a while...")

	if _, err := backupDatabase(db, backupDir, version, log); err != nil {
		return errFactory.Wrap(ErrSchemaMigrationFailed, err).WithMessage("backup before migration")
	}

	return migrate(db, version, log)
}

func migrate(db *sql.DB, from int, log logger.Logger) error {
	return inTx(db, log, func(tx *sql.Tx) error {
		for _, m := range migrations {
			if m.version <= from {
				continue
			}
			if _, err := tx.Exec(m.sql); err != nil {
				return errors.New().Wrap(ErrSchemaMigrationFailed, err).WithMessage(m.name)
			}
			if err := recordVersion(tx, m.version); err != nil {
				return err
			}
			log.Info().Int("version", m.version).Str("migration", m.name).Msg("Schema migrated")
		}
		return nil
	})
}

// backupDatabase copies db into dir and returns the copy's path.
func backupDatabase(db *sql.DB, dir string, version int, log logger.Logger) (string, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return "", errFactory.Wrap(ErrStorageAccess, err).WithMessage("create backup directory")
	}

	path := filepath.Join(dir, fmt.Sprintf("data_v%d_%s.db", version, time.Now().Format(backupTimeLayout)))

	// VACUUM INTO needs a literal path and no open transaction.
	quoted := strings.ReplaceAll(path, "'", "''")
	if _, err := db.Exec("VACUUM INTO '" + quoted + "'"); err != nil {
		return "", errFactory.Wrap(ErrStorageAccess, err).WithMessage("write backup " + path)
	}

	log.Info().Str("path", path).Int("version", version).Msg("Database backup created")

	return path, nil
}
