package recorder

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config
	// mu serializes database work; bufMu only guards buffer and closed so
	// Append never waits behind a write.
	mu            sync.Mutex
	bufMu         sync.Mutex
	buffer        []Record
	closed        bool
	flushTicker   *time.Ticker
	kickChan      chan struct{}
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err).WithMessage("create directory")
	}

	dsn := cfg.DBPath + "?_journal=WAL&_foreign_keys=1&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err).WithMessage("open database")
	}
	// The flusher and readers share one connection; sqlite serializes
	// writers anyway.
	db.SetMaxOpenConns(1)

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err).WithMessage("prepare schema")
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("Recorder repository initialized")

	repo := &repository{
		db:            db,
		logger:        log,
		cfg:           cfg,
		buffer:        make([]Record, 0, max(cfg.BatchSize, 1)),
		kickChan:      make(chan struct{}, 1),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	if cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(time.Duration(cfg.BatchTimeout) * time.Second)
	}
	go repo.flusher()

	return repo, nil
}

// Append queues a record. Full batches are written by the flusher
// goroutine so callers never wait on disk I/O.
func (r *repository) Append(rec Record) error {
	r.bufMu.Lock()
	defer r.bufMu.Unlock()

	if r.closed {
		return errors.New().New(ErrClosed)
	}

	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= r.cfg.BatchSize {
		select {
		case r.kickChan <- struct{}{}:
		default:
		}
	}

	return nil
}

func (r *repository) CreateSession(name, device string, startedAt time.Time) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isClosed() {
		return Session{}, errors.New().New(ErrClosed)
	}

	res, err := r.db.Exec(insertSessionSQL, name, device, startedAt.UnixMilli())
	if err != nil {
		return Session{}, errors.New().Wrap(ErrStorageAccess, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Session{}, errors.New().Wrap(ErrStorageAccess, err)
	}

	r.logger.Info().Int64("session_id", id).Str("name", name).Msg("Recording session created")

	return Session{
		ID:        id,
		Name:      name,
		Device:    device,
		StartedAt: time.UnixMilli(startedAt.UnixMilli()),
	}, nil
}

const sessionQuery = `
    SELECT s.id, s.name, s.device, s.started_at, COUNT(m.id), MAX(m.timestamp)
    FROM sessions s
    LEFT JOIN samples m ON m.session_id = s.id`

func (r *repository) Sessions() ([]Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(sessionQuery + `
    GROUP BY s.id
    ORDER BY s.started_at DESC, s.id DESC`)
	if err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}

	return sessions, nil
}

func (r *repository) LatestSession(name string) (Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		return Session{}, false, err
	}

	row := r.db.QueryRow(sessionQuery+`
    WHERE s.name = ?
    GROUP BY s.id
    ORDER BY s.started_at DESC, s.id DESC
    LIMIT 1`, name)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}

	return s, true, nil
}

func (r *repository) Series(sessionID int64, left, right string) ([]meter.ChartPoint, error) {
	errFactory := errors.New()

	leftCol, err := metricColumn(left)
	if err != nil {
		return nil, err
	}
	rightCol, err := metricColumn(right)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
        SELECT timestamp, `+leftCol+`, `+rightCol+`
        FROM samples
        WHERE session_id = ?
        ORDER BY timestamp ASC, id ASC`, sessionID)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	points := []meter.ChartPoint{}
	for rows.Next() {
		var (
			ts          float64
			left, right sql.NullFloat64
		)
		if err := rows.Scan(&ts, &left, &right); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		point := meter.ChartPoint{Timestamp: ts}
		if left.Valid {
			point.Left = meter.Float(left.Float64)
		}
		if right.Valid {
			point.Right = meter.Float(right.Float64)
		}
		if !point.Empty() {
			points = append(points, point)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return points, nil
}

// Samples returns every sample of a session in time order, rebuilt from
// the stored columns and table row.
func (r *repository) Samples(sessionID int64) ([]meter.Sample, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(selectSamplesSQL, sessionID)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	samples := []meter.Sample{}
	for rows.Next() {
		var (
			ts     float64
			values = make([]sql.NullFloat64, len(metricColumns))
			row    string
		)
		dest := make([]any, 0, len(values)+2)
		dest = append(dest, &ts)
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &row)
		if err := rows.Scan(dest...); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		sample := meter.Sample{Graph: map[string]float64{meter.TimestampKey: ts}}
		for i, col := range metricColumns {
			if values[i].Valid {
				sample.Graph[col] = values[i].Float64
			}
		}
		if err := json.Unmarshal([]byte(row), &sample.Table); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err).WithMessage("decode table row")
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return samples, nil
}

func (r *repository) DeleteSession(sessionID int64) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		return err
	}

	return inTx(r.db, r.logger, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM samples WHERE session_id = ?`, sessionID); err != nil {
			return errFactory.Wrap(ErrStorageAccess, err)
		}
		res, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
		if err != nil {
			return errFactory.Wrap(ErrStorageAccess, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errFactory.WithData(ErrSessionNotFound, sessionID)
		}
		return nil
	})
}

func (r *repository) isClosed() bool {
	r.bufMu.Lock()
	defer r.bufMu.Unlock()

	return r.closed
}

func (r *repository) Close() error {
	r.bufMu.Lock()
	if r.closed {
		r.bufMu.Unlock()
		return nil
	}
	r.closed = true
	r.bufMu.Unlock()

	// Signal the flusher goroutine to stop and wait for its final flush
	close(r.shutdownChan)
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}
	<-r.flushDoneChan

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().Wrap(ErrStorageClose, err).WithMessage("checkpoint wal")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err).WithMessage("close database")
	}

	r.logger.Info().Msg("Recorder repository closed gracefully")

	return nil
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)

	var tick <-chan time.Time
	if r.flushTicker != nil {
		tick = r.flushTicker.C
	}

	for {
		select {
		case <-tick:
			r.flush()
		case <-r.kickChan:
			r.flush()
		case <-r.shutdownChan:
			r.flush()
			return
		}
	}
}

func (r *repository) flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		r.logger.Failure(err).Msg("Failed to flush samples")
	}
}

// flushLocked writes the buffered records in one transaction. Records
// are put back in front of the buffer when the write fails so the next
// flush retries them. The caller holds mu.
func (r *repository) flushLocked() error {
	r.bufMu.Lock()
	batch := r.buffer
	r.buffer = make([]Record, 0, max(r.cfg.BatchSize, 1))
	r.bufMu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	errFactory := errors.New()

	err := inTx(r.db, r.logger, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertSampleSQL)
		if err != nil {
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
		defer stmt.Close()

		for _, rec := range batch {
			row, err := json.Marshal(rec.Sample.Table)
			if err != nil {
				return errFactory.Wrap(ErrTransactionFailed, err)
			}

			values := make([]any, 0, len(metricColumns)+3)
			values = append(values, rec.SessionID, rec.Sample.Timestamp())
			for _, col := range metricColumns {
				if v, ok := rec.Sample.Value(col); ok {
					values = append(values, v)
				} else {
					values = append(values, nil)
				}
			}
			values = append(values, string(row))

			if _, err := stmt.Exec(values...); err != nil {
				return errFactory.Wrap(ErrTransactionFailed, err)
			}
		}
		return nil
	})
	if err != nil {
		r.bufMu.Lock()
		r.buffer = append(batch, r.buffer...)
		r.bufMu.Unlock()
		return err
	}

	r.logger.Debug().Int("records", len(batch)).Msg("Flushed samples to database")

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		s         Session
		startedAt int64
		last      sql.NullFloat64
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Device, &startedAt, &s.Samples, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, errors.New().Wrap(ErrStorageAccess, err)
	}

	s.StartedAt = time.UnixMilli(startedAt)
	if last.Valid {
		s.LastSample = meter.ChartPoint{Timestamp: last.Float64}.Time()
	}

	return s, nil
}
