package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"eventstore-sqlite/internal/config"
	"eventstore-sqlite/internal/logger"
	"eventstore-sqlite/internal/model"
	"eventstore-sqlite/pkg/utils"
)

// StoreError means a destination write or connect failed. It aborts
// the run; there is no partial-batch retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("sqlite store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store owns the single destination connection for a conversion run.
// Writes accumulate in one open transaction and become durable every
// Nth batch (the configured commit frequency) and on Close.
type Store struct {
	cfg config.Config
	db  *sql.DB
	tx  *sql.Tx

	eventsProcessed  int64
	batchesProcessed int64
}

// New returns an unopened store for the configured destination.
func New(cfg config.Config) *Store {
	return &Store{cfg: cfg}
}

// Open establishes the connection, applies the performance pragmas,
// ensures the schema, and starts the write transaction.
func (s *Store) Open() error {
	db, err := sql.Open("sqlite3", s.cfg.DBPath+"?_busy_timeout=30000")
	if err != nil {
		return &StoreError{Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return &StoreError{Op: "open", Err: err}
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=10000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return &StoreError{Op: "configure", Err: err}
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return err
	}
	if s.cfg.CreateIndexes {
		if err := createIndexes(db); err != nil {
			db.Close()
			return err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return &StoreError{Op: "begin", Err: err}
	}

	s.db = db
	s.tx = tx
	logger.Info("database connection established", "path", s.cfg.DBPath)
	return nil
}

func ensureSchema(db *sql.DB) error {
	tables := map[string]string{
		"events": `
		CREATE TABLE events (
			id TEXT PRIMARY KEY,
			recorded_at INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			stream_name TEXT NOT NULL,
			data TEXT,
			source_metadata TEXT,
			processed_at INTEGER DEFAULT (strftime('%s', 'now')),

			CHECK (recorded_at > 0),
			CHECK (length(event_type) > 0),
			CHECK (length(stream_name) > 0)
		)`,
		"conversion_metadata": `
		CREATE TABLE conversion_metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER DEFAULT (strftime('%s', 'now'))
		)`,
	}

	for name, ddl := range tables {
		var found string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name,
		).Scan(&found)
		switch err {
		case nil:
			logger.Debug("table already exists", "table", name)
			continue
		case sql.ErrNoRows:
			if _, err := db.Exec(ddl); err != nil {
				return &StoreError{Op: "create table " + name, Err: err}
			}
			logger.Info("table created", "table", name)
		default:
			return &StoreError{Op: "inspect schema", Err: err}
		}
	}
	return nil
}

func createIndexes(db *sql.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_events_recorded_at ON events(recorded_at)",
		"CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type)",
		"CREATE INDEX IF NOT EXISTS idx_events_stream ON events(stream_name)",
		"CREATE INDEX IF NOT EXISTS idx_events_processed_at ON events(processed_at)",
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return &StoreError{Op: "create index", Err: err}
		}
	}
	logger.Debug("indexes ensured")
	return nil
}

// WriteBatch upserts all records as one batch. Empty input, a closed
// store, or a store whose transaction was lost to a failed commit is a
// no-op. The batch stays buffered in the open transaction until the
// next scheduled commit.
func (s *Store) WriteBatch(records []model.NormalizedRecord) error {
	if len(records) == 0 || s.db == nil || s.tx == nil {
		return nil
	}

	stmt, err := s.tx.Prepare(`
		INSERT OR REPLACE INTO events
		(id, recorded_at, event_type, stream_name, data, source_metadata)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &StoreError{Op: "prepare", Err: err}
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.ID, r.RecordedAt, r.EventType, r.StreamName, r.Data, r.SourceMetadata); err != nil {
			return &StoreError{Op: "insert", Err: err}
		}
	}

	s.eventsProcessed += int64(len(records))
	s.batchesProcessed++

	if s.batchesProcessed%int64(s.cfg.CommitFrequency) == 0 {
		if err := s.commit(); err != nil {
			return err
		}
		logger.Debug("committed batch", "batch", s.batchesProcessed)
	}
	return nil
}

// commit makes pending writes durable and reopens the write
// transaction.
func (s *Store) commit() error {
	if s.tx == nil {
		return nil
	}
	if err := s.tx.Commit(); err != nil {
		s.tx = nil
		return &StoreError{Op: "commit", Err: err}
	}
	tx, err := s.db.Begin()
	if err != nil {
		s.tx = nil
		return &StoreError{Op: "begin", Err: err}
	}
	s.tx = tx
	return nil
}

// RecordMetadata upserts a bookkeeping entry. The write stays in the
// open transaction; nothing is committed here.
func (s *Store) RecordMetadata(key, value string) error {
	if s.db == nil || s.tx == nil {
		return nil
	}
	_, err := s.tx.Exec(
		`INSERT OR REPLACE INTO conversion_metadata (key, value) VALUES (?, ?)`,
		key, value)
	if err != nil {
		return &StoreError{Op: "record metadata", Err: err}
	}
	return nil
}

// Stats reports the current state of the destination plus the session
// counters. It never fails; a closed store yields the zero value.
func (s *Store) Stats() model.StoreStats {
	if s.db == nil {
		return model.StoreStats{}
	}

	stats := model.StoreStats{
		EventsThisSession: s.eventsProcessed,
		BatchesProcessed:  s.batchesProcessed,
		DatabaseSizeBytes: utils.FileSize(s.cfg.DBPath),
	}

	// Query through the open transaction so uncommitted batches are
	// visible.
	var q interface {
		QueryRow(query string, args ...interface{}) *sql.Row
	} = s.db
	if s.tx != nil {
		q = s.tx
	}

	if err := q.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&stats.TotalEvents); err != nil {
		logger.Warn("stats query failed", "error", err)
		return stats
	}

	var oldest, newest sql.NullInt64
	if err := q.QueryRow(`SELECT MIN(recorded_at), MAX(recorded_at) FROM events`).Scan(&oldest, &newest); err != nil {
		logger.Warn("stats query failed", "error", err)
		return stats
	}
	if oldest.Valid {
		stats.OldestRecordedAt = &oldest.Int64
	}
	if newest.Valid {
		stats.NewestRecordedAt = &newest.Int64
	}
	return stats
}

// Close commits pending writes, records the final run bookkeeping,
// and releases the connection. Driver errors are logged, never
// propagated; the handle is cleared in all cases.
func (s *Store) Close() {
	if s.db == nil {
		return
	}

	if err := s.commit(); err != nil {
		logger.Error("final commit failed", "error", err)
	}
	if err := s.RecordMetadata("last_conversion", fmt.Sprintf("%d", time.Now().Unix())); err != nil {
		logger.Error("error recording metadata", "error", err)
	}
	if err := s.RecordMetadata("total_events", fmt.Sprintf("%d", s.eventsProcessed)); err != nil {
		logger.Error("error recording metadata", "error", err)
	}
	// Last commit of the run; no new transaction is opened.
	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			logger.Error("metadata commit failed", "error", err)
		}
		s.tx = nil
	}

	if err := s.db.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	} else {
		logger.Info("database connection closed")
	}
	s.db = nil
	s.tx = nil
}
