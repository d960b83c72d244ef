/*
Package sqlite provides a SQLite-backed implementation of the ledger's
storage interfaces.

INTERFACES IMPLEMENTED:
  worktime.TxStore:   timesheets, work entries, daily submissions, attempts
  worktime.Directory: employees and their default manager
  worktime.Catalog:   responsibilities

KEY TABLES:
  timesheets:         UNIQUE(employee_id, fiscal_week)
  work_entries:       cascade-deleted with their timesheet
  daily_submissions:  UNIQUE(employee_id, work_date)
  checklist_attempts: UNIQUE(submission_id, responsibility_id, seq), no DELETE
  employees, responsibilities: read-only for the engine, written by the
                      directory seed

UNIQUENESS:
  Constraint violations surface as worktime.ErrDuplicate so the engine can
  treat them as "already exists, re-fetch".

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, so an
  in-memory database is shared by every caller. Inside WithTx all reads and
  writes go through the *sql.Tx; the transaction view never touches the
  parent's lock.

ENCODING:
  Dates are YYYY-MM-DD, fiscal weeks YYYY-Www (both sort lexically), hours
  are decimal strings. Timestamps are RFC3339Nano written in the configured
  business location with its offset (2025-03-08T18:00:00+05:30), never UTC.

USAGE:
  store, err := sqlite.New("./data/worktime.db", sqlite.WithLocation(loc))
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := worktime.NewEngine(worktime.Config{Store: store, Location: loc})

SEE ALSO:
  - worktime/store.go: Interface definitions
  - worktime/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/work-ledger/worktime"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
	queries
}

type Option func(*Store)

// WithLocation sets the location timestamps are written and returned in.
// Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, queries: queries{q: db, loc: time.UTC}}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		default_manager_id TEXT,
		start_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS responsibilities (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		task_name TEXT NOT NULL,
		description TEXT,
		manager_override_id TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_responsibilities_employee
		ON responsibilities(employee_id, active);

	CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		manager_id TEXT NOT NULL,
		fiscal_week TEXT NOT NULL,
		status TEXT NOT NULL,
		submitted_at TEXT,
		reviewed_at TEXT,
		review_notes TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, fiscal_week)
	);

	CREATE INDEX IF NOT EXISTS idx_timesheets_manager_status
		ON timesheets(manager_id, status);

	CREATE TABLE IF NOT EXISTS work_entries (
		id TEXT PRIMARY KEY,
		timesheet_id TEXT NOT NULL REFERENCES timesheets(id) ON DELETE CASCADE,
		work_date TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		label TEXT,
		description TEXT,
		hours TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_work_entries_timesheet_date
		ON work_entries(timesheet_id, work_date);

	CREATE TABLE IF NOT EXISTS daily_submissions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		work_date TEXT NOT NULL,
		manager_id TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		submitted_at TEXT,
		reviewed_at TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, work_date)
	);

	CREATE TABLE IF NOT EXISTS checklist_attempts (
		id TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL REFERENCES daily_submissions(id),
		responsibility_id TEXT NOT NULL,
		manager_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		status TEXT NOT NULL,
		is_correction INTEGER NOT NULL DEFAULT 0,
		start_time TEXT,
		end_time TEXT,
		submitted_at TEXT,
		reviewed_at TEXT,
		review_notes TEXT,
		resubmission_notes TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(submission_id, responsibility_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_manager_status
		ON checklist_attempts(manager_id, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (worktime.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store worktime.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx, loc: s.loc}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements the storage interfaces on a querier without locking.
type queries struct {
	q   querier
	loc *time.Location
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"work_entries", "timesheets", "checklist_attempts", "daily_submissions", "responsibilities", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// formatTime records instants in the business location so stored rows read
// as local wall-clock time with their offset.
func (q *queries) formatTime(t time.Time) string {
	return t.In(q.loc).Format(time.RFC3339Nano)
}

func (q *queries) nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: q.formatTime(*t), Valid: true}
}

func (q *queries) parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(q.loc), nil
}

func (q *queries) parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := q.parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

// insertErr maps uniqueness violations to worktime.ErrDuplicate.
func insertErr(what string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueConstraintError(err) {
		return worktime.ErrDuplicate
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

// updated checks that an UPDATE or DELETE touched a row.
func updated(res sql.Result, err error, what, id string) error {
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, worktime.ErrNotFound)
	}
	return nil
}
