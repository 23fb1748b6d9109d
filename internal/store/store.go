package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/cmlibs/zinc-sub001/internal/notify"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on identifier_changes(handle, seq) for per-entity history
const currentSchemaVersion = 1

var (
	// ErrIdentifierInUse is returned when an identifier is already held by
	// another entity of the same space.
	ErrIdentifierInUse = errors.New("identifier in use")

	// ErrUnknownHandle is returned for a handle that refers to nothing.
	ErrUnknownHandle = errors.New("unknown entity handle")
)

// Store is a keyed collection persisted in SQLite.
//
// Thread-safety: all methods are safe for concurrent use. Writes are
// serialized by the single database connection.
type Store struct {
	db      *sql.DB
	seq     *seqCounter
	bracket *notify.Bracket

	mu     sync.RWMutex
	fields map[string]int
}

// Option configures a Store.
type Option func(*options)

type options struct {
	batchIDs notify.BatchIDFunc
}

// WithBatchIDs sets the generator of change log batch IDs.
// Default: UUIDv7 strings.
func WithBatchIDs(fn notify.BatchIDFunc) Option {
	return func(o *options) {
		o.batchIDs = fn
	}
}

// Open opens the collection database at path, creating it and its
// schema if needed. The connection runs in WAL mode with NORMAL sync, a
// 5s busy timeout and foreign keys enforced. The change log sequence resumes
// after the highest recorded sequence number.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{batchIDs: newBatchID}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	var lastSeq int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM identifier_changes`).Scan(&lastSeq); err != nil {
		db.Close()
		return nil, fmt.Errorf("read last seq: %w", err)
	}

	s := &Store{
		db:      db,
		seq:     newSeqCounter(lastSeq),
		bracket: notify.New(o.batchIDs),
	}
	if err := s.loadFields(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newBatchID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Subscribe registers fn for identifier change notifications.
func (s *Store) Subscribe(fn notify.Subscriber) {
	s.bracket.Subscribe(fn)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes the change log by entity.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_identifier_changes_handle
		ON identifier_changes(handle, seq)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// rollback undoes tx after a failed write. The write error is what the
// caller reports.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}

func (s *Store) loadFields() error {
	rows, err := s.db.Query(`SELECT name, components FROM fields`)
	if err != nil {
		return fmt.Errorf("load fields: %w", err)
	}
	defer rows.Close()
	fields := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return fmt.Errorf("load fields: %w", err)
		}
		fields[name] = n
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load fields: %w", err)
	}
	s.mu.Lock()
	s.fields = fields
	s.mu.Unlock()
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		rollback(tx)
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
