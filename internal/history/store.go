package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes.
const schemaVersion = 1

// timeLayout is fixed width so archived_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrSchemaMismatch indicates the database was written by an incompatible version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

// Entry is one archived file.
type Entry struct {
	ID           int64
	RunID        string
	Kind         string
	OriginalName string
	ArchivedName string
	Destination  string
	ExternalID   int64
	Overwrote    bool
	ArchivedAt   time.Time
}

// Store manages archive history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start a fresh history)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Add records an archived file and returns its row id. A zero ArchivedAt is
// stamped with the current time.
func (s *Store) Add(ctx context.Context, entry Entry) (int64, error) {
	if strings.TrimSpace(entry.RunID) == "" {
		return 0, errors.New("history entry requires a run id")
	}
	archivedAt := entry.ArchivedAt
	if archivedAt.IsZero() {
		archivedAt = time.Now()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO archived_files (
            run_id, kind, original_name, archived_name, destination,
            external_id, overwrote, archived_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Kind,
		entry.OriginalName,
		entry.ArchivedName,
		entry.Destination,
		nullableInt(entry.ExternalID),
		boolToInt(entry.Overwrote),
		archivedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, kind, original_name, archived_name, destination,
            external_id, overwrote, archived_at
        FROM archived_files ORDER BY archived_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForRun returns the entries written by one run, oldest first.
func (s *Store) ForRun(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, kind, original_name, archived_name, destination,
            external_id, overwrote, archived_at
        FROM archived_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			externalID sql.NullInt64
			overwrote  int
			archivedAt string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Kind,
			&entry.OriginalName,
			&entry.ArchivedName,
			&entry.Destination,
			&externalID,
			&overwrote,
			&archivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if externalID.Valid {
			entry.ExternalID = externalID.Int64
		}
		entry.Overwrote = overwrote != 0
		if ts, err := time.Parse(time.RFC3339Nano, archivedAt); err == nil {
			entry.ArchivedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

func nullableInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
