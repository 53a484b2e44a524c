package blacklist

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

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates a database written by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrCorruptDatabase marks a state file SQLite cannot use as a database.
var ErrCorruptDatabase = errors.New("corrupt state database")

const (
	sqliteBusyCode          = 5
	sqliteCorruptCode       = 11
	sqliteNotADBCode        = 26
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteStore keeps the artifact in a SQLite database, one row per code.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
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
			if isSQLiteCorrupt(execErr) {
				return nil, fmt.Errorf("%w: apply pragma %q: %w", ErrCorruptDatabase, pragma, execErr)
			}
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		if isSQLiteCorrupt(err) || errors.Is(err, ErrSchemaMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrCorruptDatabase, err)
		}
		return nil, err
	}
	return store, nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads the artifact. A database without a corpus row holds nothing.
func (s *SQLiteStore) Load(ctx context.Context) (Artifact, bool, error) {
	ctx = ensureContext(ctx)
	var artifact Artifact
	err := s.db.QueryRowContext(ctx, "SELECT total_docs FROM corpus WHERE id = 1").Scan(&artifact.TotalDocs)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("read corpus row: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT code, documents FROM code_frequency")
	if err != nil {
		return Artifact{}, false, fmt.Errorf("query frequency: %w", err)
	}
	artifact.Frequency = make(map[string]int)
	for rows.Next() {
		var code string
		var docs int
		if err := rows.Scan(&code, &docs); err != nil {
			_ = rows.Close()
			return Artifact{}, false, fmt.Errorf("scan frequency: %w", err)
		}
		artifact.Frequency[code] = docs
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return Artifact{}, false, fmt.Errorf("iterate frequency: %w", err)
	}
	if err := rows.Close(); err != nil {
		return Artifact{}, false, fmt.Errorf("close frequency rows: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, "SELECT code FROM blacklisted_code ORDER BY code")
	if err != nil {
		return Artifact{}, false, fmt.Errorf("query blacklist: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return Artifact{}, false, fmt.Errorf("scan blacklist: %w", err)
		}
		artifact.Blacklist = append(artifact.Blacklist, code)
	}
	if err := rows.Err(); err != nil {
		return Artifact{}, false, fmt.Errorf("iterate blacklist: %w", err)
	}
	return artifact, true, nil
}

// Save replaces the stored artifact in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, a Artifact) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return s.saveTx(ctx, a)
	})
}

func (s *SQLiteStore) saveTx(ctx context.Context, a Artifact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM code_frequency", "DELETE FROM blacklisted_code"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
	}

	insertFreq, err := tx.PrepareContext(ctx, "INSERT INTO code_frequency (code, documents) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare frequency insert: %w", err)
	}
	defer insertFreq.Close()
	for code, docs := range a.Frequency {
		if _, err := insertFreq.ExecContext(ctx, code, docs); err != nil {
			return fmt.Errorf("insert frequency %s: %w", code, err)
		}
	}

	insertCode, err := tx.PrepareContext(ctx, "INSERT INTO blacklisted_code (code) VALUES (?)")
	if err != nil {
		return fmt.Errorf("prepare blacklist insert: %w", err)
	}
	defer insertCode.Close()
	for _, code := range a.Blacklist {
		if _, err := insertCode.ExecContext(ctx, code); err != nil {
			return fmt.Errorf("insert blacklisted code %s: %w", code, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO corpus (id, total_docs, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET total_docs = excluded.total_docs, updated_at = excluded.updated_at`,
		a.TotalDocs, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upsert corpus row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
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
		return fmt.Errorf("%w: database has version %d, expected %d (run 'ucextract blacklist reset' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
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

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isSQLiteCorrupt(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() & 0xff {
		case sqliteCorruptCode, sqliteNotADBCode:
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "file is not a database") || strings.Contains(msg, "database disk image is malformed")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
