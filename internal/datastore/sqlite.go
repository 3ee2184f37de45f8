package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// migration is a single schema step, applied once and tracked in schema_migrations.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE kv (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE notified (
    key       TEXT PRIMARY KEY,
    url       TEXT NOT NULL,
    keyword   TEXT NOT NULL,
    title     TEXT NOT NULL DEFAULT '',
    context   TEXT NOT NULL DEFAULT '',
    timestamp INTEGER NOT NULL
);

CREATE TABLE match_history (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    url       TEXT NOT NULL,
    keyword   TEXT NOT NULL,
    title     TEXT NOT NULL DEFAULT '',
    context   TEXT NOT NULL DEFAULT '',
    timestamp INTEGER NOT NULL
);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE scan_results (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    url            TEXT NOT NULL,
    timestamp      INTEGER NOT NULL,
    found_keywords TEXT NOT NULL DEFAULT '[]',
    total_keywords INTEGER NOT NULL DEFAULT 0,
    content_length INTEGER NOT NULL DEFAULT 0,
    source         TEXT NOT NULL DEFAULT '',
    error          TEXT NOT NULL DEFAULT ''
);
`,
	},
}

// Store is the local persistent store: a key-value table plus the match
// tables owned by the engine. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	// writeMu serializes read-modify-write sequences within this process;
	// transactions cover other processes sharing the file.
	writeMu sync.Mutex
}

// Open opens (or creates) the SQLite database at path, configures pragmas
// and applies pending migrations.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "Datastore").Logger()

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	// SQLite is single-writer; one connection avoids SQLITE_BUSY between goroutines
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			closeQuietly(db, logger)
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := runMigrations(ctx, db); err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info().Str("path", path).Msg("Datastore opened")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func closeQuietly(db *sql.DB, logger zerolog.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database after setup error")
	}
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("querying current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.version, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("recording migration %d: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.version, err)
	}
	return nil
}
