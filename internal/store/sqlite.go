// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides folder/job/run persistence with automatic schema creation

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the folder database at path, creating parent
// directories, the schema, and any missing columns. A nil logger uses slog.Default.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// foreign_keys and busy_timeout are per-connection, so they go in the DSN
	// to apply to every pooled connection.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Readers (reference scans) must not block the writer saving folder icons.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS folders (
			id         TEXT PRIMARY KEY,
			parent_id  TEXT REFERENCES folders(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			icon_json  TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id);

		CREATE TABLE IF NOT EXISTS jobs (
			id         TEXT PRIMARY KEY,
			folder_id  TEXT NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			disabled   INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,

			UNIQUE(folder_id, name)
		);

		CREATE INDEX IF NOT EXISTS idx_jobs_folder ON jobs(folder_id);

		CREATE TABLE IF NOT EXISTS runs (
			job_id     TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			number     INTEGER NOT NULL,
			result     TEXT NOT NULL DEFAULT '',
			building   INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,

			PRIMARY KEY (job_id, number)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations adds columns that databases created by older builds lack.
// A column already present is skipped.
func (s *SQLiteStore) runMigrations() error {
	migrations := []struct {
		table  string
		column string
		apply  string
	}{
		{
			table:  "folders",
			column: "icon_json",
			apply:  `ALTER TABLE folders ADD COLUMN icon_json TEXT NOT NULL DEFAULT '{}'`,
		},
	}

	for _, m := range migrations {
		present, err := s.hasColumn(m.table, m.column)
		if err != nil {
			return err
		}
		if present {
			continue
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to %s: %w", m.column, m.table, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", m.table)
	}

	return nil
}

func (s *SQLiteStore) hasColumn(table, column string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspecting %s columns: %w", table, err)
	}
	return n > 0, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation reports whether err is a SQLite constraint failure.
func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// nullString converts an empty string to a SQL NULL
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *SQLiteStore) parseTime(value, field, id string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		s.logger.Warn("failed to parse timestamp", "field", field, "id", id, "error", err)
		return time.Time{}
	}
	return parsed
}
