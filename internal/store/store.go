// Package store provides the SQLite database that backs mudra's named
// message queues. Several processes on one host open the same file.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// busyTimeoutMs bounds how long a writer waits for another process's lock.
const busyTimeoutMs = 5000

// Store represents a SQLite database connection.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the database at dbPath, configures it for
// shared multi-process access and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection per process; cross-process locking is left to SQLite.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, sep, busyTimeoutMs)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
