package hashstore

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (malware_hashes + sync_runs)
const currentSchemaVersion = 1

// ErrNotInitialized reports a query against a database whose schema was
// never created. Callers surface it as a "store not initialized"
// verdict, not as a storage failure.
var ErrNotInitialized = errors.New("hash store not initialized")

// Store provides durable storage for the malware hash table.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and applies
// the required pragmas. The schema is NOT created here; call Init (or
// run a rebuild) to create it. This keeps "database file exists but was
// never initialized" observable as a distinct condition.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn for this workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// Init creates the schema if it does not exist. Idempotent.
func (s *Store) Init() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Initialized reports whether the hash table exists.
func (s *Store) Initialized() (bool, error) {
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='malware_hashes'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check schema: %w", err)
	}
	return true, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

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

// missingTable reports whether err is the driver's "no such table"
// failure, i.e. the schema was never created.
func missingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
