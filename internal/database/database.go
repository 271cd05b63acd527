package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed persistence layer for price alerts and metrics.
// All mutations are committed before the call returns.
type Store struct {
	db      *sql.DB
	maxPPA  int
	maxCPA  int
}

// New opens (or creates) the database at dbPath and ensures the schema
// exists. maxPPA and maxCPA are the per-owner alert caps enforced on insert.
func New(dbPath string, maxPPA, maxCPA int) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db, maxPPA: maxPPA, maxCPA: maxCPA}
	if err := s.createTables(); err != nil {
		return nil, err
	}

	log.Debug("database initialized")
	return s, nil
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ppa (
			invoker_id TEXT NOT NULL,
			price      REAL NOT NULL,
			timestamp  INTEGER NOT NULL,
			PRIMARY KEY (invoker_id, price)
		)`,
		`CREATE TABLE IF NOT EXISTS cpa (
			channel_id TEXT NOT NULL,
			invoker_id TEXT NOT NULL,
			price      REAL NOT NULL,
			timestamp  INTEGER NOT NULL,
			PRIMARY KEY (channel_id, price)
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			metric_name  TEXT NOT NULL,
			label_key    TEXT DEFAULT '',
			label_value  TEXT DEFAULT '',
			metric_value REAL NOT NULL,
			PRIMARY KEY (metric_name, label_key, label_value)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
