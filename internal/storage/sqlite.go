package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLiteStore keeps the ledger in a local SQLite file
type SQLiteStore struct {
	sqlLedger
}

// NewSQLiteStore creates a new SQLite ledger
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite ledger path is empty")
	}
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// busy_timeout lets concurrent invocations wait on the write lock
	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=2000")
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	store := &SQLiteStore{sqlLedger{db: db, logger: logger, now: time.Now}}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		repo TEXT NOT NULL,
		subcommand TEXT NOT NULL,
		cache_key TEXT NOT NULL,
		head_commit TEXT NOT NULL,
		cache_hit INTEGER NOT NULL,
		commits_analyzed INTEGER NOT NULL,
		signal_count INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_signals (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		severity REAL NOT NULL,
		trigger_commit TEXT NOT NULL,
		fix_commit TEXT NOT NULL,
		files TEXT NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_repo ON runs(repo, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
