package storage

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// PostgresStore keeps the ledger in PostgreSQL, shared across machines
type PostgresStore struct {
	sqlLedger
}

// NewPostgresStore creates a new PostgreSQL ledger
func NewPostgresStore(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres ledger DSN is empty")
	}
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &PostgresStore{sqlLedger{db: db, logger: logger, now: time.Now}}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		repo TEXT NOT NULL,
		subcommand TEXT NOT NULL,
		cache_key TEXT NOT NULL,
		head_commit TEXT NOT NULL,
		cache_hit BOOLEAN NOT NULL,
		commits_analyzed INTEGER NOT NULL,
		signal_count INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_signals (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		severity DOUBLE PRECISION NOT NULL,
		trigger_commit TEXT NOT NULL,
		fix_commit TEXT NOT NULL,
		files TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_repo ON runs(repo, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}
