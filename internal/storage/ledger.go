// Package storage is the run ledger: a record of every query gitintel
// answered and the signals it reported, kept in SQLite by default or in
// PostgreSQL when a DSN is configured.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownDriver = errors.New("unknown ledger driver")
)

// Drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Run is one answered query
type Run struct {
	ID              string    `db:"id" json:"id" yaml:"id"`
	Repo            string    `db:"repo" json:"repo" yaml:"repo"`
	Subcommand      string    `db:"subcommand" json:"subcommand" yaml:"subcommand"`
	CacheKey        string    `db:"cache_key" json:"cache_key" yaml:"cache_key"`
	HeadCommit      string    `db:"head_commit" json:"head_commit" yaml:"head_commit"`
	CacheHit        bool      `db:"cache_hit" json:"cache_hit" yaml:"cache_hit"`
	CommitsAnalyzed int       `db:"commits_analyzed" json:"commits_analyzed" yaml:"commits_analyzed"`
	SignalCount     int       `db:"signal_count" json:"signal_count" yaml:"signal_count"`
	DurationMS      int64     `db:"duration_ms" json:"duration_ms" yaml:"duration_ms"`
	CreatedAt       time.Time `db:"created_at" json:"created_at" yaml:"created_at"`
}

// RunSignal is a signal reported by a run
type RunSignal struct {
	RunID         string  `db:"run_id" json:"run_id" yaml:"run_id"`
	Position      int     `db:"position" json:"position" yaml:"position"`
	Kind          string  `db:"kind" json:"kind" yaml:"kind"`
	Severity      float64 `db:"severity" json:"severity" yaml:"severity"`
	TriggerCommit string  `db:"trigger_commit" json:"trigger_commit" yaml:"trigger_commit"`
	FixCommit     string  `db:"fix_commit" json:"fix_commit" yaml:"fix_commit"`
	Files         string  `db:"files" json:"files" yaml:"files"` // newline separated
}

// FileList splits Files back into paths
func (s RunSignal) FileList() []string {
	if s.Files == "" {
		return nil
	}
	return strings.Split(s.Files, "\n")
}

// Store defines the ledger interface
type Store interface {
	RecordRun(ctx context.Context, run *Run, signals []RunSignal) error
	GetRun(ctx context.Context, id string) (*Run, error)
	RecentRuns(ctx context.Context, repo string, limit int) ([]*Run, error)
	RunSignals(ctx context.Context, runID string) ([]*RunSignal, error)
	Close() error
}

// Options selects and locates the ledger database
type Options struct {
	Driver string
	Path   string // sqlite database file
	DSN    string // postgres connection string
}

// Open connects to the configured ledger
func Open(opts Options, logger *logrus.Logger) (Store, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		store, err := NewSQLiteStore(opts.Path, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverPostgres:
		store, err := NewPostgresStore(opts.DSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

// sqlLedger holds the queries shared by both drivers. Statements are
// written with ? placeholders and rebound for the driver.
type sqlLedger struct {
	db     *sqlx.DB
	logger *logrus.Logger
	now    func() time.Time
}

func (s *sqlLedger) RecordRun(ctx context.Context, run *Run, signals []RunSignal) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	run.SignalCount = len(signals)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs
		(id, repo, subcommand, cache_key, head_commit, cache_hit,
		 commits_analyzed, signal_count, duration_ms, created_at)
		VALUES (:id, :repo, :subcommand, :cache_key, :head_commit, :cache_hit,
		 :commits_analyzed, :signal_count, :duration_ms, :created_at)
	`, run)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i := range signals {
		signals[i].RunID = run.ID
		signals[i].Position = i
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO run_signals
			(run_id, position, kind, severity, trigger_commit, fix_commit, files)
			VALUES (:run_id, :position, :kind, :severity, :trigger_commit, :fix_commit, :files)
		`, &signals[i])
		if err != nil {
			return fmt.Errorf("insert run signal %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"subcommand": run.Subcommand,
		"signals":    len(signals),
	}).Debug("Run recorded")
	return nil
}

func (s *sqlLedger) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, s.db.Rebind(`SELECT * FROM runs WHERE id = ?`), id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

func (s *sqlLedger) RecentRuns(ctx context.Context, repo string, limit int) ([]*Run, error) {
	runs := []*Run{}
	query := s.db.Rebind(`SELECT * FROM runs WHERE repo = ? ORDER BY created_at DESC, id LIMIT ?`)
	if err := s.db.SelectContext(ctx, &runs, query, repo, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *sqlLedger) RunSignals(ctx context.Context, runID string) ([]*RunSignal, error) {
	signals := []*RunSignal{}
	query := s.db.Rebind(`SELECT * FROM run_signals WHERE run_id = ? ORDER BY position`)
	if err := s.db.SelectContext(ctx, &signals, query, runID); err != nil {
		return nil, fmt.Errorf("list run signals: %w", err)
	}
	return signals, nil
}

// Close closes the database connection
func (s *sqlLedger) Close() error {
	return s.db.Close()
}
