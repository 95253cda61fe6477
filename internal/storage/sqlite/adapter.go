package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-archive/internal/errors"
	"github.com/kurihiro0119/github-org-archive/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		dest TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		teams INTEGER NOT NULL DEFAULT 0,
		repos INTEGER NOT NULL DEFAULT 0,
		issues INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_org ON runs(org);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS repo_records (
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		full_name TEXT NOT NULL,
		mirror_action TEXT NOT NULL,
		wiki_action TEXT NOT NULL,
		issues INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, name),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_repo_records_run_id ON repo_records(run_id);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SaveRun inserts a new run record
func (s *sqliteStorage) SaveRun(ctx context.Context, run *domain.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, org, dest, status, started_at, finished_at, teams, repos, issues, failures, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Org, run.Dest, string(run.Status), run.StartedAt, run.FinishedAt,
		run.Teams, run.Repos, run.Issues, run.Failures, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun updates an existing run record
func (s *sqliteStorage) UpdateRun(ctx context.Context, run *domain.Run) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ?, teams = ?, repos = ?, issues = ?, failures = ?, error = ?
		WHERE id = ?`,
		string(run.Status), run.FinishedAt, run.Teams, run.Repos, run.Issues, run.Failures, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("run")
	}
	return nil
}

// GetRun retrieves one run by ID
func (s *sqliteStorage) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org, dest, status, started_at, finished_at, teams, repos, issues, failures, error
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("run")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns retrieves runs, most recent first. An empty org matches all
// organizations; limit <= 0 means no limit.
func (s *sqliteStorage) ListRuns(ctx context.Context, org string, limit int) ([]*domain.Run, error) {
	query := `
		SELECT id, org, dest, status, started_at, finished_at, teams, repos, issues, failures, error
		FROM runs`
	args := []interface{}{}
	if org != "" {
		query += ` WHERE org = ?`
		args = append(args, org)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveRepoRecord inserts or replaces one per-repository outcome
func (s *sqliteStorage) SaveRepoRecord(ctx context.Context, rec *domain.RepoRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO repo_records (run_id, name, full_name, mirror_action, wiki_action, issues, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Name, rec.FullName, rec.MirrorAction, rec.WikiAction, rec.Issues, rec.Error, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save repo record %s: %w", rec.Name, err)
	}
	return nil
}

// GetRepoRecords retrieves the per-repository outcomes for a run
func (s *sqliteStorage) GetRepoRecords(ctx context.Context, runID string) ([]*domain.RepoRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, name, full_name, mirror_action, wiki_action, issues, error, created_at
		FROM repo_records WHERE run_id = ? ORDER BY created_at, name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list repo records: %w", err)
	}
	defer rows.Close()

	var recs []*domain.RepoRecord
	for rows.Next() {
		rec := &domain.RepoRecord{}
		if err := rows.Scan(&rec.RunID, &rec.Name, &rec.FullName, &rec.MirrorAction,
			&rec.WikiAction, &rec.Issues, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repo record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	run := &domain.Run{}
	var status string
	var finishedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.Org, &run.Dest, &status, &run.StartedAt, &finishedAt,
		&run.Teams, &run.Repos, &run.Issues, &run.Failures, &run.Error); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return run, nil
}
