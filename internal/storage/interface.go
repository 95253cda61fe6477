package storage

import (
	"context"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
)

// Storage is the abstract interface for the run-manifest persistence layer
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, run *domain.Run) error
	UpdateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, org string, limit int) ([]*domain.Run, error)

	// Per-repository outcome operations
	SaveRepoRecord(ctx context.Context, rec *domain.RepoRecord) error
	GetRepoRecords(ctx context.Context, runID string) ([]*domain.RepoRecord, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
