package report

import (
	"context"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
	"github.com/kurihiro0119/github-org-archive/internal/storage"
)

// RunDetail is one run with its per-repository outcomes.
type RunDetail struct {
	Run     *domain.Run          `json:"run"`
	Records []*domain.RepoRecord `json:"records"`
	Failed  []string             `json:"failed,omitempty"`
}

// Report defines the read model over the run manifest, shared by the CLI
// and the API handler.
type Report interface {
	// ListRuns retrieves runs, most recent first. An empty org matches
	// all organizations.
	ListRuns(ctx context.Context, org string, limit int) ([]*domain.Run, error)

	// GetRun retrieves one run with its repository records.
	GetRun(ctx context.Context, id string) (*RunDetail, error)
}

// report implements the Report interface
type report struct {
	storage storage.Storage
}

// NewReport creates a new report over the given storage
func NewReport(storage storage.Storage) Report {
	return &report{
		storage: storage,
	}
}

// ListRuns retrieves runs, most recent first
func (r *report) ListRuns(ctx context.Context, org string, limit int) ([]*domain.Run, error) {
	return r.storage.ListRuns(ctx, org, limit)
}

// GetRun retrieves one run with its repository records
func (r *report) GetRun(ctx context.Context, id string) (*RunDetail, error) {
	run, err := r.storage.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	records, err := r.storage.GetRepoRecords(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{
		Run:     run,
		Records: records,
	}
	for _, rec := range records {
		if rec.Error != "" {
			detail.Failed = append(detail.Failed, rec.Name)
		}
	}
	return detail, nil
}
