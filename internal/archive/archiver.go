package archive

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/github-org-archive/internal/collector"
	"github.com/kurihiro0119/github-org-archive/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-archive/internal/errors"
	"github.com/kurihiro0119/github-org-archive/internal/gitmirror"
	"github.com/kurihiro0119/github-org-archive/internal/storage"
)

// Archiver sequences one archive run: teams first, then for each
// repository a mirror step, a repo-info document and the issue archive.
// Everything is synchronous and ordered; no step is retried.
type Archiver struct {
	collector collector.Collector
	mirror    gitmirror.Mirror
	store     storage.Storage
	dest      string
	now       func() time.Time
}

// New creates an archiver writing under dest (the run appends a timestamp).
func New(coll collector.Collector, mirror gitmirror.Mirror, store storage.Storage, dest string) *Archiver {
	return &Archiver{
		collector: coll,
		mirror:    mirror,
		store:     store,
		dest:      dest,
		now:       time.Now,
	}
}

// Run archives the organization and records the outcome in the manifest.
// Organization-level listing failures abort the run; per-repository
// failures are recorded and the run continues.
func (a *Archiver) Run(ctx context.Context, org string) (*domain.Run, error) {
	started := a.now()
	layout := NewLayout(a.dest, started)

	if err := os.MkdirAll(layout.Root(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive root: %w", err)
	}

	run := &domain.Run{
		ID:        uuid.New().String(),
		Org:       org,
		Dest:      layout.Root(),
		Status:    domain.RunStatusInProgress,
		StartedAt: started,
	}
	if err := a.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	fmt.Printf("Archiving organization: %s\n", org)
	fmt.Printf("Archive root: %s\n", layout.Root())

	fmt.Println("Archiving teams...")
	teams, err := a.archiveTeams(ctx, org, layout)
	run.Teams = teams
	if err != nil {
		return run, a.fail(ctx, run, fmt.Errorf("failed to archive teams: %w", err))
	}
	fmt.Printf("Archived %d teams\n", teams)

	fmt.Println("Fetching repositories...")
	repos, err := a.collector.GetRepositories(ctx, org)
	if err != nil {
		return run, a.fail(ctx, run, fmt.Errorf("failed to get repositories: %w", err))
	}
	fmt.Printf("Found %d repositories\n", len(repos))

	for _, repo := range repos {
		rec := a.archiveRepo(ctx, org, repo, layout)
		rec.RunID = run.ID

		run.Repos++
		run.Issues += rec.Issues
		if rec.Error != "" {
			run.Failures++
			fmt.Printf("Warning: %s: %s\n", rec.Name, rec.Error)
		}

		if err := a.store.SaveRepoRecord(ctx, rec); err != nil {
			fmt.Printf("Warning: failed to record repository %s: %v\n", rec.Name, err)
		}
	}

	run.Status = domain.RunStatusCompleted
	if run.Failures > 0 {
		run.Status = domain.RunStatusPartial
	}
	finished := a.now()
	run.FinishedAt = &finished
	if err := a.store.UpdateRun(ctx, run); err != nil {
		fmt.Printf("Warning: failed to finalize run record: %v\n", err)
	}

	fmt.Printf("Archive complete in %s\n", finished.Sub(started).Round(time.Millisecond))
	return run, nil
}

// archiveRepo mirrors one repository and writes its repo-info and issue
// documents, collecting every failure into the returned record.
func (a *Archiver) archiveRepo(ctx context.Context, org string, repo *domain.Repository, layout Layout) *domain.RepoRecord {
	name := repo.Info.Name
	fmt.Printf("Archiving repository: %s\n", repo.Info.FullName)

	rec := &domain.RepoRecord{
		Name:       name,
		FullName:   repo.Info.FullName,
		WikiAction: "none",
	}

	action, err := a.mirror.Sync(ctx, repo.CloneURL, layout.RepoDir(name))
	rec.MirrorAction = action
	if err != nil {
		rec.MirrorAction = "failed"
		rec.Error = appendError(rec.Error, err)
	}

	if repo.Info.HasWiki {
		action, err := a.mirror.Sync(ctx, a.mirror.WikiURL(repo.CloneURL), layout.WikiDir(name))
		rec.WikiAction = action
		if err != nil {
			rec.WikiAction = "failed"
			rec.Error = appendError(rec.Error, err)
		}
	}

	if err := a.writeRepoInfo(repo.Info, layout); err != nil {
		rec.Error = appendError(rec.Error, err)
	}

	issues, err := a.archiveIssues(ctx, org, name, layout)
	rec.Issues = issues
	if err != nil {
		rec.Error = appendError(rec.Error, err)
	}

	return rec
}

func (a *Archiver) writeRepoInfo(info domain.RepoInfo, layout Layout) error {
	doc, err := BuildRepoInfoDocument(info)
	if err != nil {
		return err
	}
	return writeFile(layout.RepoInfoFile(info.Name), doc)
}

// fail marks the run failed and persists the final state. Transient
// failures (rate limiting, server errors) are flagged as retryable.
func (a *Archiver) fail(ctx context.Context, run *domain.Run, err error) error {
	if apperrors.IsTransient(err) {
		err = fmt.Errorf("%w (transient, retry later)", err)
	}
	run.Status = domain.RunStatusFailed
	run.Error = err.Error()
	finished := a.now()
	run.FinishedAt = &finished
	if uerr := a.store.UpdateRun(ctx, run); uerr != nil {
		fmt.Printf("Warning: failed to finalize run record: %v\n", uerr)
	}
	return err
}

func appendError(existing string, err error) string {
	if existing == "" {
		return err.Error()
	}
	return existing + "; " + err.Error()
}
