package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-archive/internal/errors"
	"github.com/kurihiro0119/github-org-archive/internal/storage"
)

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id, org string, started time.Time) *domain.Run {
	return &domain.Run{
		ID:        id,
		Org:       org,
		Dest:      "/archive/" + org + "/20240301-120000",
		Status:    domain.RunStatusInProgress,
		StartedAt: started,
	}
}

func TestRunRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	run := sampleRun("run-1", "acme", started)
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Org)
	assert.Equal(t, domain.RunStatusInProgress, got.Status)
	assert.Nil(t, got.FinishedAt)

	finished := started.Add(time.Minute)
	run.Status = domain.RunStatusCompleted
	run.FinishedAt = &finished
	run.Teams = 1
	run.Repos = 3
	run.Issues = 7
	require.NoError(t, store.UpdateRun(ctx, run))

	got, err = store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, 3, got.Repos)
	assert.Equal(t, 7, got.Issues)
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateRunNotFound(t *testing.T) {
	store := newTestStorage(t)

	err := store.UpdateRun(context.Background(), sampleRun("missing", "acme", time.Now()))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListRunsFiltersAndOrders(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", "acme", base)))
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-2", "acme", base.Add(time.Hour))))
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-3", "globex", base.Add(2*time.Hour))))

	all, err := store.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// most recent first
	assert.Equal(t, "run-3", all[0].ID)
	assert.Equal(t, "run-1", all[2].ID)

	acme, err := store.ListRuns(ctx, "acme", 0)
	require.NoError(t, err)
	require.Len(t, acme, 2)
	assert.Equal(t, "run-2", acme[0].ID)

	limited, err := store.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "run-3", limited[0].ID)
}

func TestRepoRecords(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", "acme", time.Now())))

	rec := &domain.RepoRecord{
		RunID:        "run-1",
		Name:         "widget",
		FullName:     "acme/widget",
		MirrorAction: "cloned",
		WikiAction:   "none",
		Issues:       4,
	}
	require.NoError(t, store.SaveRepoRecord(ctx, rec))

	// saving again replaces the record
	rec.MirrorAction = "pulled"
	rec.Error = "wiki clone failed"
	require.NoError(t, store.SaveRepoRecord(ctx, rec))

	recs, err := store.GetRepoRecords(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "pulled", recs[0].MirrorAction)
	assert.Equal(t, "wiki clone failed", recs[0].Error)
	assert.Equal(t, 4, recs[0].Issues)

	none, err := store.GetRepoRecords(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
