package archive

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-archive/internal/errors"
)

type fakeCollector struct {
	teams       []*domain.Team
	teamRepos   map[string][]*domain.TeamRepo
	teamMembers map[string][]*domain.TeamMember
	repos       []*domain.Repository
	issues      map[string][]*domain.Issue
	comments    map[int][]*domain.Comment
	teamsErr    error
	reposErr    error
}

func (f *fakeCollector) GetRepositories(ctx context.Context, org string) ([]*domain.Repository, error) {
	return f.repos, f.reposErr
}

func (f *fakeCollector) GetTeams(ctx context.Context, org string) ([]*domain.Team, error) {
	return f.teams, f.teamsErr
}

func (f *fakeCollector) GetTeamRepos(ctx context.Context, org, slug string) ([]*domain.TeamRepo, error) {
	return f.teamRepos[slug], nil
}

func (f *fakeCollector) GetTeamMembers(ctx context.Context, org, slug string) ([]*domain.TeamMember, error) {
	return f.teamMembers[slug], nil
}

func (f *fakeCollector) GetIssues(ctx context.Context, org, repo string) ([]*domain.Issue, error) {
	return f.issues[repo], nil
}

func (f *fakeCollector) GetIssueComments(ctx context.Context, org, repo string, number int) ([]*domain.Comment, error) {
	return f.comments[number], nil
}

// fakeMirror creates destination directories instead of running git.
type fakeMirror struct {
	failURLs map[string]error
	synced   []string
}

func (m *fakeMirror) Sync(ctx context.Context, cloneURL, dest string) (string, error) {
	m.synced = append(m.synced, cloneURL)
	if err, ok := m.failURLs[cloneURL]; ok {
		return "cloned", err
	}
	if _, err := os.Stat(dest); err == nil {
		return "pulled", nil
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "cloned", err
	}
	return "cloned", nil
}

func (m *fakeMirror) WikiURL(cloneURL string) string {
	return strings.TrimSuffix(cloneURL, ".git") + ".wiki.git"
}

type memStore struct {
	runs    map[string]*domain.Run
	records []*domain.RepoRecord
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[string]*domain.Run)}
}

func (s *memStore) SaveRun(ctx context.Context, run *domain.Run) error {
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *memStore) UpdateRun(ctx context.Context, run *domain.Run) error {
	if _, ok := s.runs[run.ID]; !ok {
		return apperrors.NewNotFoundError("run")
	}
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *memStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("run")
	}
	return run, nil
}

func (s *memStore) ListRuns(ctx context.Context, org string, limit int) ([]*domain.Run, error) {
	var out []*domain.Run
	for _, run := range s.runs {
		if org == "" || run.Org == org {
			out = append(out, run)
		}
	}
	return out, nil
}

func (s *memStore) SaveRepoRecord(ctx context.Context, rec *domain.RepoRecord) error {
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

func (s *memStore) GetRepoRecords(ctx context.Context, runID string) ([]*domain.RepoRecord, error) {
	var out []*domain.RepoRecord
	for _, rec := range s.records {
		if rec.RunID == runID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStore) Migrate(ctx context.Context) error { return nil }
func (s *memStore) Close() error                      { return nil }

func acmeCollector() *fakeCollector {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeCollector{
		teams: []*domain.Team{{Name: "Core", Slug: "core", Privacy: "closed", Permission: "pull"}},
		teamRepos: map[string][]*domain.TeamRepo{
			"core": {{Name: "widget", FullName: "acme/widget", Permissions: []map[string]bool{{"pull": true}}}},
		},
		teamMembers: map[string][]*domain.TeamMember{
			"core": {{Login: "alice", Type: "User"}},
		},
		repos: []*domain.Repository{{
			Info: domain.RepoInfo{
				Name:     "widget",
				FullName: "acme/widget",
			},
			CloneURL: "https://github.com/acme/widget.git",
		}},
		issues: map[string][]*domain.Issue{
			"widget": {{
				Title:     "Bug",
				Number:    1,
				State:     "open",
				CreatedAt: created,
				Author:    "alice",
				Body:      "It crashes.",
				Comments:  2,
			}},
		},
		comments: map[int][]*domain.Comment{
			1: {
				{Author: "bob", CreatedAt: created.Add(time.Hour), Body: "Confirmed."},
				{Author: "alice", CreatedAt: created.Add(2 * time.Hour), Body: "Fixed."},
			},
		},
	}
}

func TestArchiverEndToEnd(t *testing.T) {
	dest := t.TempDir()
	store := newMemStore()
	mirror := &fakeMirror{}
	a := New(acmeCollector(), mirror, store, dest)

	run, err := a.Run(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.Teams)
	assert.Equal(t, 1, run.Repos)
	assert.Equal(t, 1, run.Issues)
	assert.Equal(t, 0, run.Failures)
	require.NotNil(t, run.FinishedAt)

	layout := Layout{root: run.Dest}

	teamDoc, err := os.ReadFile(layout.TeamFile("core"))
	require.NoError(t, err)
	doc := string(teamDoc)
	assert.Less(t, strings.Index(doc, "# Team Info"), strings.Index(doc, "# Team Repos"))
	assert.Less(t, strings.Index(doc, "# Team Repos"), strings.Index(doc, "# Team Members"))

	issueDoc, err := os.ReadFile(layout.IssueFile("widget", 1))
	require.NoError(t, err)
	idoc := string(issueDoc)
	assert.Contains(t, idoc, "# Bug")
	assert.Contains(t, idoc, "It crashes.")
	assert.Contains(t, idoc, "@bob at")
	assert.Contains(t, idoc, "@alice at")
	assert.Less(t, strings.Index(idoc, "@bob"), strings.Index(idoc, "@alice at"))

	infoDoc, err := os.ReadFile(layout.RepoInfoFile("widget"))
	require.NoError(t, err)
	assert.Contains(t, string(infoDoc), "full_name: acme/widget")

	// the working copy was synced
	assert.DirExists(t, layout.RepoDir("widget"))
	assert.Equal(t, []string{"https://github.com/acme/widget.git"}, mirror.synced)

	// manifest captured the outcome
	recorded, err := store.GetRepoRecords(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "cloned", recorded[0].MirrorAction)
	assert.Equal(t, "none", recorded[0].WikiAction)
	assert.Equal(t, 1, recorded[0].Issues)
	assert.Empty(t, recorded[0].Error)
}

func TestArchiverMirrorsWiki(t *testing.T) {
	coll := acmeCollector()
	coll.repos[0].Info.HasWiki = true
	mirror := &fakeMirror{}
	a := New(coll, mirror, newMemStore(), t.TempDir())

	run, err := a.Run(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://github.com/acme/widget.git",
		"https://github.com/acme/widget.wiki.git",
	}, mirror.synced)
	assert.DirExists(t, Layout{root: run.Dest}.WikiDir("widget"))
}

func TestArchiverRecordsMirrorFailureAndContinues(t *testing.T) {
	coll := acmeCollector()
	mirror := &fakeMirror{failURLs: map[string]error{
		"https://github.com/acme/widget.git": errors.New("exit status 128"),
	}}
	store := newMemStore()
	a := New(coll, mirror, store, t.TempDir())

	run, err := a.Run(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusPartial, run.Status)
	assert.Equal(t, 1, run.Failures)

	recorded, err := store.GetRepoRecords(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "failed", recorded[0].MirrorAction)
	assert.Contains(t, recorded[0].Error, "exit status 128")
	// the issue archive still ran
	assert.Equal(t, 1, recorded[0].Issues)
}

func TestArchiverFailsRunWhenTeamListingFails(t *testing.T) {
	coll := acmeCollector()
	coll.teamsErr = errors.New("boom")
	store := newMemStore()
	a := New(coll, &fakeMirror{}, store, t.TempDir())

	run, err := a.Run(context.Background(), "acme")
	require.Error(t, err)
	require.NotNil(t, run)

	saved, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, saved.Status)
	assert.Contains(t, saved.Error, "boom")
	assert.NotContains(t, saved.Error, "retry later")
}

func TestArchiverFlagsTransientFailureAsRetryable(t *testing.T) {
	coll := acmeCollector()
	coll.teamsErr = &github.RateLimitError{
		Response: &http.Response{
			StatusCode: http.StatusForbidden,
			Request: &http.Request{
				Method: http.MethodGet,
				URL:    &url.URL{Scheme: "https", Host: "api.github.com", Path: "/orgs/acme/teams"},
			},
		},
		Message: "API rate limit exceeded",
	}
	store := newMemStore()
	a := New(coll, &fakeMirror{}, store, t.TempDir())

	run, err := a.Run(context.Background(), "acme")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err))
	assert.Contains(t, err.Error(), "transient, retry later")

	saved, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, saved.Status)
	assert.Contains(t, saved.Error, "transient, retry later")
}

func TestArchiverReRunPullsExistingWorkingCopy(t *testing.T) {
	dest := t.TempDir()
	coll := acmeCollector()
	store := newMemStore()

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := New(coll, &fakeMirror{}, store, dest)
	a.now = func() time.Time { return fixed }

	_, err := a.Run(context.Background(), "acme")
	require.NoError(t, err)

	// same start time resolves to the same archive root
	run, err := a.Run(context.Background(), "acme")
	require.NoError(t, err)

	recorded, err := store.GetRepoRecords(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "pulled", recorded[0].MirrorAction)
	assert.Empty(t, recorded[0].Error)
}
