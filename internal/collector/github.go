package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
)

// permissionFlags is the fixed rendering order for team repository
// permission flags.
var permissionFlags = []string{"admin", "maintain", "push", "triage", "pull"}

// githubCollector implements Collector using the GitHub API
type githubCollector struct {
	client      *github.Client
	rateLimiter RateLimiter
}

// NewGitHubCollector creates a new GitHub collector
func NewGitHubCollector(token string) Collector {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	return &githubCollector{
		client:      client,
		rateLimiter: NewRateLimiter(),
	}
}

// NewCollectorWithClient creates a collector around an existing API client.
// Used by tests to point at a local server.
func NewCollectorWithClient(client *github.Client) Collector {
	return &githubCollector{
		client:      client,
		rateLimiter: NewRateLimiter(),
	}
}

// GetRepositories retrieves all repositories for an organization
func (c *githubCollector) GetRepositories(ctx context.Context, org string) ([]*domain.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allRepos []*domain.Repository
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, repo := range repos {
			allRepos = append(allRepos, &domain.Repository{
				Info:     projectRepoInfo(repo),
				CloneURL: repo.GetCloneURL(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allRepos, nil
}

// GetTeams retrieves all teams for an organization
func (c *githubCollector) GetTeams(ctx context.Context, org string) ([]*domain.Team, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allTeams []*domain.Team
	opts := &github.ListOptions{PerPage: 100}

	for {
		teams, resp, err := c.client.Teams.ListTeams(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams for %s: %w", org, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, team := range teams {
			allTeams = append(allTeams, &domain.Team{
				Name:        team.GetName(),
				Slug:        team.GetSlug(),
				Description: team.GetDescription(),
				Privacy:     team.GetPrivacy(),
				Permission:  team.GetPermission(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allTeams, nil
}

// GetTeamRepos retrieves the repositories a team has access to
func (c *githubCollector) GetTeamRepos(ctx context.Context, org, slug string) ([]*domain.TeamRepo, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allRepos []*domain.TeamRepo
	opts := &github.ListOptions{PerPage: 100}

	for {
		repos, resp, err := c.client.Teams.ListTeamReposBySlug(ctx, org, slug, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repos for team %s/%s: %w", org, slug, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, repo := range repos {
			allRepos = append(allRepos, &domain.TeamRepo{
				Name:        repo.GetName(),
				FullName:    repo.GetFullName(),
				Description: repo.GetDescription(),
				Permissions: projectPermissions(repo.GetPermissions()),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allRepos, nil
}

// GetTeamMembers retrieves the members of a team
func (c *githubCollector) GetTeamMembers(ctx context.Context, org, slug string) ([]*domain.TeamMember, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allMembers []*domain.TeamMember
	opts := &github.TeamListTeamMembersOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		members, resp, err := c.client.Teams.ListTeamMembersBySlug(ctx, org, slug, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list members for team %s/%s: %w", org, slug, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, member := range members {
			allMembers = append(allMembers, &domain.TeamMember{
				Login:     member.GetLogin(),
				Type:      member.GetType(),
				SiteAdmin: member.GetSiteAdmin(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allMembers, nil
}

// GetIssues retrieves all issues and pull requests for a repository
func (c *githubCollector) GetIssues(ctx context.Context, org, repo string) ([]*domain.Issue, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allIssues []*domain.Issue
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		issues, resp, err := c.client.Issues.ListByRepo(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues for %s/%s: %w", org, repo, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, issue := range issues {
			allIssues = append(allIssues, projectIssue(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allIssues, nil
}

// GetIssueComments retrieves all comments for an issue in creation order
func (c *githubCollector) GetIssueComments(ctx context.Context, org, repo string, number int) ([]*domain.Comment, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allComments []*domain.Comment
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		comments, resp, err := c.client.Issues.ListComments(ctx, org, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments for %s/%s#%d: %w", org, repo, number, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, comment := range comments {
			allComments = append(allComments, &domain.Comment{
				Author:    comment.GetUser().GetLogin(),
				CreatedAt: comment.GetCreatedAt().Time,
				Body:      comment.GetBody(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allComments, nil
}

// projectIssue maps an API issue to its document projection. Assignee and
// milestone are optional; a missing assignee omits the field and a missing
// milestone stays a zero value, rendered as an empty mapping.
func projectIssue(issue *github.Issue) *domain.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	var milestone domain.Milestone
	if m := issue.Milestone; m != nil {
		milestone = domain.Milestone{
			Title:       m.GetTitle(),
			Number:      m.GetNumber(),
			Description: m.GetDescription(),
			State:       m.GetState(),
		}
	}

	var closedAt *time.Time
	if issue.ClosedAt != nil {
		t := issue.ClosedAt.Time
		closedAt = &t
	}

	assignee := ""
	if issue.Assignee != nil {
		assignee = issue.Assignee.GetLogin()
	}

	return &domain.Issue{
		Title:     issue.GetTitle(),
		Number:    issue.GetNumber(),
		State:     issue.GetState(),
		URL:       issue.GetHTMLURL(),
		CreatedAt: issue.GetCreatedAt().Time,
		ClosedAt:  closedAt,
		Author:    issue.GetUser().GetLogin(),
		Labels:    labels,
		Milestone: milestone,
		Assignee:  assignee,
		Body:      issue.GetBody(),
		Comments:  issue.GetComments(),
	}
}

func projectRepoInfo(repo *github.Repository) domain.RepoInfo {
	return domain.RepoInfo{
		Name:            repo.GetName(),
		FullName:        repo.GetFullName(),
		Description:     repo.GetDescription(),
		Private:         repo.GetPrivate(),
		Fork:            repo.GetFork(),
		Homepage:        repo.GetHomepage(),
		ForksCount:      repo.GetForksCount(),
		StargazersCount: repo.GetStargazersCount(),
		WatchersCount:   repo.GetWatchersCount(),
		Size:            repo.GetSize(),
		HasWiki:         repo.GetHasWiki(),
	}
}

// projectPermissions reshapes the permission mapping into one single-flag
// mapping per known permission, in a fixed order.
func projectPermissions(perms map[string]bool) []map[string]bool {
	out := make([]map[string]bool, 0, len(permissionFlags))
	for _, flag := range permissionFlags {
		granted, ok := perms[flag]
		if !ok {
			continue
		}
		out = append(out, map[string]bool{flag: granted})
	}
	return out
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (c *githubCollector) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining >= 0 {
		c.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}
