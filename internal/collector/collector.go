package collector

import (
	"context"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
)

// Collector defines the interface for reading organization data from GitHub
type Collector interface {
	// GetRepositories retrieves all repositories for an organization
	GetRepositories(ctx context.Context, org string) ([]*domain.Repository, error)

	// GetTeams retrieves all teams for an organization
	GetTeams(ctx context.Context, org string) ([]*domain.Team, error)

	// GetTeamRepos retrieves the repositories a team has access to
	GetTeamRepos(ctx context.Context, org, slug string) ([]*domain.TeamRepo, error)

	// GetTeamMembers retrieves the members of a team
	GetTeamMembers(ctx context.Context, org, slug string) ([]*domain.TeamMember, error)

	// GetIssues retrieves all issues and pull requests for a repository,
	// open and closed
	GetIssues(ctx context.Context, org, repo string) ([]*domain.Issue, error)

	// GetIssueComments retrieves all comments for an issue in creation order
	GetIssueComments(ctx context.Context, org, repo string, number int) ([]*domain.Comment, error)
}
