package domain

import "time"

// Team is the projection of an organization team written to the team
// document header. Field order is the serialization order.
type Team struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Privacy     string `yaml:"privacy"`
	Permission  string `yaml:"permission"`
}

// TeamRepo is one repository a team has access to. Permissions is a list
// of single-flag mappings, one per permission, in a fixed flag order.
type TeamRepo struct {
	Name        string            `yaml:"name"`
	FullName    string            `yaml:"full_name"`
	Description string            `yaml:"description"`
	Permissions []map[string]bool `yaml:"permissions"`
}

// TeamMember is the projection of a team member.
type TeamMember struct {
	Login     string `yaml:"login"`
	Type      string `yaml:"type"`
	SiteAdmin bool   `yaml:"site_admin"`
}

// RepoInfo is the projection written to repo_info.md for each repository.
type RepoInfo struct {
	Name            string `yaml:"name"`
	FullName        string `yaml:"full_name"`
	Description     string `yaml:"description"`
	Private         bool   `yaml:"private"`
	Fork            bool   `yaml:"fork"`
	Homepage        string `yaml:"homepage"`
	ForksCount      int    `yaml:"forks_count"`
	StargazersCount int    `yaml:"stargazers_count"`
	WatchersCount   int    `yaml:"watchers_count"`
	Size            int    `yaml:"size"`
	HasWiki         bool   `yaml:"has_wiki"`
}

// Repository carries what the driver needs to mirror and archive one
// repository; RepoInfo is the serialized subset.
type Repository struct {
	Info     RepoInfo
	CloneURL string
}

// Milestone is projected only when an issue references one; a zero value
// renders as an empty mapping.
type Milestone struct {
	Title       string
	Number      int
	Description string
	State       string
}

// MarshalYAML renders the zero value as an empty mapping; a present
// milestone keeps all four keys even when some are blank.
func (m Milestone) MarshalYAML() (interface{}, error) {
	if m == (Milestone{}) {
		return map[string]string{}, nil
	}
	return struct {
		Title       string `yaml:"title"`
		Number      int    `yaml:"number"`
		Description string `yaml:"description"`
		State       string `yaml:"state"`
	}{m.Title, m.Number, m.Description, m.State}, nil
}

// Issue is the header projection for one issue or pull request. Assignee
// and ClosedAt are optional and omitted when absent.
type Issue struct {
	Title     string     `yaml:"title"`
	Number    int        `yaml:"number"`
	State     string     `yaml:"state"`
	URL       string     `yaml:"html_url"`
	CreatedAt time.Time  `yaml:"created_at"`
	ClosedAt  *time.Time `yaml:"closed_at,omitempty"`
	Author    string     `yaml:"user"`
	Labels    []string   `yaml:"labels"`
	Milestone Milestone  `yaml:"milestone"`
	Assignee  string     `yaml:"assignee,omitempty"`

	Body     string `yaml:"-"`
	Comments int    `yaml:"-"`
}

// Comment is one issue comment, in API (creation) order.
type Comment struct {
	Author    string
	CreatedAt time.Time
	Body      string
}
