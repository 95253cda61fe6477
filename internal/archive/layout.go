package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// timestampFormat suffixes the archive root so concurrent runs never
// collide on disk.
const timestampFormat = "20060102-150405"

// Layout resolves every path in one run's archive tree from the root.
// All paths are absolute-or-caller-relative; nothing ever changes the
// process working directory.
type Layout struct {
	root string
}

// NewLayout returns the layout for a run started at the given time.
func NewLayout(base string, startedAt time.Time) Layout {
	return Layout{root: filepath.Join(base, startedAt.Format(timestampFormat))}
}

// Root returns the run's archive root directory.
func (l Layout) Root() string {
	return l.root
}

// TeamFile returns the path of a team document. Slugs are filesystem-safe
// and unique within the organization, used verbatim.
func (l Layout) TeamFile(slug string) string {
	return filepath.Join(l.root, "teams", slug+".md")
}

// RepoDir returns the working-copy directory for a repository.
func (l Layout) RepoDir(repo string) string {
	return filepath.Join(l.root, repo)
}

// WikiDir returns the wiki working-copy directory inside a repository.
func (l Layout) WikiDir(repo string) string {
	return filepath.Join(l.RepoDir(repo), "wiki")
}

// RepoInfoFile returns the path of a repository's info document.
func (l Layout) RepoInfoFile(repo string) string {
	return filepath.Join(l.RepoDir(repo), "repo info", "repo_info.md")
}

// IssueFile returns the path of one issue document. Issue numbers are
// unique within a repository, used verbatim.
func (l Layout) IssueFile(repo string, number int) string {
	return filepath.Join(l.RepoDir(repo), "issues", fmt.Sprintf("%d.md", number))
}

// writeFile writes a document, creating parent directories as needed.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
