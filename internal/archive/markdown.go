// Package archive renders organization data to the on-disk archive:
// markdown documents with YAML mapping blocks separated by rule lines,
// laid out under a timestamped run directory.
package archive

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
)

// blockDelimiter separates document blocks as a markdown horizontal rule.
const blockDelimiter = "---"

// Document accumulates an ordered sequence of blocks. A block is either a
// YAML-rendered mapping or a literal text blob; bodies are embedded
// verbatim, without escaping.
type Document struct {
	blocks []string
}

// Section appends a level-1 heading block labeling the blocks after it.
func (d *Document) Section(title string) {
	d.Text("# " + title)
}

// Text appends a literal text block.
func (d *Document) Text(s string) {
	d.blocks = append(d.blocks, strings.TrimRight(s, "\n"))
}

// Mapping appends a structured block rendered as block-style YAML. Field
// order follows the struct declaration order of v.
func (d *Document) Mapping(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to render mapping block: %w", err)
	}
	d.blocks = append(d.blocks, strings.TrimRight(string(out), "\n"))
	return nil
}

// Bytes renders the document with delimiter lines between blocks.
func (d *Document) Bytes() []byte {
	var b strings.Builder
	for i, block := range d.blocks {
		if i > 0 {
			b.WriteString("\n\n" + blockDelimiter + "\n\n")
		}
		b.WriteString(block)
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// BuildTeamDocument renders one team file: a Team Info header block, the
// team's repositories and the team's members, each under its own section.
func BuildTeamDocument(team *domain.Team, repos []*domain.TeamRepo, members []*domain.TeamMember) ([]byte, error) {
	var doc Document

	doc.Section("Team Info")
	if err := doc.Mapping(team); err != nil {
		return nil, err
	}

	doc.Section("Team Repos")
	for _, repo := range repos {
		if err := doc.Mapping(repo); err != nil {
			return nil, err
		}
	}

	doc.Section("Team Members")
	for _, member := range members {
		if err := doc.Mapping(member); err != nil {
			return nil, err
		}
	}

	return doc.Bytes(), nil
}

// BuildIssueDocument renders one issue file: the header projection, the
// title heading with the raw body, then one block per comment in the
// order given.
func BuildIssueDocument(issue *domain.Issue, comments []*domain.Comment) ([]byte, error) {
	var doc Document

	if err := doc.Mapping(issue); err != nil {
		return nil, err
	}
	doc.Text("# " + issue.Title + "\n\n" + issue.Body)

	for _, comment := range comments {
		doc.Text(fmt.Sprintf("@%s at %s wrote:\n\n%s",
			comment.Author, comment.CreatedAt.UTC().Format(time.RFC3339), comment.Body))
	}

	return doc.Bytes(), nil
}

// BuildRepoInfoDocument renders the repo_info.md file.
func BuildRepoInfoDocument(info domain.RepoInfo) ([]byte, error) {
	var doc Document

	doc.Section("Repo Info")
	if err := doc.Mapping(info); err != nil {
		return nil, err
	}

	return doc.Bytes(), nil
}
