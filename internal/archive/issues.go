package archive

import (
	"context"
	"fmt"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
)

// archiveIssues writes one document per issue or pull request, open and
// closed, under the repository's issues/ directory.
func (a *Archiver) archiveIssues(ctx context.Context, org, repo string, layout Layout) (int, error) {
	issues, err := a.collector.GetIssues(ctx, org, repo)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, issue := range issues {
		var comments []*domain.Comment
		if issue.Comments > 0 {
			comments, err = a.collector.GetIssueComments(ctx, org, repo, issue.Number)
			if err != nil {
				return count, fmt.Errorf("failed to get comments for #%d: %w", issue.Number, err)
			}
		}

		doc, err := BuildIssueDocument(issue, comments)
		if err != nil {
			return count, err
		}
		if err := writeFile(layout.IssueFile(repo, issue.Number), doc); err != nil {
			return count, err
		}
		count++
	}

	if count > 0 {
		fmt.Printf("  Archived %d issues\n", count)
	}
	return count, nil
}
