package archive

import (
	"context"
	"fmt"
)

// archiveTeams writes one document per organization team under teams/.
func (a *Archiver) archiveTeams(ctx context.Context, org string, layout Layout) (int, error) {
	teams, err := a.collector.GetTeams(ctx, org)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, team := range teams {
		fmt.Printf("Archiving team: %s\n", team.Slug)

		repos, err := a.collector.GetTeamRepos(ctx, org, team.Slug)
		if err != nil {
			return count, fmt.Errorf("failed to get repos for team %s: %w", team.Slug, err)
		}

		members, err := a.collector.GetTeamMembers(ctx, org, team.Slug)
		if err != nil {
			return count, fmt.Errorf("failed to get members for team %s: %w", team.Slug, err)
		}

		doc, err := BuildTeamDocument(team, repos, members)
		if err != nil {
			return count, err
		}
		if err := writeFile(layout.TeamFile(team.Slug), doc); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}
