package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// discoverRepositories lists the repositories of criteria.Owner whose name
// contains criteria.Search (case-insensitive) and that satisfy the CEL
// filter, sorted by full name and truncated to criteria.Limit when positive.
func discoverRepositories(
	ctx context.Context,
	host repositories.HostRepository,
	matchers repositories.RepositoryMatcherFactory,
	criteria entities.DiscoverConfig,
) ([]entities.Repository, error) {
	if strings.TrimSpace(criteria.Owner) == "" {
		return nil, entities.NewConfigError("discover.owner", "owner is required")
	}

	var matcher repositories.RepositoryMatcher
	if strings.TrimSpace(criteria.Filter) != "" {
		compiled, err := matchers.Compile(criteria.Filter)
		if err != nil {
			return nil, entities.NewConfigError("discover.filter", "%v", err)
		}
		matcher = compiled
	}

	logger.Infof("Discovering repositories of %q...", criteria.Owner)
	all, err := host.ListRepositories(ctx, criteria.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories of %q: %w", criteria.Owner, err)
	}

	search := strings.ToLower(strings.TrimSpace(criteria.Search))
	selected := make([]entities.Repository, 0, len(all))
	for _, repo := range all {
		if search != "" && !strings.Contains(strings.ToLower(repo.Name), search) {
			continue
		}
		if matcher != nil {
			matched, matchErr := matcher.Match(repo)
			if matchErr != nil {
				logger.WithField("repo", repo.FullName).Warnf("Filter failed, skipping repository: %v", matchErr)
				continue
			}
			if !matched {
				continue
			}
		}
		selected = append(selected, repo)
	}

	sort.Slice(selected, func(i, j int) bool { return selected[i].FullName < selected[j].FullName })
	if criteria.Limit > 0 && len(selected) > criteria.Limit {
		selected = selected[:criteria.Limit]
	}

	logger.Infof("Selected %d of %d repositories of %q", len(selected), len(all), criteria.Owner)
	return selected, nil
}
