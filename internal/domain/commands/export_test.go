package commands

import (
	"context"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// SearchReplace exports searchReplace for testing.
var SearchReplace = searchReplace //nolint:gochecknoglobals // test export

// NormalizeScope exports normalizeScope for testing.
var NormalizeScope = normalizeScope //nolint:gochecknoglobals // test export

// BulletList exports bulletList for testing.
var BulletList = bulletList //nolint:gochecknoglobals // test export

// Preview exports preview for testing.
var Preview = preview //nolint:gochecknoglobals // test export

// EnsureBranch exports ensureBranch for testing.
func EnsureBranch(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	branch string,
) ([]string, error) {
	log := newActionLog(repo.FullName)
	err := ensureBranch(ctx, host, repo, branch, log)
	return log.Lines(), err
}

// EnsurePullRequest exports ensurePullRequest for testing.
func EnsurePullRequest(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	head, title, body string,
) (string, bool, error) {
	outcome, err := ensurePullRequest(ctx, host, repo, head, title, body, newActionLog(repo.FullName))
	return outcome.URL, outcome.NoCommits, err
}
