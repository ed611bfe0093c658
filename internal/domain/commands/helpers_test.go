//go:build unit

package commands_test

import (
	"context"
	"time"

	"github.com/rios0rios0/repopatch/internal/domain/commands"
	"github.com/rios0rios0/repopatch/internal/domain/entities"
	infraRepos "github.com/rios0rios0/repopatch/internal/infrastructure/repositories"
	"github.com/rios0rios0/repopatch/internal/infrastructure/repositories/jsonpath"
	"github.com/rios0rios0/repopatch/internal/infrastructure/repositories/pattern"
	"github.com/rios0rios0/repopatch/internal/infrastructure/repositories/yamlpath"
	"github.com/rios0rios0/repopatch/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/repopatch/test/infrastructure/repositorydoubles"
)

const fixedTimestamp = "20240102-030405"

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newResolver() *commands.PlaceholderResolver {
	registry := infraRepos.NewExtractorRegistry()
	registry.Register(pattern.NewPatternExtractorRepository())
	registry.Register(jsonpath.NewJSONPathExtractorRepository())
	registry.Register(yamlpath.NewYAMLPathExtractorRepository())
	return commands.NewPlaceholderResolver(registry)
}

func newRepo(name string) entities.Repository {
	return entitybuilders.NewRepositoryBuilder().WithName(name).BuildRepository()
}

func newHost(repos ...entities.Repository) *doubles.SpyHostRepository {
	host := doubles.NewSpyHostRepository()
	for _, repo := range repos {
		host.WithRepository(repo)
	}
	return host
}

// panickingHost panics when a branch is read.
type panickingHost struct {
	*doubles.SpyHostRepository
}

func (h panickingHost) GetBranch(context.Context, string, string) (entities.Branch, bool, error) {
	panic("boom")
}

// racingHost loses every creation race: the branch or pull request is
// created, but the call reports that it already exists.
type racingHost struct {
	*doubles.SpyHostRepository
}

func (h racingHost) CreateBranch(ctx context.Context, repoFullName, name, sha string) error {
	if err := h.SpyHostRepository.CreateBranch(ctx, repoFullName, name, sha); err != nil {
		return err
	}
	return &entities.HostAPIError{
		Op: "failed to create branch", Status: 422, Message: "Reference already exists",
		Err: entities.ErrAlreadyExists,
	}
}

func (h racingHost) CreatePullRequest(
	ctx context.Context,
	repoFullName string,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	if _, err := h.SpyHostRepository.CreatePullRequest(ctx, repoFullName, input); err != nil {
		return nil, err
	}
	return nil, &entities.HostAPIError{
		Op: "failed to create pull request", Status: 422, Message: "A pull request already exists",
		Err: entities.ErrAlreadyExists,
	}
}

// brokenPathHost rejects every write to one path.
type brokenPathHost struct {
	*doubles.SpyHostRepository
	path string
}

func (h brokenPathHost) PutFile(
	ctx context.Context,
	repoFullName string,
	write entities.FileWrite,
) (string, error) {
	if write.Path == h.path {
		h.Writes = append(h.Writes, write)
		return "", &entities.HostAPIError{Op: "failed to put file", Status: 500, Message: "server error"}
	}
	return h.SpyHostRepository.PutFile(ctx, repoFullName, write)
}
