package commands

import (
	"context"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/repopatch/internal/infrastructure/repositories"
)

// ListRepositories is the interface for the list command.
type ListRepositories interface {
	Execute(ctx context.Context, opts ListOptions) ([]entities.Repository, error)
}

// ListOptions selects the host and the repositories to list.
type ListOptions struct {
	Provider entities.ProviderConfig
	Discover entities.DiscoverConfig
}

// ListRepositoriesCommand lists the repositories a batch would target.
type ListRepositoriesCommand struct {
	hostRegistry *infraRepos.HostRegistry
	matchers     repositories.RepositoryMatcherFactory
}

// NewListRepositoriesCommand creates a new ListRepositoriesCommand.
func NewListRepositoriesCommand(
	hostRegistry *infraRepos.HostRegistry,
	matchers repositories.RepositoryMatcherFactory,
) *ListRepositoriesCommand {
	return &ListRepositoriesCommand{hostRegistry: hostRegistry, matchers: matchers}
}

// Execute returns the matching repositories sorted by full name.
func (it *ListRepositoriesCommand) Execute(ctx context.Context, opts ListOptions) ([]entities.Repository, error) {
	host, err := resolveHost(it.hostRegistry, opts.Provider, "", false)
	if err != nil {
		return nil, err
	}
	return discoverRepositories(ctx, host, it.matchers, opts.Discover)
}
