//go:build unit

package commands_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repopatch/internal/domain/commands"
	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/repopatch/internal/infrastructure/repositories"
	celRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/cel"
	"github.com/rios0rios0/repopatch/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/repopatch/test/infrastructure/repositorydoubles"
)

func newRunCommand(t *testing.T, host *doubles.SpyHostRepository) *commands.RunCommand {
	t.Helper()

	registry := infraRepos.NewHostRegistry()
	registry.Register("spy", func(_, _ string) repositories.HostRepository { return host })
	matchers, err := celRepo.NewCELRepositoryMatcherFactory()
	require.NoError(t, err)

	resolver := newResolver()
	return commands.NewRunCommand(
		registry,
		matchers,
		commands.NewRemoveFileCommand(resolver, fixedClock),
		commands.NewUpdateFileCommand(resolver, commands.NewTargetLocator(), fixedClock),
		commands.NewAddFileCommand(resolver, fixedClock),
		fixedClock,
	)
}

func removeSettings(repos ...string) *entities.Settings {
	return &entities.Settings{
		Provider:     entities.ProviderConfig{Type: "spy", Token: "secret"},
		Repositories: repos,
		Action: entities.ActionSettings{
			Type:   entities.ActionRemoveFile,
			Remove: &entities.RemoveFileConfig{FilePath: "docs/old.md"},
		},
	}
}

func TestRunCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should report a repository that cannot be fetched and process the others", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo).WithFile(repo.FullName, "main", "docs/old.md", "old")
		settings := removeSettings("acme/missing", " acme/service ", "acme/service/")

		// when
		batch, err := newRunCommand(t, host).Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, batch.Results, 2)
		assert.Equal(t, "acme/missing", batch.Results[0].Repo.FullName)
		assert.Equal(t, "missing", batch.Results[0].Repo.Name)
		assert.False(t, batch.Results[0].Success)
		assert.True(t, batch.Results[1].Success, batch.Results[1].Message)
		assert.Equal(t, 1, batch.Succeeded())
		assert.Equal(t, 1, batch.Failed())
		assert.Equal(t, entities.ActionRemoveFile, batch.Action)
		assert.Equal(t, fixedClock(), batch.FinishedAt)
	})

	t.Run("should not write anything in dry-run mode", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo).WithFile(repo.FullName, "main", "docs/old.md", "old")

		// when
		batch, err := newRunCommand(t, host).Execute(
			context.Background(), removeSettings("acme/service"), commands.RunOptions{DryRun: true})

		// then
		require.NoError(t, err)
		require.Len(t, batch.Results, 1)
		result := batch.Results[0]
		assert.True(t, result.Success, result.Message)
		assert.True(t, batch.DryRun)
		assert.True(t, strings.HasPrefix(result.PRURL, "dry-run://acme/service/main..."))
		assert.Empty(t, host.CreatedBranches)
		assert.Empty(t, host.Deletions)
		assert.Empty(t, host.PRInputs)
		_, stillThere := host.FileOn(repo.FullName, "main", "docs/old.md")
		assert.True(t, stillThere)
	})

	t.Run("should merge discovered repositories filtered by the CEL expression", func(t *testing.T) {
		t.Parallel()

		// given
		alpha := newRepo("alpha")
		archived := entitybuilders.NewRepositoryBuilder().WithName("beta").WithArchived(true).BuildRepository()
		foreign := entitybuilders.NewRepositoryBuilder().WithOwner("other").WithName("gamma").BuildRepository()
		host := newHost(alpha, archived, foreign)
		settings := &entities.Settings{
			Provider:     entities.ProviderConfig{Type: "spy", Token: "secret"},
			Repositories: []string{"acme/alpha"},
			Discover:     &entities.DiscoverConfig{Owner: "acme", Filter: "!repo.archived"},
			Action: entities.ActionSettings{
				Type: entities.ActionAddFile,
				Add:  &entities.AddFileConfig{FilePath: "CODEOWNERS", FileContent: "* @acme/team\n"},
			},
		}

		// when
		batch, err := newRunCommand(t, host).Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, batch.Results, 1)
		assert.Equal(t, "acme/alpha", batch.Results[0].Repo.FullName)
		assert.Equal(t, []string{"acme"}, host.ListedOwners)
	})

	t.Run("should reject an invalid discovery filter before touching any repository", func(t *testing.T) {
		t.Parallel()

		// given
		host := newHost(newRepo("alpha"))
		settings := removeSettings()
		settings.Discover = &entities.DiscoverConfig{Owner: "acme", Filter: "repo.archived &&"}

		// when
		batch, err := newRunCommand(t, host).Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
		assert.Nil(t, batch)
		assert.Empty(t, host.ListedOwners)
	})

	t.Run("should fail before starting when no token is available", func(t *testing.T) {
		t.Parallel()

		// given
		host := newHost()
		settings := removeSettings("acme/service")
		settings.Provider.Token = ""

		// when
		batch, err := newRunCommand(t, host).Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
		assert.Nil(t, batch)
	})

	t.Run("should prefer the token override over the configured one", func(t *testing.T) {
		t.Parallel()

		// given
		var received string
		host := newHost(newRepo("service"))
		registry := infraRepos.NewHostRegistry()
		registry.Register("spy", func(token, _ string) repositories.HostRepository {
			received = token
			return host
		})
		matchers, err := celRepo.NewCELRepositoryMatcherFactory()
		require.NoError(t, err)
		cmd := commands.NewRunCommand(registry, matchers,
			commands.NewRemoveFileCommand(newResolver(), fixedClock), nil, nil, fixedClock)

		// when
		_, err = cmd.Execute(context.Background(), removeSettings(), commands.RunOptions{Token: "override"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "override", received)
	})

	t.Run("should fail for an unknown provider", func(t *testing.T) {
		t.Parallel()

		// given
		settings := removeSettings("acme/service")
		settings.Provider.Type = "bitbucket"

		// when
		_, err := newRunCommand(t, newHost()).Execute(context.Background(), settings, commands.RunOptions{Token: "x"})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bitbucket")
	})
}

func TestListRepositoriesCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should list the repositories of the owner matching the search", func(t *testing.T) {
		t.Parallel()

		// given
		host := newHost(newRepo("api-gateway"), newRepo("web"), newRepo("api-users"))
		registry := infraRepos.NewHostRegistry()
		registry.Register("spy", func(_, _ string) repositories.HostRepository { return host })
		matchers, err := celRepo.NewCELRepositoryMatcherFactory()
		require.NoError(t, err)
		cmd := commands.NewListRepositoriesCommand(registry, matchers)

		// when
		repos, err := cmd.Execute(context.Background(), commands.ListOptions{
			Provider: entities.ProviderConfig{Type: "spy", Token: "secret"},
			Discover: entities.DiscoverConfig{Owner: "acme", Search: "API", Limit: 5},
		})

		// then
		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, "acme/api-gateway", repos[0].FullName)
		assert.Equal(t, "acme/api-users", repos[1].FullName)
	})

	t.Run("should apply the compiled filter after the search and the limit after sorting", func(t *testing.T) {
		t.Parallel()

		// given
		host := newHost(newRepo("web"), newRepo("api"), newRepo("docs"))
		registry := infraRepos.NewHostRegistry()
		registry.Register("spy", func(_, _ string) repositories.HostRepository { return host })
		matchers := &doubles.StubRepositoryMatcherFactory{
			Accept: map[string]bool{"acme/web": true, "acme/docs": true},
		}
		cmd := commands.NewListRepositoriesCommand(registry, matchers)

		// when
		repos, err := cmd.Execute(context.Background(), commands.ListOptions{
			Provider: entities.ProviderConfig{Type: "spy", Token: "secret"},
			Discover: entities.DiscoverConfig{Owner: "acme", Filter: "!repo.archived", Limit: 1},
		})

		// then
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.Equal(t, "acme/docs", repos[0].FullName)
		assert.Equal(t, []string{"!repo.archived"}, matchers.Compiled)
	})

	t.Run("should require an owner", func(t *testing.T) {
		t.Parallel()

		// given
		registry := infraRepos.NewHostRegistry()
		registry.Register("spy", func(_, _ string) repositories.HostRepository { return newHost() })
		cmd := commands.NewListRepositoriesCommand(registry, nil)

		// when
		_, err := cmd.Execute(context.Background(), commands.ListOptions{
			Provider: entities.ProviderConfig{Type: "spy", Token: "secret"},
		})

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
	})
}

func TestTestPlaceholdersCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should report every placeholder without stopping at the first failure", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo).WithFile(repo.FullName, "main", "go.mod", "module x\n\ngo 1.23\n")
		registry := infraRepos.NewHostRegistry()
		registry.Register("spy", func(_, _ string) repositories.HostRepository { return host })
		cmd := commands.NewTestPlaceholdersCommand(registry, newResolver())
		settings := removeSettings()
		settings.Placeholders = []entities.PlaceholderDefinition{
			entitybuilders.NewPlaceholderDefinitionBuilder().WithFilePath("missing.mod").BuildDefinition(),
			entitybuilders.NewPlaceholderDefinitionBuilder().BuildDefinition(),
			entitybuilders.NewPlaceholderDefinitionBuilder().WithName("repo_name").BuildDefinition(),
		}

		// when
		reports, err := cmd.Execute(context.Background(), settings, "acme/service")

		// then
		require.NoError(t, err)
		require.Len(t, reports, 3)
		require.Error(t, reports[0].Err)
		require.NoError(t, reports[1].Err)
		assert.Equal(t, "1.23", reports[1].Value)
		require.Error(t, reports[2].Err)
	})
}
