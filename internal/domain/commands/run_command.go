package commands

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/repopatch/internal/infrastructure/repositories"
	"github.com/rios0rios0/repopatch/internal/infrastructure/repositories/dryrun"
)

// Run is the interface for the run command (batch mode).
type Run interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RunOptions) (*entities.BatchResult, error)
}

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	DryRun  bool
	Verbose bool
	Token   string // If set, overrides the configured provider token
}

// RunCommand orchestrates a batch: resolve the host and the repositories,
// then run the configured action against each of them.
type RunCommand struct {
	hostRegistry *infraRepos.HostRegistry
	matchers     repositories.RepositoryMatcherFactory
	remove       RemoveFile
	update       UpdateFile
	add          AddFile
	clock        entities.Clock
}

// NewRunCommand creates a new RunCommand.
func NewRunCommand(
	hostRegistry *infraRepos.HostRegistry,
	matchers repositories.RepositoryMatcherFactory,
	remove RemoveFile,
	update UpdateFile,
	add AddFile,
	clock entities.Clock,
) *RunCommand {
	return &RunCommand{
		hostRegistry: hostRegistry,
		matchers:     matchers,
		remove:       remove,
		update:       update,
		add:          add,
		clock:        clock,
	}
}

// Execute runs the configured action over every selected repository. It only
// returns an error when the batch cannot start; per-repository failures are
// reported in the BatchResult.
func (it *RunCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts RunOptions,
) (*entities.BatchResult, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	host, err := resolveHost(it.hostRegistry, settings.Provider, opts.Token, opts.DryRun)
	if err != nil {
		return nil, err
	}

	batch := entities.NewBatchResult(settings.Action.Type, it.clock())
	batch.DryRun = opts.DryRun
	batchLog := logger.WithField("batch", batch.ID.String())
	batchLog.Infof("Starting %s on %s", settings.Action.Type, host.Name())

	repos, failures, err := it.selectRepositories(ctx, host, settings)
	if err != nil {
		return nil, err
	}
	batch.Results = append(batch.Results, failures...)

	switch settings.Action.Type {
	case entities.ActionRemoveFile:
		batch.Results = append(batch.Results,
			it.remove.Execute(ctx, host, repos, settings.Placeholders, *settings.Action.Remove)...)
	case entities.ActionUpdateFile:
		batch.Results = append(batch.Results,
			it.update.Execute(ctx, host, repos, settings.Placeholders, *settings.Action.Update)...)
	case entities.ActionAddFile:
		batch.Results = append(batch.Results,
			it.add.Execute(ctx, host, repos, settings.Placeholders, *settings.Action.Add)...)
	default:
		return nil, entities.NewConfigError("action.type", "unknown action %q", settings.Action.Type)
	}

	batch.FinishedAt = it.clock()
	batchLog.Infof(
		"Run complete: %d repositories processed, %d succeeded, %d failed",
		len(batch.Results), batch.Succeeded(), batch.Failed(),
	)
	return batch, nil
}

// selectRepositories fetches the explicitly listed repositories and the
// discovered ones. Listed repositories that cannot be fetched become failure
// results so they still appear in the report.
func (it *RunCommand) selectRepositories(
	ctx context.Context,
	host repositories.HostRepository,
	settings *entities.Settings,
) ([]entities.Repository, []entities.ActionResult, error) {
	seen := make(map[string]bool)
	repos := make([]entities.Repository, 0, len(settings.Repositories))
	var failures []entities.ActionResult

	for _, fullName := range settings.Repositories {
		fullName = strings.Trim(strings.TrimSpace(fullName), "/")
		if fullName == "" || seen[fullName] {
			continue
		}
		seen[fullName] = true

		repo, err := host.GetRepository(ctx, fullName)
		if err != nil {
			log := newActionLog(fullName)
			log.Error("Failed to fetch repository %s: %v", fullName, err)
			owner, name := entities.SplitFullName(fullName)
			failures = append(failures, failure(entities.Repository{
				Name: name, FullName: fullName, Owner: owner, ProviderName: host.Name(),
			}, log))
			continue
		}
		repos = append(repos, repo)
	}

	if settings.Discover != nil {
		discovered, err := discoverRepositories(ctx, host, it.matchers, *settings.Discover)
		if err != nil {
			return nil, nil, err
		}
		for _, repo := range discovered {
			if seen[repo.FullName] {
				continue
			}
			seen[repo.FullName] = true
			repos = append(repos, repo)
		}
	}

	return repos, failures, nil
}

// resolveHost builds the configured host, wrapped in the dry-run decorator when requested.
func resolveHost(
	registry *infraRepos.HostRegistry,
	provider entities.ProviderConfig,
	tokenOverride string,
	dryRun bool,
) (repositories.HostRepository, error) {
	token := provider.Token
	if tokenOverride != "" {
		token = tokenOverride
	}
	if token == "" {
		token = entities.TokenFromEnv(provider.Type)
	}
	if token == "" {
		return nil, entities.NewConfigError("provider.token",
			"no token found; set it in the config, pass --token or export %s", entities.TokenEnvHint(provider.Type))
	}

	host, err := registry.Get(provider.Type, token, provider.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider %q: %w", provider.Type, err)
	}
	if dryRun {
		logger.Info("[dry-run] no branch, file or pull request will be written")
		return dryrun.NewDryRunHostRepository(host), nil
	}
	return host, nil
}
