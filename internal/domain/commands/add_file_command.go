package commands

import (
	"context"
	"strings"
	"time"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// AddFile creates one new file per repository through a pull request.
type AddFile interface {
	Execute(
		ctx context.Context,
		host repositories.HostRepository,
		repos []entities.Repository,
		definitions []entities.PlaceholderDefinition,
		cfg entities.AddFileConfig,
	) []entities.ActionResult
}

// AddFileCommand implements AddFile.
type AddFileCommand struct {
	resolver *PlaceholderResolver
	clock    entities.Clock
}

// NewAddFileCommand creates a new AddFileCommand.
func NewAddFileCommand(resolver *PlaceholderResolver, clock entities.Clock) *AddFileCommand {
	return &AddFileCommand{resolver: resolver, clock: clock}
}

// Execute processes every repository in order and returns one result per repository.
func (it *AddFileCommand) Execute(
	ctx context.Context,
	host repositories.HostRepository,
	repos []entities.Repository,
	definitions []entities.PlaceholderDefinition,
	cfg entities.AddFileConfig,
) []entities.ActionResult {
	timestamp := it.clock()
	raw := cfg.Params()
	return runBatch(repos, func(repo entities.Repository, log *actionLog) entities.ActionResult {
		return it.processRepository(ctx, host, repo, definitions, raw, timestamp, log)
	})
}

func (it *AddFileCommand) processRepository(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	definitions []entities.PlaceholderDefinition,
	raw entities.ActionParams,
	timestamp time.Time,
	log *actionLog,
) entities.ActionResult {
	log.Info("Adding file in %s", repo.FullName)

	params, resolved, ok := prepareParams(
		ctx, it.resolver, host, repo, definitions, timestamp, raw, entities.AddPhase2Keys(), log)
	if !ok {
		return failure(repo, log)
	}

	filePath := strings.TrimSpace(params.Value(entities.ParamFilePath))
	if filePath == "" {
		log.Info("File path is empty after placeholder substitution, nothing to add")
		return noOp(repo, log, nil)
	}

	branch := workingBranch(params, "add-file", resolved, log)
	if err := ensureBranch(ctx, host, repo, branch, log); err != nil {
		log.Error("%v", err)
		return failure(repo, log)
	}

	newSHA, err := host.PutFile(ctx, repo.FullName, entities.FileWrite{
		Path:    filePath,
		Content: params.Value(entities.ParamFileContent),
		Message: params.Value(entities.ParamCommitMessage),
		Branch:  branch,
	})
	if err != nil {
		if entities.IsConflict(err) || entities.IsAlreadyExists(err) {
			log.Error("File %q already exists on %q: %v", filePath, branch, err)
		} else {
			log.Error("Failed to create %q: %v", filePath, err)
		}
		return failure(repo, log)
	}
	log.Success("Created %q on %q", filePath, branch)
	files := []entities.FileOutcome{{Path: filePath, Changed: true, NewSHA: newSHA, Message: "created"}}

	pr, err := ensurePullRequest(ctx, host, repo, branch,
		params.Value(entities.ParamPRTitle), params.Value(entities.ParamPRBody), log)
	if err != nil {
		log.Error("%v", err)
	}
	return finalize(repo, log, true, pr, files)
}
