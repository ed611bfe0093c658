package commands

import (
	"context"
	"strings"
	"time"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// RemoveFile deletes one file per repository through a pull request.
type RemoveFile interface {
	Execute(
		ctx context.Context,
		host repositories.HostRepository,
		repos []entities.Repository,
		definitions []entities.PlaceholderDefinition,
		cfg entities.RemoveFileConfig,
	) []entities.ActionResult
}

// RemoveFileCommand implements RemoveFile.
type RemoveFileCommand struct {
	resolver *PlaceholderResolver
	clock    entities.Clock
}

// NewRemoveFileCommand creates a new RemoveFileCommand.
func NewRemoveFileCommand(resolver *PlaceholderResolver, clock entities.Clock) *RemoveFileCommand {
	return &RemoveFileCommand{resolver: resolver, clock: clock}
}

// Execute processes every repository in order and returns one result per repository.
func (it *RemoveFileCommand) Execute(
	ctx context.Context,
	host repositories.HostRepository,
	repos []entities.Repository,
	definitions []entities.PlaceholderDefinition,
	cfg entities.RemoveFileConfig,
) []entities.ActionResult {
	timestamp := it.clock()
	raw := cfg.Params()
	return runBatch(repos, func(repo entities.Repository, log *actionLog) entities.ActionResult {
		return it.processRepository(ctx, host, repo, definitions, raw, timestamp, log)
	})
}

func (it *RemoveFileCommand) processRepository(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	definitions []entities.PlaceholderDefinition,
	raw entities.ActionParams,
	timestamp time.Time,
	log *actionLog,
) entities.ActionResult {
	log.Info("Removing file in %s", repo.FullName)

	params, resolved, ok := prepareParams(
		ctx, it.resolver, host, repo, definitions, timestamp, raw, entities.RemovePhase2Keys(), log)
	if !ok {
		return failure(repo, log)
	}

	filePath := strings.TrimSpace(params.Value(entities.ParamFilePath))
	if filePath == "" {
		log.Error("File path is empty after placeholder substitution, nothing to remove")
		return failure(repo, log)
	}

	branch := workingBranch(params, "remove-file", resolved, log)
	if err := ensureBranch(ctx, host, repo, branch, log); err != nil {
		log.Error("%v", err)
		return failure(repo, log)
	}

	current, err := host.GetFile(ctx, repo.FullName, filePath, branch)
	if err != nil {
		if entities.IsNotFound(err) {
			log.Error("File %q does not exist on %q, nothing to remove", filePath, branch)
		} else {
			log.Error("Failed to read %q on %q: %v", filePath, branch, err)
		}
		return failure(repo, log)
	}

	if err = host.DeleteFile(ctx, repo.FullName, entities.FileDeletion{
		Path:    filePath,
		Message: params.Value(entities.ParamCommitMessage),
		Branch:  branch,
		SHA:     current.SHA,
	}); err != nil {
		log.Error("Failed to delete %q: %v", filePath, err)
		return failure(repo, log)
	}
	log.Success("Deleted %q on %q", filePath, branch)
	files := []entities.FileOutcome{{Path: filePath, Changed: true, Message: "deleted"}}

	pr, err := ensurePullRequest(ctx, host, repo, branch,
		params.Value(entities.ParamPRTitle), params.Value(entities.ParamPRBody), log)
	if err != nil {
		log.Error("%v", err)
	}
	return finalize(repo, log, true, pr, files)
}
