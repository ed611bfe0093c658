package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// UpdateFile updates or creates one named file, or every matched file, per
// repository through a pull request.
type UpdateFile interface {
	Execute(
		ctx context.Context,
		host repositories.HostRepository,
		repos []entities.Repository,
		definitions []entities.PlaceholderDefinition,
		cfg entities.UpdateFileConfig,
	) []entities.ActionResult
}

// UpdateFileCommand implements UpdateFile.
type UpdateFileCommand struct {
	resolver *PlaceholderResolver
	locator  *TargetLocator
	clock    entities.Clock
}

// NewUpdateFileCommand creates a new UpdateFileCommand.
func NewUpdateFileCommand(
	resolver *PlaceholderResolver,
	locator *TargetLocator,
	clock entities.Clock,
) *UpdateFileCommand {
	return &UpdateFileCommand{resolver: resolver, locator: locator, clock: clock}
}

// Execute processes every repository in order and returns one result per repository.
func (it *UpdateFileCommand) Execute(
	ctx context.Context,
	host repositories.HostRepository,
	repos []entities.Repository,
	definitions []entities.PlaceholderDefinition,
	cfg entities.UpdateFileConfig,
) []entities.ActionResult {
	timestamp := it.clock()
	raw := cfg.Params()
	return runBatch(repos, func(repo entities.Repository, log *actionLog) entities.ActionResult {
		return it.processRepository(ctx, host, repo, definitions, cfg, raw, timestamp, log)
	})
}

func (it *UpdateFileCommand) processRepository(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	definitions []entities.PlaceholderDefinition,
	cfg entities.UpdateFileConfig,
	raw entities.ActionParams,
	timestamp time.Time,
	log *actionLog,
) entities.ActionResult {
	log.Info("Updating files in %s (mode %s)", repo.FullName, cfg.Mode)

	params, resolved, ok := prepareParams(
		ctx, it.resolver, host, repo, definitions, timestamp, raw, entities.UpdatePhase2Keys(), log)
	if !ok {
		return failure(repo, log)
	}

	targets, err := it.locateTargets(ctx, host, repo, cfg, params)
	if err != nil {
		log.Error("%v", err)
		return failure(repo, log)
	}
	if len(targets) == 0 {
		log.Info("No target file to update, nothing to do")
		return noOp(repo, log, nil)
	}
	if cfg.MultiFile() {
		log.Info("Found %d file(s) to update", len(targets))
	}

	branch := workingBranch(params, cfg.ActionName(), resolved, log)
	if err = ensureBranch(ctx, host, repo, branch, log); err != nil {
		log.Error("%v", err)
		return failure(repo, log)
	}

	outcomes := make([]entities.FileOutcome, 0, len(targets))
	changed := make([]string, 0, len(targets))
	failed := 0
	lastValues := resolved
	for _, target := range targets {
		fileValues := resolved.Clone()
		fileValues[entities.KeyFilePath] = target.Path
		fileParams := fileScopedParams(params, fileValues)
		message := strings.TrimSpace(fileParams.Value(entities.ParamCommitMessage))
		if message == "" {
			message = "Update " + target.Path
		}

		outcome, updateErr := it.updateFile(ctx, host, repo, branch, target, fileParams, cfg, message, log)
		if updateErr != nil {
			log.Error("%v", updateErr)
			outcome.Message = updateErr.Error()
			failed++
		} else if outcome.Changed {
			changed = append(changed, target.Path)
		}
		outcomes = append(outcomes, outcome)
		lastValues = fileValues
	}

	if len(changed) == 0 {
		if failed > 0 {
			log.Error("No file was updated and %d file(s) failed", failed)
			result := failure(repo, log)
			result.Files = outcomes
			return result
		}
		log.Info("No file content changed, skipping the pull request")
		return noOp(repo, log, outcomes)
	}

	prValues := lastValues.Clone()
	prValues[entities.KeyChangedFiles] = bulletList(changed)
	pr, err := ensurePullRequest(ctx, host, repo, branch,
		entities.Substitute(params.Value(entities.ParamPRTitle), prValues),
		entities.Substitute(params.Value(entities.ParamPRBody), prValues),
		log)
	if err != nil {
		log.Error("%v", err)
	}
	if failed > 0 {
		log.Error("%d of %d file(s) failed", failed, len(targets))
	}
	return finalize(repo, log, failed == 0, pr, outcomes)
}

// fileScopedParams substitutes the values of one target file, including its
// {{file_path}}, into the parameters that are written per file.
func fileScopedParams(params entities.ActionParams, fileValues entities.PlaceholderMap) entities.ActionParams {
	scoped := params.Clone()
	for _, key := range []string{
		entities.ParamFileContent, entities.ParamSearch, entities.ParamReplace, entities.ParamCommitMessage,
	} {
		if value, ok := scoped.Get(key); ok {
			scoped.Set(key, entities.Substitute(value, fileValues))
		}
	}
	return scoped
}

// locateTargets returns the explicit file, or the files matched on the
// default branch in multi-file mode.
func (it *UpdateFileCommand) locateTargets(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	cfg entities.UpdateFileConfig,
	params entities.ActionParams,
) ([]entities.TargetFile, error) {
	if !cfg.MultiFile() {
		filePath := strings.TrimSpace(params.Value(entities.ParamFilePath))
		if filePath == "" {
			return nil, nil
		}
		return []entities.TargetFile{{Path: filePath}}, nil
	}

	files, err := it.locator.Find(ctx, host, repo.FullName, repo.DefaultBranch, TargetCriteria{
		PathScope:    params.Value(entities.ParamTargetPath),
		FilenameGlob: params.Value(entities.ParamFilenameFilter),
		ContentQuery: params.Value(entities.ParamContentQuery),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to locate target files: %w", err)
	}
	return files, nil
}

// updateFile computes and writes the new content of one file on branch.
func (it *UpdateFileCommand) updateFile(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	branch string,
	target entities.TargetFile,
	params entities.ActionParams,
	cfg entities.UpdateFileConfig,
	message string,
	log *actionLog,
) (entities.FileOutcome, error) {
	outcome := entities.FileOutcome{Path: target.Path}

	var current *entities.FileContent
	working, err := host.GetFile(ctx, repo.FullName, target.Path, branch)
	switch {
	case err == nil:
		current = working
	case entities.IsNotFound(err):
		log.Debug("%q does not exist on %q yet", target.Path, branch)
	default:
		return outcome, fmt.Errorf("failed to read %q on %q: %w", target.Path, branch, err)
	}

	newContent, unchanged, err := it.computeContent(ctx, host, repo, target, current, params, cfg, log)
	if err != nil {
		return outcome, err
	}
	if unchanged {
		if cfg.UnchangedPolicy() == entities.UnchangedSkip {
			log.Info("Content of %q is unchanged, skipping it", target.Path)
			outcome.Message = "unchanged"
			return outcome, nil
		}
		log.Info("Content of %q is unchanged, committing anyway", target.Path)
	}

	write := entities.FileWrite{
		Path:    target.Path,
		Content: newContent,
		Message: message,
		Branch:  branch,
	}
	if current != nil {
		write.SHA = current.SHA
	}

	newSHA, err := host.PutFile(ctx, repo.FullName, write)
	if err != nil {
		if !entities.IsConflict(err) || !cfg.ForceUpdate || cfg.Mode != entities.UpdateModeSearchReplace {
			return outcome, fmt.Errorf("failed to write %q: %w", target.Path, err)
		}
		log.Warn("Conflict writing %q (%v), forcing the update", target.Path, err)
		if newSHA, err = forceRewrite(ctx, host, repo.FullName, write, log); err != nil {
			return outcome, err
		}
	}

	verb := "updated"
	if write.SHA == "" {
		verb = "created"
	}
	log.Success("File %q %s on %q", target.Path, verb, branch)
	outcome.Changed = true
	outcome.NewSHA = newSHA
	outcome.Message = verb
	return outcome, nil
}

// computeContent returns the new file content and whether it equals what is
// already on the working branch.
func (it *UpdateFileCommand) computeContent(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	target entities.TargetFile,
	current *entities.FileContent,
	params entities.ActionParams,
	cfg entities.UpdateFileConfig,
	log *actionLog,
) (string, bool, error) {
	if cfg.Mode != entities.UpdateModeSearchReplace {
		content := params.Value(entities.ParamFileContent)
		return content, sameContent(current, content), nil
	}

	source := current
	if source == nil {
		fallback, err := host.GetFile(ctx, repo.FullName, target.Path, repo.DefaultBranch)
		if err != nil {
			return "", false, fmt.Errorf("failed to read %q for search/replace: %w", target.Path, err)
		}
		log.Info("Using %q from %q as the search/replace source", target.Path, repo.DefaultBranch)
		source = fallback
	}

	search := params.Value(entities.ParamSearch)
	content, count, err := searchReplace(
		source.Content, search, params.Value(entities.ParamReplace), cfg.IsRegex, cfg.ReplaceAllOccurrences())
	if err != nil {
		return "", false, fmt.Errorf("failed to apply search/replace to %q: %w", target.Path, err)
	}
	if count == 0 {
		log.Info("No occurrence of %q found in %q", preview(search), target.Path)
	} else {
		log.Info("Replaced %d occurrence(s) in %q", count, target.Path)
	}

	if current == nil {
		return content, count == 0, nil
	}
	return content, sameContent(current, content), nil
}

func sameContent(current *entities.FileContent, content string) bool {
	if current == nil {
		return false
	}
	return current.Content == content || current.SHA == entities.BlobHash(content)
}

func bulletList(paths []string) string {
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("- `%s`", p))
	}
	return strings.Join(lines, "\n")
}
