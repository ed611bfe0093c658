package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// repoStep processes one repository into its result, recording its progress
// on log.
type repoStep func(repo entities.Repository, log *actionLog) entities.ActionResult

// runBatch processes repos one after another. A panic inside one repository
// becomes that repository's failure result, keeping the lines logged so far.
func runBatch(repos []entities.Repository, step repoStep) []entities.ActionResult {
	results := make([]entities.ActionResult, 0, len(repos))
	for _, repo := range repos {
		results = append(results, runRepository(repo, step))
	}
	return results
}

func runRepository(repo entities.Repository, step repoStep) (result entities.ActionResult) {
	log := newActionLog(repo.FullName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Unexpected failure while processing %s: %v", repo.FullName, r)
			result = failure(repo, log)
		}
	}()
	return step(repo, log)
}

// prepareParams resolves the placeholders of repo and processes the raw
// parameters. ok is false when placeholder resolution failed.
func prepareParams(
	ctx context.Context,
	resolver *PlaceholderResolver,
	host repositories.HostRepository,
	repo entities.Repository,
	definitions []entities.PlaceholderDefinition,
	timestamp time.Time,
	raw entities.ActionParams,
	phase2Keys []string,
	log *actionLog,
) (entities.ActionParams, entities.PlaceholderMap, bool) {
	resolved, lines, ok := resolver.Resolve(ctx, host, repo, definitions, timestamp)
	log.Extend(lines)
	if !ok {
		log.Error("Placeholder resolution failed, skipping %s", repo.FullName)
		return nil, resolved, false
	}

	params, lines := ProcessActionParams(raw, resolved, phase2Keys)
	log.Extend(lines)
	return params, resolved, true
}

// workingBranch returns the processed branch name, or a fallback when the
// template resolved to a blank string.
func workingBranch(
	params entities.ActionParams,
	action string,
	resolved entities.PlaceholderMap,
	log *actionLog,
) string {
	branch := strings.TrimSpace(params.Value(entities.ParamBranchName))
	if branch != "" {
		return branch
	}
	fallback := fmt.Sprintf("%s-fallback-%s", action, resolved[entities.KeyTimestamp])
	log.Warn("Branch name is empty after substitution, using %q", fallback)
	return fallback
}

// ensureBranch makes sure branch exists, creating it from the default branch
// head when absent. A branch created concurrently by someone else is reused.
func ensureBranch(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	branch string,
	log *actionLog,
) error {
	_, found, err := host.GetBranch(ctx, repo.FullName, branch)
	if err != nil {
		return fmt.Errorf("failed to read branch %q: %w", branch, err)
	}
	if found {
		log.Info("Branch %q already exists, reusing it", branch)
		return nil
	}

	source, found, err := host.GetBranch(ctx, repo.FullName, repo.DefaultBranch)
	if err != nil {
		return fmt.Errorf("failed to read source branch %q: %w", repo.DefaultBranch, err)
	}
	if !found {
		return fmt.Errorf("failed to find source branch %q: %w", repo.DefaultBranch, entities.ErrNotFound)
	}

	if err = host.CreateBranch(ctx, repo.FullName, branch, source.SHA); err != nil {
		if entities.IsAlreadyExists(err) {
			if _, found, rereadErr := host.GetBranch(ctx, repo.FullName, branch); rereadErr == nil && found {
				log.Info("Branch %q was created concurrently, reusing it", branch)
				return nil
			}
		}
		return fmt.Errorf("failed to create branch %q: %w", branch, err)
	}

	log.Success("Created branch %q from %q", branch, repo.DefaultBranch)
	return nil
}

// pullRequestOutcome is the result of ensurePullRequest. NoCommits means the
// branch has no changes relative to its base, so no pull request is needed.
type pullRequestOutcome struct {
	URL       string
	Reused    bool
	NoCommits bool
}

// ensurePullRequest reuses the open pull request from head into the default
// branch or opens a new one.
func ensurePullRequest(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	head, title, body string,
	log *actionLog,
) (pullRequestOutcome, error) {
	existing, err := host.FindPullRequest(ctx, repo.FullName, head, repo.DefaultBranch)
	if err != nil {
		return pullRequestOutcome{}, fmt.Errorf("failed to look up pull requests: %w", err)
	}
	if existing != nil {
		log.Info("Pull request already open for %q, reusing %s", head, existing.URL)
		return pullRequestOutcome{URL: existing.URL, Reused: true}, nil
	}

	created, err := host.CreatePullRequest(ctx, repo.FullName, entities.PullRequestInput{
		SourceBranch: head,
		TargetBranch: repo.DefaultBranch,
		Title:        title,
		Description:  body,
	})
	if err == nil {
		log.Success("Opened pull request %s", created.URL)
		return pullRequestOutcome{URL: created.URL}, nil
	}

	if errors.Is(err, entities.ErrNoCommits) {
		log.Info("No commits between %q and %q, no pull request needed", repo.DefaultBranch, head)
		return pullRequestOutcome{NoCommits: true}, nil
	}
	if entities.IsAlreadyExists(err) {
		if existing, findErr := host.FindPullRequest(ctx, repo.FullName, head, repo.DefaultBranch); findErr == nil &&
			existing != nil {
			log.Info("Pull request was opened concurrently, reusing %s", existing.URL)
			return pullRequestOutcome{URL: existing.URL, Reused: true}, nil
		}
	}
	return pullRequestOutcome{}, fmt.Errorf("failed to create pull request: %w", err)
}

// finalize builds the result of a repository whose mutations have run. It is
// successful only when every mutation succeeded and the pull request step
// yielded a URL or found nothing to merge.
func finalize(
	repo entities.Repository,
	log *actionLog,
	mutationsOK bool,
	pr pullRequestOutcome,
	files []entities.FileOutcome,
) entities.ActionResult {
	success := mutationsOK && (pr.URL != "" || pr.NoCommits)
	if success {
		log.Success("Finished %s", repo.FullName)
	} else {
		log.Error("Finished %s with failures", repo.FullName)
	}
	return entities.ActionResult{
		Repo:    repo,
		Success: success,
		NoOp:    success && pr.NoCommits,
		PRURL:   pr.URL,
		Message: log.String(),
		Files:   files,
	}
}

func failure(repo entities.Repository, log *actionLog) entities.ActionResult {
	return entities.ActionResult{Repo: repo, Message: log.String()}
}

func noOp(repo entities.Repository, log *actionLog, files []entities.FileOutcome) entities.ActionResult {
	return entities.ActionResult{Repo: repo, Success: true, NoOp: true, Message: log.String(), Files: files}
}
