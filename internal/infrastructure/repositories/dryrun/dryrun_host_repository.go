package dryrun

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// DryRunHostRepository forwards reads to the wrapped host and only logs writes.
// Branches it pretends to create are served from the commit they would point
// to, so later reads on the working branch still see the default branch content.
type DryRunHostRepository struct {
	delegate repositories.HostRepository
	branches map[string]string
}

// NewDryRunHostRepository wraps delegate so that no write reaches the host.
func NewDryRunHostRepository(delegate repositories.HostRepository) repositories.HostRepository {
	return &DryRunHostRepository{
		delegate: delegate,
		branches: make(map[string]string),
	}
}

func (d *DryRunHostRepository) Name() string { return d.delegate.Name() }

func (d *DryRunHostRepository) GetRepository(ctx context.Context, fullName string) (entities.Repository, error) {
	return d.delegate.GetRepository(ctx, fullName)
}

func (d *DryRunHostRepository) ListRepositories(ctx context.Context, owner string) ([]entities.Repository, error) {
	return d.delegate.ListRepositories(ctx, owner)
}

func (d *DryRunHostRepository) GetFile(
	ctx context.Context,
	repoFullName, path, ref string,
) (*entities.FileContent, error) {
	if sha, ok := d.branches[branchKey(repoFullName, ref)]; ok {
		ref = sha
	}
	return d.delegate.GetFile(ctx, repoFullName, path, ref)
}

func (d *DryRunHostRepository) GetBranch(
	ctx context.Context,
	repoFullName, name string,
) (entities.Branch, bool, error) {
	if sha, ok := d.branches[branchKey(repoFullName, name)]; ok {
		return entities.Branch{Name: name, SHA: sha}, true, nil
	}
	return d.delegate.GetBranch(ctx, repoFullName, name)
}

func (d *DryRunHostRepository) CreateBranch(_ context.Context, repoFullName, name, sha string) error {
	logger.WithField("repo", repoFullName).Infof("[dry-run] would create branch %q at %s", name, sha)
	d.branches[branchKey(repoFullName, name)] = sha
	return nil
}

func (d *DryRunHostRepository) PutFile(
	_ context.Context,
	repoFullName string,
	write entities.FileWrite,
) (string, error) {
	verb := "update"
	if write.SHA == "" {
		verb = "create"
	}
	logger.WithField("repo", repoFullName).Infof(
		"[dry-run] would %s %q on %q (%d bytes): %s", verb, write.Path, write.Branch, len(write.Content), write.Message)
	return entities.BlobHash(write.Content), nil
}

func (d *DryRunHostRepository) DeleteFile(
	_ context.Context,
	repoFullName string,
	deletion entities.FileDeletion,
) error {
	logger.WithField("repo", repoFullName).Infof(
		"[dry-run] would delete %q on %q: %s", deletion.Path, deletion.Branch, deletion.Message)
	return nil
}

func (d *DryRunHostRepository) FindPullRequest(
	ctx context.Context,
	repoFullName, head, base string,
) (*entities.PullRequest, error) {
	return d.delegate.FindPullRequest(ctx, repoFullName, head, base)
}

func (d *DryRunHostRepository) CreatePullRequest(
	_ context.Context,
	repoFullName string,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	logger.WithField("repo", repoFullName).Infof(
		"[dry-run] would open pull request %q from %q into %q", input.Title, input.SourceBranch, input.TargetBranch)
	return &entities.PullRequest{
		Title:  input.Title,
		URL:    fmt.Sprintf("dry-run://%s/%s...%s", repoFullName, input.TargetBranch, input.SourceBranch),
		Status: "dry-run",
	}, nil
}

func (d *DryRunHostRepository) SearchCode(ctx context.Context, repoFullName, query string) ([]string, error) {
	return d.delegate.SearchCode(ctx, repoFullName, query)
}

func (d *DryRunHostRepository) ListTree(
	ctx context.Context,
	repoFullName, ref string,
) ([]entities.File, error) {
	if sha, ok := d.branches[branchKey(repoFullName, ref)]; ok {
		ref = sha
	}
	return d.delegate.ListTree(ctx, repoFullName, ref)
}

func branchKey(repoFullName, branch string) string {
	return repoFullName + "@" + branch
}
