package repositories

import (
	"context"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// HostRepository abstracts a Git hosting service (GitHub, GitLab) through the
// primitive calls the batch engine needs. Absence is reported with
// entities.ErrNotFound or an explicit found flag, never by panicking.
type HostRepository interface {
	// Name returns the provider identifier (e.g. "github").
	Name() string

	// GetRepository fetches one repository by "owner/name".
	GetRepository(ctx context.Context, fullName string) (entities.Repository, error)

	// ListRepositories lists the repositories of an organization, group or user.
	ListRepositories(ctx context.Context, owner string) ([]entities.Repository, error)

	// GetFile reads a file on ref. It returns entities.ErrNotFound when the path
	// does not exist and entities.ErrIsDirectory when it names a directory.
	GetFile(ctx context.Context, repoFullName, path, ref string) (*entities.FileContent, error)

	// GetBranch reads a branch. found is false when the branch does not exist.
	GetBranch(ctx context.Context, repoFullName, name string) (branch entities.Branch, found bool, err error)

	// CreateBranch points a new branch at sha. It returns entities.ErrAlreadyExists
	// when the branch was created concurrently.
	CreateBranch(ctx context.Context, repoFullName, name, sha string) error

	// PutFile creates the file when write.SHA is empty and updates it otherwise.
	// A stale SHA yields entities.ErrConflict. It returns the new blob SHA.
	PutFile(ctx context.Context, repoFullName string, write entities.FileWrite) (string, error)

	// DeleteFile removes a file guarded by its current SHA.
	DeleteFile(ctx context.Context, repoFullName string, deletion entities.FileDeletion) error

	// FindPullRequest returns the open pull request from head to base, or nil.
	FindPullRequest(ctx context.Context, repoFullName, head, base string) (*entities.PullRequest, error)

	// CreatePullRequest opens a pull request. It returns entities.ErrNoCommits when
	// head has no changes over base and entities.ErrAlreadyExists when one is open.
	CreatePullRequest(
		ctx context.Context,
		repoFullName string,
		input entities.PullRequestInput,
	) (*entities.PullRequest, error)

	// SearchCode runs a full-text code search and returns the matching paths.
	SearchCode(ctx context.Context, repoFullName, query string) ([]string, error)

	// ListTree lists the recursive tree of ref.
	ListTree(ctx context.Context, repoFullName, ref string) ([]entities.File, error)
}
