package entities

import (
	"strings"
	"time"

	gitforgeEntities "github.com/rios0rios0/gitforge/pkg/global/domain/entities"
)

// Repository is an immutable snapshot of a hosted repository. HTMLURL is its identity.
type Repository struct {
	Name          string
	FullName      string
	HTMLURL       string
	DefaultBranch string
	Description   string
	Owner         string
	ProviderName  string
	UpdatedAt     time.Time
	Private       bool
	Fork          bool
	Archived      bool
}

// ID returns the stable identity key of the repository.
func (r Repository) ID() string { return r.HTMLURL }

// SplitFullName returns the owner and name parts of "owner/name".
// Nested GitLab groups keep everything before the last slash as the owner.
func SplitFullName(fullName string) (string, string) {
	idx := strings.LastIndex(fullName, "/")
	if idx < 0 {
		return "", fullName
	}
	return fullName[:idx], fullName[idx+1:]
}

// File is a tree entry, re-exported from gitforge.
type File = gitforgeEntities.File

// PullRequest is re-exported from gitforge.
type PullRequest = gitforgeEntities.PullRequest

// PullRequestInput is re-exported from gitforge.
type PullRequestInput = gitforgeEntities.PullRequestInput
