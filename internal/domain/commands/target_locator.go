package commands

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

const (
	maxSearchResults = 100
	maxTreeResults   = 200
)

// TargetCriteria selects the files of a multi-file action.
type TargetCriteria struct {
	PathScope    string
	FilenameGlob string
	ContentQuery string
}

// TargetLocator turns multi-file criteria into concrete files on a branch.
type TargetLocator struct{}

// NewTargetLocator creates a TargetLocator.
func NewTargetLocator() *TargetLocator {
	return &TargetLocator{}
}

// Find lists the files on branch matching criteria. A scope without a
// trailing slash that names a file selects that file, provided it contains
// the content query when one is given. Otherwise a content query uses the
// host's code search and re-reads every hit on branch, dropping the ones that
// are missing there, and a filename glob alone walks the branch tree. Without
// either, the request is rejected with ErrAmbiguousTarget.
func (it *TargetLocator) Find(
	ctx context.Context,
	host repositories.HostRepository,
	repoFullName, branch string,
	criteria TargetCriteria,
) ([]entities.TargetFile, error) {
	scope := normalizeScope(criteria.PathScope)
	glob := strings.TrimSpace(criteria.FilenameGlob)
	query := strings.TrimSpace(criteria.ContentQuery)

	if glob != "" {
		if _, err := path.Match(glob, ""); err != nil {
			return nil, entities.NewConfigError("filename_filter", "invalid glob %q: %v", glob, err)
		}
	}
	if scope == "" && glob == "" && query == "" {
		return nil, fmt.Errorf(
			"%w: a filename filter or a content query is required when no target path is given",
			entities.ErrAmbiguousTarget)
	}

	if scope != "" && !strings.HasSuffix(strings.TrimSpace(criteria.PathScope), "/") {
		file, err := it.findExact(ctx, host, repoFullName, branch, scope)
		if err != nil {
			return nil, err
		}
		if file != nil {
			if query != "" && !strings.Contains(file.Content, query) {
				return []entities.TargetFile{}, nil
			}
			return []entities.TargetFile{{Path: scope, KnownSHA: file.SHA}}, nil
		}
	}

	switch {
	case query != "":
		return it.findByContent(ctx, host, repoFullName, branch, scope, glob, query)
	case glob != "":
		return it.findByName(ctx, host, repoFullName, branch, scope, glob)
	default:
		return nil, fmt.Errorf("%w: %q is not a file; add a filename filter or a content query",
			entities.ErrAmbiguousTarget, scope)
	}
}

// findExact reads scope as a file. It returns nil without error when scope
// is a directory or does not exist.
func (it *TargetLocator) findExact(
	ctx context.Context,
	host repositories.HostRepository,
	repoFullName, branch, scope string,
) (*entities.FileContent, error) {
	file, err := host.GetFile(ctx, repoFullName, scope, branch)
	if err != nil {
		if errors.Is(err, entities.ErrIsDirectory) || entities.IsNotFound(err) {
			return nil, nil //nolint:nilnil // not a file
		}
		return nil, fmt.Errorf("failed to read %q: %w", scope, err)
	}
	return file, nil
}

func (it *TargetLocator) findByContent(
	ctx context.Context,
	host repositories.HostRepository,
	repoFullName, branch, scope, glob, query string,
) ([]entities.TargetFile, error) {
	search := query
	if scope != "" {
		search += " path:" + scope
	}
	if glob != "" {
		search += " filename:" + glob
	}

	paths, err := host.SearchCode(ctx, repoFullName, search)
	if err != nil {
		return nil, fmt.Errorf("failed to search code: %w", err)
	}
	if len(paths) > maxSearchResults {
		logger.WithField("repo", repoFullName).Warnf(
			"Code search returned %d files, keeping the first %d", len(paths), maxSearchResults)
		paths = paths[:maxSearchResults]
	}

	seen := make(map[string]bool, len(paths))
	files := make([]entities.TargetFile, 0, len(paths))
	for _, candidate := range paths {
		candidate = strings.TrimPrefix(candidate, "/")
		if seen[candidate] || !inScope(candidate, scope) || !matchesGlob(candidate, glob) {
			continue
		}
		seen[candidate] = true

		file, getErr := host.GetFile(ctx, repoFullName, candidate, branch)
		if getErr != nil {
			logger.WithField("repo", repoFullName).Debugf(
				"Dropping search hit %q: not readable on %q: %v", candidate, branch, getErr)
			continue
		}
		files = append(files, entities.TargetFile{Path: candidate, KnownSHA: file.SHA})
	}
	return files, nil
}

func (it *TargetLocator) findByName(
	ctx context.Context,
	host repositories.HostRepository,
	repoFullName, branch, scope, glob string,
) ([]entities.TargetFile, error) {
	tree, err := host.ListTree(ctx, repoFullName, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %q: %w", branch, err)
	}

	files := make([]entities.TargetFile, 0)
	for _, entry := range tree {
		if entry.IsDir || !inScope(entry.Path, scope) || !matchesGlob(entry.Path, glob) {
			continue
		}
		if len(files) == maxTreeResults {
			logger.WithField("repo", repoFullName).Warnf(
				"More than %d files match %q, ignoring the rest", maxTreeResults, glob)
			break
		}
		files = append(files, entities.TargetFile{Path: entry.Path, KnownSHA: entry.ObjectID})
	}
	return files, nil
}

func normalizeScope(scope string) string {
	scope = strings.Trim(strings.TrimSpace(scope), "/")
	if scope == "." {
		return ""
	}
	return scope
}

func inScope(filePath, scope string) bool {
	return scope == "" || filePath == scope || strings.HasPrefix(filePath, scope+"/")
}

func matchesGlob(filePath, glob string) bool {
	if glob == "" {
		return true
	}
	matched, err := path.Match(glob, path.Base(filePath))
	return err == nil && matched
}
