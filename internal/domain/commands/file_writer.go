package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// searchReplace applies one search/replace rule to content and reports how
// many occurrences were replaced. Regex replacements use Go's ${n} syntax.
func searchReplace(content, search, replace string, isRegex, all bool) (string, int, error) {
	if search == "" {
		return content, 0, entities.NewConfigError("search", "search text is empty")
	}

	if !isRegex {
		count := strings.Count(content, search)
		if count == 0 {
			return content, 0, nil
		}
		if all {
			return strings.ReplaceAll(content, search, replace), count, nil
		}
		return strings.Replace(content, search, replace, 1), 1, nil
	}

	pattern, err := regexp.Compile(search)
	if err != nil {
		return content, 0, entities.NewConfigError("search", "invalid regular expression %q: %v", search, err)
	}
	if all {
		count := len(pattern.FindAllStringIndex(content, -1))
		if count == 0 {
			return content, 0, nil
		}
		return pattern.ReplaceAllString(content, replace), count, nil
	}

	match := pattern.FindStringSubmatchIndex(content)
	if match == nil {
		return content, 0, nil
	}
	expanded := pattern.ExpandString(nil, replace, content, match)
	return content[:match[0]] + string(expanded) + content[match[1]:], 1, nil
}

// forceRewrite deletes the file at its current SHA on branch and recreates it
// with content. It is the single retry after a write conflict.
func forceRewrite(
	ctx context.Context,
	host repositories.HostRepository,
	repoFullName string,
	write entities.FileWrite,
	log *actionLog,
) (string, error) {
	current, err := host.GetFile(ctx, repoFullName, write.Path, write.Branch)
	switch {
	case err == nil:
		if err = host.DeleteFile(ctx, repoFullName, entities.FileDeletion{
			Path:    write.Path,
			Message: fmt.Sprintf("Forcing update: Deleting '%s' before recreate", write.Path),
			Branch:  write.Branch,
			SHA:     current.SHA,
		}); err != nil {
			return "", fmt.Errorf("failed to delete %q before recreate: %w", write.Path, err)
		}
		log.Warn("Deleted %q at %s before recreating it", write.Path, current.SHA)
	case entities.IsNotFound(err):
		log.Debug("File %q is gone from %q, recreating it", write.Path, write.Branch)
	default:
		return "", fmt.Errorf("failed to read current %q: %w", write.Path, err)
	}

	write.SHA = ""
	newSHA, err := host.PutFile(ctx, repoFullName, write)
	if err != nil {
		return "", fmt.Errorf("failed to recreate %q: %w", write.Path, err)
	}
	return newSHA, nil
}
