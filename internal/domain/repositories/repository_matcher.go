package repositories

import (
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// RepositoryMatcher decides whether a repository takes part in a batch.
type RepositoryMatcher interface {
	Match(repo entities.Repository) (bool, error)
}

// RepositoryMatcherFactory compiles a filter expression into a matcher.
type RepositoryMatcherFactory interface {
	Compile(expression string) (RepositoryMatcher, error)
}
