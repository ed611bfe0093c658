//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// StubExtractorRepository implements repositories.ExtractorRepository with a canned result.
type StubExtractorRepository struct {
	// --- identity ---
	ExtractionMethod entities.ExtractionMethod

	// --- Extract ---
	Result   entities.ExtractionResult
	Err      error
	Contents []string
	Configs  []entities.ExtractionConfig
}

var _ repositories.ExtractorRepository = (*StubExtractorRepository)(nil)

func (s *StubExtractorRepository) Method() entities.ExtractionMethod { return s.ExtractionMethod }

func (s *StubExtractorRepository) Extract(
	content string,
	cfg entities.ExtractionConfig,
) (entities.ExtractionResult, error) {
	s.Contents = append(s.Contents, content)
	s.Configs = append(s.Configs, cfg)
	return s.Result, s.Err
}

// StubRepositoryMatcherFactory compiles every expression into a matcher
// that accepts the repositories named in Accept.
type StubRepositoryMatcherFactory struct {
	Accept     map[string]bool
	CompileErr error
	Compiled   []string
}

var _ repositories.RepositoryMatcherFactory = (*StubRepositoryMatcherFactory)(nil)

func (s *StubRepositoryMatcherFactory) Compile(expression string) (repositories.RepositoryMatcher, error) {
	s.Compiled = append(s.Compiled, expression)
	if s.CompileErr != nil {
		return nil, s.CompileErr
	}
	return stubMatcher{accept: s.Accept}, nil
}

type stubMatcher struct {
	accept map[string]bool
}

func (m stubMatcher) Match(repo entities.Repository) (bool, error) {
	return m.accept[repo.FullName], nil
}
