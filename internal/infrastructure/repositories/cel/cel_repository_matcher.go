package cel

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

const repoVariable = "repo"

var errNotBoolean = errors.New("filter expression did not evaluate to a boolean")

// CELRepositoryMatcherFactory compiles CEL filter expressions over repository
// metadata, e.g. `!repo.archived && repo.name.startsWith("svc-")`.
type CELRepositoryMatcherFactory struct {
	env *cel.Env
}

// NewCELRepositoryMatcherFactory creates a factory with the `repo` variable declared.
func NewCELRepositoryMatcherFactory() (repositories.RepositoryMatcherFactory, error) {
	env, err := cel.NewEnv(
		cel.Variable(repoVariable, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &CELRepositoryMatcherFactory{env: env}, nil
}

// Compile parses and type-checks expression once so it can be evaluated per repository.
func (it *CELRepositoryMatcherFactory) Compile(expression string) (repositories.RepositoryMatcher, error) {
	ast, issues := it.env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to parse filter %q: %w", expression, issues.Err())
	}

	checked, issues := it.env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to type-check filter %q: %w", expression, issues.Err())
	}

	program, err := it.env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expression, err)
	}
	return &CELRepositoryMatcher{program: program}, nil
}

// CELRepositoryMatcher evaluates one compiled filter.
type CELRepositoryMatcher struct {
	program cel.Program
}

func (it *CELRepositoryMatcher) Match(repo entities.Repository) (bool, error) {
	result, _, err := it.program.Eval(map[string]any{repoVariable: activation(repo)})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter: %w", err)
	}
	if result.Type() != types.BoolType {
		return false, errNotBoolean
	}
	matched, _ := result.Value().(bool)
	return matched, nil
}

func activation(repo entities.Repository) map[string]any {
	return map[string]any{
		"name":           repo.Name,
		"full_name":      repo.FullName,
		"owner":          repo.Owner,
		"html_url":       repo.HTMLURL,
		"default_branch": repo.DefaultBranch,
		"description":    repo.Description,
		"provider":       repo.ProviderName,
		"private":        repo.Private,
		"fork":           repo.Fork,
		"archived":       repo.Archived,
		"updated_at":     repo.UpdatedAt,
	}
}
