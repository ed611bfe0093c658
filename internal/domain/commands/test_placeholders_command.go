package commands

import (
	"context"
	"fmt"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	infraRepos "github.com/rios0rios0/repopatch/internal/infrastructure/repositories"
)

// TestPlaceholders is the interface for the placeholder test command.
type TestPlaceholders interface {
	Execute(ctx context.Context, settings *entities.Settings, repoFullName string) ([]PlaceholderReport, error)
}

// PlaceholderReport is the outcome of one placeholder definition against one repository.
type PlaceholderReport struct {
	Name     string
	FilePath string
	Method   entities.ExtractionMethod
	Value    string
	Null     bool
	Err      error
}

// TestPlaceholdersCommand evaluates every placeholder definition against one
// repository without stopping at the first failure.
type TestPlaceholdersCommand struct {
	hostRegistry *infraRepos.HostRegistry
	resolver     *PlaceholderResolver
}

// NewTestPlaceholdersCommand creates a new TestPlaceholdersCommand.
func NewTestPlaceholdersCommand(
	hostRegistry *infraRepos.HostRegistry,
	resolver *PlaceholderResolver,
) *TestPlaceholdersCommand {
	return &TestPlaceholdersCommand{hostRegistry: hostRegistry, resolver: resolver}
}

// Execute returns one report per definition, in definition order.
func (it *TestPlaceholdersCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	repoFullName string,
) ([]PlaceholderReport, error) {
	host, err := resolveHost(it.hostRegistry, settings.Provider, "", false)
	if err != nil {
		return nil, err
	}

	repo, err := host.GetRepository(ctx, repoFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository %s: %w", repoFullName, err)
	}

	reports := make([]PlaceholderReport, 0, len(settings.Placeholders))
	for _, definition := range settings.Placeholders {
		report := PlaceholderReport{
			Name:     definition.Name,
			FilePath: definition.FilePath,
			Method:   definition.Method,
		}
		if entities.IsReservedKey(definition.Name) {
			report.Err = entities.NewConfigError("placeholder", "%q is a reserved name", definition.Name)
			reports = append(reports, report)
			continue
		}

		result, resolveErr := it.resolver.ResolveOne(ctx, host, repo, definition)
		report.Err = resolveErr
		report.Value = result.String()
		report.Null = resolveErr == nil && result.IsNull()
		reports = append(reports, report)
	}
	return reports, nil
}
