package commands

import (
	"context"
	"time"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/repopatch/internal/infrastructure/repositories"
)

// PlaceholderResolver builds the placeholder map of one repository by reading
// each definition's file on the default branch and extracting its value.
type PlaceholderResolver struct {
	extractors *infraRepos.ExtractorRegistry
}

// NewPlaceholderResolver creates a resolver backed by the given extractors.
func NewPlaceholderResolver(extractors *infraRepos.ExtractorRegistry) *PlaceholderResolver {
	return &PlaceholderResolver{extractors: extractors}
}

// Resolve seeds the built-in placeholders and resolves every definition in
// order. The first extraction failure stops resolution and returns ok=false;
// invalid definitions are skipped with a warning. The log is returned in
// every case.
func (it *PlaceholderResolver) Resolve(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	definitions []entities.PlaceholderDefinition,
	timestamp time.Time,
) (entities.PlaceholderMap, []string, bool) {
	log := newActionLog(repo.FullName)
	resolved := entities.NewBuiltinPlaceholders(repo, timestamp)

	if len(definitions) == 0 {
		log.Debug("No custom placeholders defined, using built-in values only")
		return resolved, log.Lines(), true
	}

	for i, definition := range definitions {
		if err := definition.Validate(); err != nil {
			log.Warn("Skipping placeholder #%d %q: %v", i+1, definition.Name, err)
			continue
		}
		if entities.IsReservedKey(definition.Name) {
			log.Warn("Skipping placeholder %q: the name is reserved for a built-in value", definition.Name)
			continue
		}

		result, err := it.ResolveOne(ctx, host, repo, definition)
		if err != nil {
			log.Error("Failed to resolve placeholder %q from %q: %v", definition.Name, definition.FilePath, err)
			return resolved, log.Lines(), false
		}

		resolved[definition.Name] = result.String()
		if result.IsNull() {
			log.Info("Placeholder %q resolved to null, using an empty value", definition.Name)
		} else {
			log.Info("Placeholder %q = %q", definition.Name, preview(result.String()))
		}
	}

	return resolved, log.Lines(), true
}

// ResolveOne reads the definition's file on the default branch and runs its extractor.
// The file path is used literally.
func (it *PlaceholderResolver) ResolveOne(
	ctx context.Context,
	host repositories.HostRepository,
	repo entities.Repository,
	definition entities.PlaceholderDefinition,
) (entities.ExtractionResult, error) {
	if err := definition.Validate(); err != nil {
		return entities.NullResult(), err
	}

	file, err := host.GetFile(ctx, repo.FullName, definition.FilePath, repo.DefaultBranch)
	if err != nil {
		return entities.NullResult(), entities.NewExtractionError(entities.ExtractionFileUnavailable,
			"cannot read %q on branch %q: %v", definition.FilePath, repo.DefaultBranch, err)
	}

	return it.extractors.Extract(file.Content, definition.Config)
}
