package tomlpath

import (
	"github.com/BurntSushi/toml"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// TOMLPathExtractorRepository navigates TOML documents (Cargo.toml,
// pyproject.toml) with the same candidate semantics as the YAML extractor.
type TOMLPathExtractorRepository struct{}

// NewTOMLPathExtractorRepository creates a new TOML path extractor.
func NewTOMLPathExtractorRepository() repositories.ExtractorRepository {
	return &TOMLPathExtractorRepository{}
}

func (it *TOMLPathExtractorRepository) Method() entities.ExtractionMethod {
	return entities.MethodTOMLPath
}

func (it *TOMLPathExtractorRepository) Extract(
	content string,
	cfg entities.ExtractionConfig,
) (entities.ExtractionResult, error) {
	config, ok := cfg.(entities.TOMLPathConfig)
	if !ok {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "expected toml_path config, got %T", cfg)
	}
	if len(config.Paths) == 0 {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "toml_path is required")
	}

	var document map[string]any
	if _, err := toml.Decode(content, &document); err != nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "failed to parse TOML: %v", err)
	}

	return entities.ResolveCandidates(config.Paths, func(path string) (entities.ExtractionResult, error) {
		value, err := entities.NavigatePath(document, path)
		if err != nil {
			return entities.NullResult(), err
		}
		if value == nil {
			return entities.NullResult(), nil
		}
		return entities.ValueResult(entities.FormatValue(value)), nil
	})
}
