package pattern

import (
	"regexp"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// PatternExtractorRepository extracts a capture group of a regular expression.
type PatternExtractorRepository struct{}

// NewPatternExtractorRepository creates a new regular expression extractor.
func NewPatternExtractorRepository() repositories.ExtractorRepository {
	return &PatternExtractorRepository{}
}

func (it *PatternExtractorRepository) Method() entities.ExtractionMethod {
	return entities.MethodPattern
}

// Extract returns the text of group GroupIndex (0 = whole match) of the first
// match. A group that did not take part in the match yields a null value.
func (it *PatternExtractorRepository) Extract(
	content string,
	cfg entities.ExtractionConfig,
) (entities.ExtractionResult, error) {
	config, ok := cfg.(entities.PatternConfig)
	if !ok {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "expected pattern config, got %T", cfg)
	}
	if config.Pattern == "" {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "pattern is required")
	}

	re, err := regexp.Compile(config.Pattern)
	if err != nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "invalid pattern %q: %v", config.Pattern, err)
	}
	if config.GroupIndex < 0 || config.GroupIndex > re.NumSubexp() {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig,
			"group_index %d is out of bounds: pattern %q has %d capture group(s)",
			config.GroupIndex, config.Pattern, re.NumSubexp())
	}

	loc := re.FindStringSubmatchIndex(content)
	if loc == nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionNoMatch, "pattern %q did not match", config.Pattern)
	}

	start, end := loc[2*config.GroupIndex], loc[2*config.GroupIndex+1]
	if start < 0 {
		return entities.NullResult(), nil
	}
	return entities.ValueResult(content[start:end]), nil
}
