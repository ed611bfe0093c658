package jsonpath

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// JSONPathExtractorRepository navigates JSON documents with dot-and-index paths.
type JSONPathExtractorRepository struct{}

// NewJSONPathExtractorRepository creates a new JSON path extractor.
func NewJSONPathExtractorRepository() repositories.ExtractorRepository {
	return &JSONPathExtractorRepository{}
}

func (it *JSONPathExtractorRepository) Method() entities.ExtractionMethod {
	return entities.MethodJSONPath
}

func (it *JSONPathExtractorRepository) Extract(
	content string,
	cfg entities.ExtractionConfig,
) (entities.ExtractionResult, error) {
	config, ok := cfg.(entities.JSONPathConfig)
	if !ok {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "expected json_path config, got %T", cfg)
	}
	if strings.TrimSpace(config.Expression) == "" {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "jsonpath_expression is required")
	}

	document, err := decode(content)
	if err != nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "failed to parse JSON: %v", err)
	}

	value, err := entities.NavigatePath(document, config.Expression)
	if err != nil {
		return entities.NullResult(), err
	}
	if value == nil {
		return entities.NullResult(), nil
	}
	return entities.ValueResult(entities.FormatValue(value)), nil
}

// decode keeps numbers in their source form and rejects trailing data.
func decode(content string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()

	var document any
	if err := decoder.Decode(&document); err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return document, nil
}
