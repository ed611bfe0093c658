package repositories

import (
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// ExtractorRepository pulls one placeholder value out of file content.
// Each implementation serves exactly one extraction method.
type ExtractorRepository interface {
	// Method returns the extraction method this implementation serves.
	Method() entities.ExtractionMethod

	// Extract returns the value selected by cfg. Failures are *entities.ExtractionError.
	Extract(content string, cfg entities.ExtractionConfig) (entities.ExtractionResult, error)
}
