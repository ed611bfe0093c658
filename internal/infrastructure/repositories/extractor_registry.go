package repositories

import (
	"sort"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	domainRepos "github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// ExtractorRegistry manages all registered placeholder extraction strategies.
type ExtractorRegistry struct {
	extractors map[entities.ExtractionMethod]domainRepos.ExtractorRepository
}

// NewExtractorRegistry creates an empty extractor registry.
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		extractors: make(map[entities.ExtractionMethod]domainRepos.ExtractorRepository),
	}
}

// Register adds an extractor under its method.
func (r *ExtractorRegistry) Register(e domainRepos.ExtractorRepository) {
	r.extractors[e.Method()] = e
}

// Get returns the extractor for the given method, or nil if not registered.
func (r *ExtractorRegistry) Get(method entities.ExtractionMethod) domainRepos.ExtractorRepository {
	return r.extractors[method]
}

// Extract dispatches cfg to the extractor of its method.
func (r *ExtractorRegistry) Extract(
	content string,
	cfg entities.ExtractionConfig,
) (entities.ExtractionResult, error) {
	if cfg == nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "extraction config is missing")
	}
	extractor := r.Get(cfg.Method())
	if extractor == nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "unsupported extraction method %q", cfg.Method())
	}
	return extractor.Extract(content, cfg)
}

// Methods returns the registered methods in alphabetical order.
func (r *ExtractorRegistry) Methods() []entities.ExtractionMethod {
	methods := make([]entities.ExtractionMethod, 0, len(r.extractors))
	for method := range r.extractors {
		methods = append(methods, method)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
