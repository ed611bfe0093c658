//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// PlaceholderDefinitionBuilder helps create placeholder definitions with a fluent interface.
type PlaceholderDefinitionBuilder struct {
	*testkit.BaseBuilder
	name     string
	filePath string
	config   entities.ExtractionConfig
}

// NewPlaceholderDefinitionBuilder creates a builder for a pattern placeholder
// reading the Go version from go.mod.
func NewPlaceholderDefinitionBuilder() *PlaceholderDefinitionBuilder {
	return &PlaceholderDefinitionBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		name:        "go_version",
		filePath:    "go.mod",
		config:      entities.PatternConfig{Pattern: `(?m)^go (\S+)`, GroupIndex: 1},
	}
}

// WithName sets the placeholder name.
func (b *PlaceholderDefinitionBuilder) WithName(name string) *PlaceholderDefinitionBuilder {
	b.name = name
	return b
}

// WithFilePath sets the file the value is extracted from.
func (b *PlaceholderDefinitionBuilder) WithFilePath(filePath string) *PlaceholderDefinitionBuilder {
	b.filePath = filePath
	return b
}

// WithPattern extracts a regular expression capture group.
func (b *PlaceholderDefinitionBuilder) WithPattern(pattern string, group int) *PlaceholderDefinitionBuilder {
	b.config = entities.PatternConfig{Pattern: pattern, GroupIndex: group}
	return b
}

// WithJSONPath extracts a JSON path.
func (b *PlaceholderDefinitionBuilder) WithJSONPath(expression string) *PlaceholderDefinitionBuilder {
	b.config = entities.JSONPathConfig{Expression: expression}
	return b
}

// WithYAMLPaths extracts the first non-null YAML candidate path.
func (b *PlaceholderDefinitionBuilder) WithYAMLPaths(paths ...string) *PlaceholderDefinitionBuilder {
	b.config = entities.YAMLPathConfig{Paths: paths}
	return b
}

// WithConfig sets an arbitrary extraction config.
func (b *PlaceholderDefinitionBuilder) WithConfig(cfg entities.ExtractionConfig) *PlaceholderDefinitionBuilder {
	b.config = cfg
	return b
}

// Build creates the definition (satisfies testkit.Builder interface).
func (b *PlaceholderDefinitionBuilder) Build() interface{} {
	return b.BuildDefinition()
}

// BuildDefinition creates the definition with a concrete return type.
func (b *PlaceholderDefinitionBuilder) BuildDefinition() entities.PlaceholderDefinition {
	definition := entities.PlaceholderDefinition{
		Name:     b.name,
		FilePath: b.filePath,
		Config:   b.config,
	}
	if b.config != nil {
		definition.Method = b.config.Method()
	}
	return definition
}

// Reset clears the builder state, allowing it to be reused.
func (b *PlaceholderDefinitionBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "go_version"
	b.filePath = "go.mod"
	b.config = entities.PatternConfig{Pattern: `(?m)^go (\S+)`, GroupIndex: 1}
	return b
}

// Clone creates a deep copy of the PlaceholderDefinitionBuilder.
func (b *PlaceholderDefinitionBuilder) Clone() testkit.Builder {
	return &PlaceholderDefinitionBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:        b.name,
		filePath:    b.filePath,
		config:      b.config,
	}
}
