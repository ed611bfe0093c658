package gomod

import (
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

const requirePrefix = "require:"

// GoModExtractorRepository reads fields of a go.mod file.
type GoModExtractorRepository struct{}

// NewGoModExtractorRepository creates a new go.mod extractor.
func NewGoModExtractorRepository() repositories.ExtractorRepository {
	return &GoModExtractorRepository{}
}

func (it *GoModExtractorRepository) Method() entities.ExtractionMethod {
	return entities.MethodGoMod
}

func (it *GoModExtractorRepository) Extract(
	content string,
	cfg entities.ExtractionConfig,
) (entities.ExtractionResult, error) {
	config, ok := cfg.(entities.GoModConfig)
	if !ok {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "expected gomod config, got %T", cfg)
	}
	if config.Field == "" {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "field is required")
	}

	file, err := modfile.ParseLax("go.mod", []byte(content), nil)
	if err != nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "failed to parse go.mod: %v", err)
	}

	value, err := field(file, config.Field)
	if err != nil {
		return entities.NullResult(), err
	}
	if value == "" {
		return entities.NullResult(), nil
	}
	return versionPart(value, config.Part)
}

func field(file *modfile.File, name string) (string, error) {
	switch {
	case name == "module":
		if file.Module == nil {
			return "", nil
		}
		return file.Module.Mod.Path, nil
	case name == "go":
		if file.Go == nil {
			return "", nil
		}
		return file.Go.Version, nil
	case name == "toolchain":
		if file.Toolchain == nil {
			return "", nil
		}
		return file.Toolchain.Name, nil
	case strings.HasPrefix(name, requirePrefix):
		path := strings.TrimPrefix(name, requirePrefix)
		for _, req := range file.Require {
			if req.Mod.Path == path {
				return req.Mod.Version, nil
			}
		}
		return "", entities.NewExtractionError(
			entities.ExtractionPathNotFound, "module %q is not required", path)
	default:
		return "", entities.NewExtractionError(
			entities.ExtractionBadConfig, "unsupported field %q", name)
	}
}

// versionPart trims a version to the requested semantic version part.
func versionPart(version, part string) (entities.ExtractionResult, error) {
	if part == "" {
		return entities.ValueResult(version), nil
	}

	normalized := version
	if !strings.HasPrefix(normalized, "v") {
		normalized = "v" + normalized
	}
	if !semver.IsValid(normalized) {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "%q is not a semantic version", version)
	}

	switch part {
	case "major":
		return entities.ValueResult(semver.Major(normalized)), nil
	case "major_minor":
		return entities.ValueResult(semver.MajorMinor(normalized)), nil
	case "canonical":
		return entities.ValueResult(semver.Canonical(normalized)), nil
	default:
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "unsupported version part %q", part)
	}
}
