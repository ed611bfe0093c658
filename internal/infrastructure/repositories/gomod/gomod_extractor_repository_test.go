//go:build unit

package gomod_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/infrastructure/repositories/gomod"
)

const goMod = `module github.com/acme/service

go 1.22.3

toolchain go1.23.1

require (
	github.com/sirupsen/logrus v1.9.3
	github.com/stretchr/testify v1.10.0 // indirect
)
`

func kindOf(t *testing.T, err error) entities.ExtractionKind {
	t.Helper()
	var extractionErr *entities.ExtractionError
	require.True(t, errors.As(err, &extractionErr), "expected an extraction error, got %v", err)
	return extractionErr.Kind
}

func extract(content, field, part string) (entities.ExtractionResult, error) {
	return gomod.NewGoModExtractorRepository().Extract(content, entities.GoModConfig{Field: field, Part: part})
}

func TestGoModExtractorRepository_Extract(t *testing.T) {
	t.Parallel()

	t.Run("should read the module, go and toolchain directives", func(t *testing.T) {
		t.Parallel()

		// when
		module, _ := extract(goMod, "module", "")
		goVersion, _ := extract(goMod, "go", "")
		toolchain, _ := extract(goMod, "toolchain", "")

		// then
		assert.Equal(t, "github.com/acme/service", module.String())
		assert.Equal(t, "1.22.3", goVersion.String())
		assert.Equal(t, "go1.23.1", toolchain.String())
	})

	t.Run("should read a required module version", func(t *testing.T) {
		t.Parallel()

		// when
		result, err := extract(goMod, "require:github.com/stretchr/testify", "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "v1.10.0", result.String())
	})

	t.Run("should trim versions to the requested part", func(t *testing.T) {
		t.Parallel()

		// when
		majorMinor, _ := extract(goMod, "go", "major_minor")
		major, _ := extract(goMod, "require:github.com/sirupsen/logrus", "major")
		canonical, _ := extract("module x\n\ngo 1.21\n", "go", "canonical")

		// then
		assert.Equal(t, "v1.22", majorMinor.String())
		assert.Equal(t, "v1", major.String())
		assert.Equal(t, "v1.21.0", canonical.String())
	})

	t.Run("should return null for an absent directive", func(t *testing.T) {
		t.Parallel()

		// when
		result, err := extract("module x\n", "toolchain", "")

		// then
		require.NoError(t, err)
		assert.True(t, result.IsNull())
	})

	t.Run("should report a module that is not required", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := extract(goMod, "require:golang.org/x/mod", "")

		// then
		assert.Equal(t, entities.ExtractionPathNotFound, kindOf(t, err))
	})

	t.Run("should reject unknown fields and parts", func(t *testing.T) {
		t.Parallel()

		// when
		_, fieldErr := extract(goMod, "replace", "")
		_, partErr := extract(goMod, "go", "patch")

		// then
		assert.Equal(t, entities.ExtractionBadConfig, kindOf(t, fieldErr))
		assert.Equal(t, entities.ExtractionBadConfig, kindOf(t, partErr))
	})
}
