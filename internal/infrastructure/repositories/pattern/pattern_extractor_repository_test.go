//go:build unit

package pattern_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/infrastructure/repositories/pattern"
)

func kindOf(t *testing.T, err error) entities.ExtractionKind {
	t.Helper()
	var extractionErr *entities.ExtractionError
	require.True(t, errors.As(err, &extractionErr), "expected an extraction error, got %v", err)
	return extractionErr.Kind
}

func TestPatternExtractorRepository_Extract(t *testing.T) {
	t.Parallel()

	content := "FROM golang:1.22-alpine AS build\nFROM alpine:3.19\n"

	t.Run("should return the requested capture group of the first match", func(t *testing.T) {
		t.Parallel()

		// given
		extractor := pattern.NewPatternExtractorRepository()

		// when
		result, err := extractor.Extract(content, entities.PatternConfig{Pattern: `FROM (\w+):([\d.]+)`, GroupIndex: 2})

		// then
		require.NoError(t, err)
		assert.Equal(t, "1.22", result.String())
	})

	t.Run("should return the whole match for group zero", func(t *testing.T) {
		t.Parallel()

		// when
		result, err := pattern.NewPatternExtractorRepository().Extract(
			content, entities.PatternConfig{Pattern: `alpine:[\d.]+`})

		// then
		require.NoError(t, err)
		assert.Equal(t, "alpine:3.19", result.String())
	})

	t.Run("should return null when the group did not participate", func(t *testing.T) {
		t.Parallel()

		// when
		result, err := pattern.NewPatternExtractorRepository().Extract(
			"version", entities.PatternConfig{Pattern: `version(-\d+)?`, GroupIndex: 1})

		// then
		require.NoError(t, err)
		assert.True(t, result.IsNull())
	})

	t.Run("should fail when the pattern does not match", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := pattern.NewPatternExtractorRepository().Extract(content, entities.PatternConfig{Pattern: `node:\d+`})

		// then
		assert.Equal(t, entities.ExtractionNoMatch, kindOf(t, err))
	})

	t.Run("should reject an out of bounds group index", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := pattern.NewPatternExtractorRepository().Extract(
			content, entities.PatternConfig{Pattern: `(golang)`, GroupIndex: 2})

		// then
		assert.Equal(t, entities.ExtractionBadConfig, kindOf(t, err))
		assert.Contains(t, err.Error(), "1 capture group(s)")
	})

	t.Run("should reject an invalid pattern", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := pattern.NewPatternExtractorRepository().Extract(content, entities.PatternConfig{Pattern: `(`})

		// then
		assert.Equal(t, entities.ExtractionBadConfig, kindOf(t, err))
	})

	t.Run("should reject a config of another method", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := pattern.NewPatternExtractorRepository().Extract(content, entities.JSONPathConfig{Expression: "a"})

		// then
		assert.Equal(t, entities.ExtractionBadConfig, kindOf(t, err))
	})
}
