//go:build unit

package hclpath_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/infrastructure/repositories/hclpath"
)

const mainTF = `
terraform {
  required_version = ">= 1.5"
}

module "vpc" {
  source  = "terraform-aws-modules/vpc/aws"
  version = "5.1.2"
}

locals {
  replicas = 3
  zones    = ["eu-west-1a", "eu-west-1b"]
  tags     = { env = "prod" }
  region   = var.region
}
`

func kindOf(t *testing.T, err error) entities.ExtractionKind {
	t.Helper()
	var extractionErr *entities.ExtractionError
	require.True(t, errors.As(err, &extractionErr), "expected an extraction error, got %v", err)
	return extractionErr.Kind
}

func extract(content, expression string) (entities.ExtractionResult, error) {
	return hclpath.NewHCLPathExtractorRepository().Extract(content, entities.HCLPathConfig{Expression: expression})
}

func TestHCLPathExtractorRepository_Extract(t *testing.T) {
	t.Parallel()

	t.Run("should read attributes of unlabeled and labeled blocks", func(t *testing.T) {
		t.Parallel()

		// when
		required, requiredErr := extract(mainTF, "terraform.required_version")
		vpc, vpcErr := extract(mainTF, "module.vpc.version")

		// then
		require.NoError(t, requiredErr)
		require.NoError(t, vpcErr)
		assert.Equal(t, ">= 1.5", required.String())
		assert.Equal(t, "5.1.2", vpc.String())
	})

	t.Run("should descend into collections and convert numbers", func(t *testing.T) {
		t.Parallel()

		// when
		replicas, _ := extract(mainTF, "locals.replicas")
		zone, _ := extract(mainTF, "locals.zones.1")
		env, _ := extract(mainTF, "locals.tags.env")
		zones, _ := extract(mainTF, "locals.zones")

		// then
		assert.Equal(t, "3", replicas.String())
		assert.Equal(t, "eu-west-1b", zone.String())
		assert.Equal(t, "prod", env.String())
		assert.Equal(t, `["eu-west-1a","eu-west-1b"]`, zones.String())
	})

	t.Run("should report a missing block or attribute", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := extract(mainTF, "module.rds.version")

		// then
		assert.Equal(t, entities.ExtractionPathNotFound, kindOf(t, err))
	})

	t.Run("should refuse expressions that need evaluation context", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := extract(mainTF, "locals.region")

		// then
		assert.Equal(t, entities.ExtractionParseError, kindOf(t, err))
	})

	t.Run("should report invalid HCL as a parse error", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := extract("terraform {", "terraform.required_version")

		// then
		assert.Equal(t, entities.ExtractionParseError, kindOf(t, err))
	})

	t.Run("should report a path that stops at a block", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := extract(mainTF, "module.vpc")

		// then
		assert.Equal(t, entities.ExtractionPathNotFound, kindOf(t, err))
	})
}
