package repositories

import (
	"go.uber.org/dig"

	domainRepos "github.com/rios0rios0/repopatch/internal/domain/repositories"
	adoRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/azuredevops"
	celRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/cel"
	ghRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/github"
	glRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/gitlab"
	goModRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/gomod"
	hclRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/hclpath"
	jsonRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/jsonpath"
	patternRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/pattern"
	tomlRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/tomlpath"
	yamlRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/yamlpath"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register host registry with all provider factories
	if err := container.Provide(func() *HostRegistry {
		reg := NewHostRegistry()
		reg.Register("github", ghRepo.NewGitHubHostRepository)
		reg.Register("gitlab", glRepo.NewGitLabHostRepository)
		reg.Register("azuredevops", adoRepo.NewAzureDevOpsHostRepository)
		return reg
	}); err != nil {
		return err
	}

	// Register extractor registry with all extraction strategies
	if err := container.Provide(func() *ExtractorRegistry {
		reg := NewExtractorRegistry()
		reg.Register(patternRepo.NewPatternExtractorRepository())
		reg.Register(jsonRepo.NewJSONPathExtractorRepository())
		reg.Register(yamlRepo.NewYAMLPathExtractorRepository())
		reg.Register(tomlRepo.NewTOMLPathExtractorRepository())
		reg.Register(hclRepo.NewHCLPathExtractorRepository())
		reg.Register(goModRepo.NewGoModExtractorRepository())
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func() (domainRepos.RepositoryMatcherFactory, error) {
		return celRepo.NewCELRepositoryMatcherFactory()
	}); err != nil {
		return err
	}

	return nil
}
