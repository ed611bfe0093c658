//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// RepositoryBuilder helps create test repositories with a fluent interface.
type RepositoryBuilder struct {
	*testkit.BaseBuilder
	owner         string
	name          string
	defaultBranch string
	provider      string
	private       bool
	archived      bool
	fork          bool
}

// NewRepositoryBuilder creates a new repository builder with sensible defaults.
func NewRepositoryBuilder() *RepositoryBuilder {
	return &RepositoryBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		owner:         "acme",
		name:          "service",
		defaultBranch: "main",
		provider:      "spy",
	}
}

// WithOwner sets the repository owner.
func (b *RepositoryBuilder) WithOwner(owner string) *RepositoryBuilder {
	b.owner = owner
	return b
}

// WithName sets the repository name.
func (b *RepositoryBuilder) WithName(name string) *RepositoryBuilder {
	b.name = name
	return b
}

// WithDefaultBranch sets the default branch.
func (b *RepositoryBuilder) WithDefaultBranch(branch string) *RepositoryBuilder {
	b.defaultBranch = branch
	return b
}

// WithProvider sets the provider name.
func (b *RepositoryBuilder) WithProvider(provider string) *RepositoryBuilder {
	b.provider = provider
	return b
}

// WithPrivate marks the repository as private.
func (b *RepositoryBuilder) WithPrivate(private bool) *RepositoryBuilder {
	b.private = private
	return b
}

// WithArchived marks the repository as archived.
func (b *RepositoryBuilder) WithArchived(archived bool) *RepositoryBuilder {
	b.archived = archived
	return b
}

// WithFork marks the repository as a fork.
func (b *RepositoryBuilder) WithFork(fork bool) *RepositoryBuilder {
	b.fork = fork
	return b
}

// Build creates the repository (satisfies testkit.Builder interface).
func (b *RepositoryBuilder) Build() interface{} {
	return b.BuildRepository()
}

// BuildRepository creates the repository with a concrete return type.
func (b *RepositoryBuilder) BuildRepository() entities.Repository {
	fullName := b.owner + "/" + b.name
	return entities.Repository{
		Name:          b.name,
		FullName:      fullName,
		HTMLURL:       "https://host.test/" + fullName,
		DefaultBranch: b.defaultBranch,
		Owner:         b.owner,
		ProviderName:  b.provider,
		Private:       b.private,
		Archived:      b.archived,
		Fork:          b.fork,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *RepositoryBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.owner = "acme"
	b.name = "service"
	b.defaultBranch = "main"
	b.provider = "spy"
	b.private = false
	b.archived = false
	b.fork = false
	return b
}

// Clone creates a deep copy of the RepositoryBuilder.
func (b *RepositoryBuilder) Clone() testkit.Builder {
	return &RepositoryBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		owner:         b.owner,
		name:          b.name,
		defaultBranch: b.defaultBranch,
		provider:      b.provider,
		private:       b.private,
		archived:      b.archived,
		fork:          b.fork,
	}
}
