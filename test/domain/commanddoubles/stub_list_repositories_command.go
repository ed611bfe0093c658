//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/repopatch/internal/domain/commands"
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// StubListRepositoriesCommand is a stub implementation of commands.ListRepositories.
type StubListRepositoriesCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Repositories     []entities.Repository
	LastOpts         commands.ListOptions
}

var _ commands.ListRepositories = (*StubListRepositoriesCommand)(nil)

func (s *StubListRepositoriesCommand) Execute(
	_ context.Context,
	opts commands.ListOptions,
) ([]entities.Repository, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.Repositories, s.ExecuteErr
}

// StubTestPlaceholdersCommand is a stub implementation of commands.TestPlaceholders.
type StubTestPlaceholdersCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Reports          []commands.PlaceholderReport
	LastRepo         string
	LastSettings     *entities.Settings
}

var _ commands.TestPlaceholders = (*StubTestPlaceholdersCommand)(nil)

func (s *StubTestPlaceholdersCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	repoFullName string,
) ([]commands.PlaceholderReport, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastRepo = repoFullName
	return s.Reports, s.ExecuteErr
}
