package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register command constructors
	constructors := []any{
		NewPlaceholderResolver,
		NewTargetLocator,
		NewRemoveFileCommand,
		NewUpdateFileCommand,
		NewAddFileCommand,
		NewRunCommand,
		NewListRepositoriesCommand,
		NewTestPlaceholdersCommand,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *RemoveFileCommand) RemoveFile {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *UpdateFileCommand) UpdateFile {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *AddFileCommand) AddFile {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *RunCommand) Run {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *ListRepositoriesCommand) ListRepositories {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *TestPlaceholdersCommand) TestPlaceholders {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
