//go:build unit

package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repopatch/internal/domain/commands"
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

func TestRemoveFileCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should delete the file on a new branch and open a pull request", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo).
			WithFile(repo.FullName, "main", "docs/old.md", "# old\n").
			WithFile(repo.FullName, "main", "README.md", "# readme\n")
		cfg := entities.RemoveFileConfig{
			FilePath: "docs/old.md",
			PullRequestTemplate: entities.PullRequestTemplate{
				BranchName:    "cleanup",
				CommitMessage: "Remove {{file_path}}",
			},
		}
		cmd := commands.NewRemoveFileCommand(newResolver(), fixedClock)

		// when
		results := cmd.Execute(context.Background(), host, []entities.Repository{repo}, nil, cfg)

		// then
		require.Len(t, results, 1)
		result := results[0]
		assert.True(t, result.Success, result.Message)
		assert.Equal(t, "https://host.test/acme/service/pull/1", result.PRURL)
		assert.Equal(t, []string{"cleanup"}, host.CreatedBranches)
		require.Len(t, host.Deletions, 1)
		assert.Equal(t, entities.FileDeletion{
			Path:    "docs/old.md",
			Message: "Remove docs/old.md",
			Branch:  "cleanup",
			SHA:     entities.BlobHash("# old\n"),
		}, host.Deletions[0])
		require.Len(t, host.PRInputs, 1)
		assert.Equal(t, "cleanup", host.PRInputs[0].SourceBranch)
		assert.Equal(t, "main", host.PRInputs[0].TargetBranch)
		assert.Equal(t, "Remove docs/old.md", host.PRInputs[0].Title)
		_, stillOnMain := host.FileOn(repo.FullName, "main", "docs/old.md")
		assert.True(t, stillOnMain)
	})

	t.Run("should fail when the file path resolves to an empty string", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo)
		cfg := entities.RemoveFileConfig{FilePath: "  "}
		cmd := commands.NewRemoveFileCommand(newResolver(), fixedClock)

		// when
		results := cmd.Execute(context.Background(), host, []entities.Repository{repo}, nil, cfg)

		// then
		assert.False(t, results[0].Success)
		assert.Empty(t, host.CreatedBranches)
	})

	t.Run("should fail when the file does not exist on the working branch", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo)
		cfg := entities.RemoveFileConfig{FilePath: "docs/missing.md"}
		cmd := commands.NewRemoveFileCommand(newResolver(), fixedClock)

		// when
		results := cmd.Execute(context.Background(), host, []entities.Repository{repo}, nil, cfg)

		// then
		assert.False(t, results[0].Success)
		assert.Contains(t, results[0].Message, "does not exist")
		assert.Empty(t, host.Deletions)
		assert.Empty(t, host.PRInputs)
	})

	t.Run("should use the default branch template with the batch timestamp", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo).WithFile(repo.FullName, "main", "old.txt", "x")
		cmd := commands.NewRemoveFileCommand(newResolver(), fixedClock)

		// when
		results := cmd.Execute(context.Background(), host, []entities.Repository{repo}, nil,
			entities.RemoveFileConfig{FilePath: "old.txt"})

		// then
		assert.True(t, results[0].Success, results[0].Message)
		assert.Equal(t, []string{"remove-file-" + fixedTimestamp}, host.CreatedBranches)
	})

	t.Run("should fall back to a generated branch name when the template is blank", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo).WithFile(repo.FullName, "main", "old.txt", "x")
		cfg := entities.RemoveFileConfig{
			FilePath:            "old.txt",
			PullRequestTemplate: entities.PullRequestTemplate{BranchName: "  "},
		}
		cmd := commands.NewRemoveFileCommand(newResolver(), fixedClock)

		// when
		results := cmd.Execute(context.Background(), host, []entities.Repository{repo}, nil, cfg)

		// then
		assert.True(t, results[0].Success, results[0].Message)
		assert.Equal(t, []string{"remove-file-fallback-" + fixedTimestamp}, host.CreatedBranches)
		assert.Contains(t, results[0].Message, "- WARNING: Branch name is empty")
	})

	t.Run("should fail the repository when the pull request cannot be created", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepo("service")
		host := newHost(repo).WithFile(repo.FullName, "main", "old.txt", "x")
		host.CreatePRErr = &entities.HostAPIError{Op: "failed to create pull request", Status: 403, Message: "forbidden"}
		cmd := commands.NewRemoveFileCommand(newResolver(), fixedClock)

		// when
		results := cmd.Execute(context.Background(), host, []entities.Repository{repo}, nil,
			entities.RemoveFileConfig{FilePath: "old.txt"})

		// then
		assert.False(t, results[0].Success)
		assert.Contains(t, results[0].Message, "403 forbidden")
		assert.Len(t, host.Deletions, 1)
	})
}
