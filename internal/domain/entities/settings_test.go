//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

const updateBatch = `
provider:
  type: github
  token: inline-token
repositories:
  - acme/api
  - acme/web
placeholders:
  - name: go_version
    file_path: go.mod
    method: gomod
    config:
      field: go
      part: major_minor
  - name: node
    file_path: package.json
    method: json_path
    config:
      jsonpath_expression: engines.node
  - name: image
    file_path: values.yaml
    method: yaml_path
    config:
      yaml_path: [image.tag, app.image.tag]
  - name: mystery
    file_path: x
    method: xpath
action:
  type: update_file
  file_path: .tool-versions
  update_mode: search_replace
  search: "golang \\S+"
  replace: "golang {{go_version}}"
  is_regex: true
  replace_all: false
  branch_name: chore/go-{{go_version}}
`

func TestParseSettings(t *testing.T) {
	t.Parallel()

	t.Run("should decode the provider, placeholders and the typed action", func(t *testing.T) {
		t.Parallel()

		// when
		settings, err := entities.ParseSettings([]byte(updateBatch))

		// then
		require.NoError(t, err)
		assert.Equal(t, "inline-token", settings.Provider.Token)
		assert.Equal(t, []string{"acme/api", "acme/web"}, settings.Repositories)
		require.Len(t, settings.Placeholders, 4)
		assert.Equal(t, entities.GoModConfig{Field: "go", Part: "major_minor"}, settings.Placeholders[0].Config)
		assert.Equal(t, entities.JSONPathConfig{Expression: "engines.node"}, settings.Placeholders[1].Config)
		assert.Equal(t,
			entities.YAMLPathConfig{Paths: entities.PathList{"image.tag", "app.image.tag"}},
			settings.Placeholders[2].Config)
		assert.Nil(t, settings.Placeholders[3].Config)
		require.Error(t, settings.Placeholders[3].Validate())

		require.Equal(t, entities.ActionUpdateFile, settings.Action.Type)
		update := settings.Action.Update
		require.NotNil(t, update)
		assert.Equal(t, entities.UpdateModeSearchReplace, update.Mode)
		assert.True(t, update.IsRegex)
		assert.False(t, update.ReplaceAllOccurrences())
		assert.Equal(t, "chore/go-{{go_version}}", update.BranchName)
		assert.Equal(t, entities.UnchangedSkip, update.UnchangedPolicy())
		assert.Nil(t, settings.Action.Remove)
	})

	t.Run("should accept a single yaml path as a one element list", func(t *testing.T) {
		t.Parallel()

		// given
		data := `
provider: {type: gitlab, token: t}
discover: {owner: group/sub}
placeholders:
  - {name: tag, file_path: values.yaml, method: yaml_path, config: {yaml_path: image.tag}}
action: {type: remove_file, file_path: old.txt}
`

		// when
		settings, err := entities.ParseSettings([]byte(data))

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.YAMLPathConfig{Paths: entities.PathList{"image.tag"}}, settings.Placeholders[0].Config)
		assert.Equal(t, "group/sub", settings.Discover.Owner)
		assert.Equal(t, "old.txt", settings.Action.Remove.FilePath)
	})

	t.Run("should reject a document that fails the schema", func(t *testing.T) {
		t.Parallel()

		// given
		data := `
provider: {type: bitbucket, token: t}
repositories: [acme/api]
action: {type: remove_file, file_path: x}
`

		// when
		_, err := entities.ParseSettings([]byte(data))

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("should require the organization for azure devops", func(t *testing.T) {
		t.Parallel()

		// given
		data := `
provider: {type: azuredevops, token: t}
repositories: [platform/api]
action: {type: remove_file, file_path: x}
`

		// when
		_, err := entities.ParseSettings([]byte(data))

		// then
		var configErr *entities.ConfigError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "provider.base_url", configErr.Field)
	})

	t.Run("should require repositories or discover", func(t *testing.T) {
		t.Parallel()

		// given
		data := "provider: {type: github, token: t}\naction: {type: add_file, file_path: x}\n"

		// when
		_, err := entities.ParseSettings([]byte(data))

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
	})

	t.Run("should require a search string in search_replace mode", func(t *testing.T) {
		t.Parallel()

		// given
		data := `
provider: {type: github, token: t}
repositories: [acme/api]
action: {type: update_file, file_path: a, update_mode: search_replace}
`

		// when
		_, err := entities.ParseSettings([]byte(data))

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "action.search")
	})

	t.Run("should default the update mode to replace", func(t *testing.T) {
		t.Parallel()

		// given
		data := `
provider: {type: github, token: t}
repositories: [acme/api]
action: {type: update_file, file_path: a, file_content: b}
`

		// when
		settings, err := entities.ParseSettings([]byte(data))

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.UpdateModeReplace, settings.Action.Update.Mode)
	})

	t.Run("should reject an empty document", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.ParseSettings([]byte("   \n"))

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
	})
}

func TestParseSettingsToken(t *testing.T) {
	t.Run("should expand an environment variable reference", func(t *testing.T) {
		// given
		t.Setenv("REPOPATCH_TEST_TOKEN", "from-env")
		data := "provider: {type: github, token: '${REPOPATCH_TEST_TOKEN}'}\n" +
			"repositories: [acme/api]\naction: {type: remove_file, file_path: x}\n"

		// when
		settings, err := entities.ParseSettings([]byte(data))

		// then
		require.NoError(t, err)
		assert.Equal(t, "from-env", settings.Provider.Token)
	})

	t.Run("should read the token from a file path", func(t *testing.T) {
		// given
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("from-file\n"), 0o600))
		data := "provider: {type: gitlab, token: '" + tokenFile + "'}\n" +
			"repositories: [acme/api]\naction: {type: remove_file, file_path: x}\n"

		// when
		settings, err := entities.ParseSettings([]byte(data))

		// then
		require.NoError(t, err)
		assert.Equal(t, "from-file", settings.Provider.Token)
	})

	t.Run("should fall back to the well-known provider variable", func(t *testing.T) {
		// given
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "gh-cli-token")
		data := "provider: {type: github}\nrepositories: [acme/api]\naction: {type: remove_file, file_path: x}\n"

		// when
		settings, err := entities.ParseSettings([]byte(data))

		// then
		require.NoError(t, err)
		assert.Equal(t, "gh-cli-token", settings.Provider.Token)
	})

	t.Run("should fail with a hint when no token is found", func(t *testing.T) {
		// given
		t.Setenv("GITLAB_TOKEN", "")
		t.Setenv("GL_TOKEN", "")
		data := "provider: {type: gitlab}\nrepositories: [acme/api]\naction: {type: remove_file, file_path: x}\n"

		// when
		_, err := entities.ParseSettings([]byte(data))

		// then
		require.ErrorIs(t, err, entities.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "GITLAB_TOKEN or GL_TOKEN")
	})
}

func TestNewSettings(t *testing.T) {
	t.Parallel()

	t.Run("should wrap errors with the file path", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "batch.yaml")
		require.NoError(t, os.WriteFile(path, []byte("provider: {type: github}\n"), 0o600))

		// when
		_, err := entities.NewSettings(path)

		// then
		var configErr *entities.ConfigError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, path, configErr.Field)
	})

	t.Run("should fail when the file does not exist", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.NewSettings(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestActionParams(t *testing.T) {
	t.Parallel()

	t.Run("should apply default templates for a remove action", func(t *testing.T) {
		t.Parallel()

		// when
		params := entities.RemoveFileConfig{FilePath: "a.txt"}.Params()

		// then
		assert.Equal(t, "a.txt", params.Value(entities.ParamFilePath))
		assert.Equal(t, "remove-file-{{timestamp}}", params.Value(entities.ParamBranchName))
		assert.Equal(t, "Remove {{file_path}}", params.Value(entities.ParamCommitMessage))
	})

	t.Run("should switch to discovery parameters in multi-file mode", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := entities.UpdateFileConfig{FilenameFilter: "*.tf"}

		// when
		params := cfg.Params()

		// then
		assert.True(t, cfg.MultiFile())
		assert.Equal(t, "update-files", cfg.ActionName())
		_, hasFilePath := params.Get(entities.ParamFilePath)
		assert.False(t, hasFilePath)
		assert.Equal(t, "*.tf", params.Value(entities.ParamFilenameFilter))
		assert.Contains(t, params.Value(entities.ParamPRBody), "{{changed_files}}")
	})

	t.Run("should keep explicit templates over defaults", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := entities.AddFileConfig{
			FilePath:            "x",
			PullRequestTemplate: entities.PullRequestTemplate{PRTitle: "Custom"},
		}

		// when
		params := cfg.Params()

		// then
		assert.Equal(t, "Custom", params.Value(entities.ParamPRTitle))
		assert.Equal(t, "Add {{file_path}}", params.Value(entities.ParamCommitMessage))
	})

	t.Run("should set and clone independently", func(t *testing.T) {
		t.Parallel()

		// given
		params := entities.ActionParams{{Key: "a", Value: "1"}}
		clone := params.Clone()

		// when
		clone.Set("a", "2")
		clone.Set("b", "3")

		// then
		assert.Equal(t, "1", params.Value("a"))
		assert.Equal(t, entities.ActionParams{{Key: "a", Value: "2"}, {Key: "b", Value: "3"}}, clone)
	})
}
