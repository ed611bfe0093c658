package entities

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed settings.schema.json
var settingsSchema string

// Settings is the batch file: which host, which repositories, which
// placeholders and which action to run.
type Settings struct {
	Provider     ProviderConfig          `yaml:"provider"`
	Repositories []string                `yaml:"repositories"`
	Discover     *DiscoverConfig         `yaml:"discover"`
	Placeholders []PlaceholderDefinition `yaml:"placeholders"`
	Action       ActionSettings          `yaml:"action"`
}

// ProviderConfig describes the Git hosting provider.
type ProviderConfig struct {
	Type    string `yaml:"type"`     // "github", "gitlab", "azuredevops"
	Token   string `yaml:"token"`    // Inline, ${ENV_VAR}, or file path
	BaseURL string `yaml:"base_url"` // Enterprise or self-managed instance
}

// DiscoverConfig lists repositories of an owner instead of naming them.
type DiscoverConfig struct {
	Owner  string `yaml:"owner"`
	Search string `yaml:"search"` // case-insensitive substring of the repository name
	Filter string `yaml:"filter"` // CEL expression over `repo`
	Limit  int    `yaml:"limit"`
}

// ActionSettings holds exactly one action config, selected by Type.
type ActionSettings struct {
	Type   ActionType
	Remove *RemoveFileConfig
	Update *UpdateFileConfig
	Add    *AddFileConfig
}

func (a *ActionSettings) UnmarshalYAML(value *yaml.Node) error {
	var header struct {
		Type ActionType `yaml:"type"`
	}
	if err := value.Decode(&header); err != nil {
		return err
	}

	a.Type = header.Type
	switch header.Type {
	case ActionRemoveFile:
		a.Remove = &RemoveFileConfig{}
		return value.Decode(a.Remove)
	case ActionUpdateFile:
		a.Update = &UpdateFileConfig{}
		return value.Decode(a.Update)
	case ActionAddFile:
		a.Add = &AddFileConfig{}
		return value.Decode(a.Add)
	default:
		return NewConfigError("action.type", "unknown action %q", header.Type)
	}
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads, validates and resolves a batch file.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	settings, err := ParseSettings(data)
	if err != nil {
		return nil, &ConfigError{Field: path, Err: err}
	}
	return settings, nil
}

// ParseSettings validates the document against the embedded schema, decodes
// it and resolves the provider token.
func ParseSettings(data []byte) (*Settings, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings.Provider.Token = ResolveToken(settings.Provider.Token)
	if settings.Provider.Token == "" {
		settings.Provider.Token = TokenFromEnv(settings.Provider.Type)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func validateSchema(data []byte) error {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if document == nil {
		return NewConfigError("", "config file is empty")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(settingsSchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}
		return NewConfigError("", "schema validation failed: %s", strings.Join(details, "; "))
	}
	return nil
}

// Validate checks the semantic rules the schema cannot express.
func (s *Settings) Validate() error {
	if s.Provider.Token == "" {
		return NewConfigError("provider.token",
			"token is required (set inline, via ${ENV_VAR}, as a file path or through %s)",
			TokenEnvHint(s.Provider.Type))
	}
	if s.Provider.Type == "azuredevops" && s.Provider.BaseURL == "" {
		return NewConfigError("provider.base_url", "azuredevops requires the organization URL or name")
	}
	if len(s.Repositories) == 0 && s.Discover == nil {
		return NewConfigError("repositories", "list repositories or configure discover")
	}

	switch s.Action.Type {
	case ActionRemoveFile:
		if s.Action.Remove == nil || s.Action.Remove.FilePath == "" {
			return NewConfigError("action.file_path", "remove_file requires file_path")
		}
	case ActionAddFile:
		if s.Action.Add == nil || s.Action.Add.FilePath == "" {
			return NewConfigError("action.file_path", "add_file requires file_path")
		}
	case ActionUpdateFile:
		cfg := s.Action.Update
		if cfg == nil {
			return NewConfigError("action", "update_file config is missing")
		}
		if cfg.Mode == "" {
			cfg.Mode = UpdateModeReplace
		}
		if cfg.Mode == UpdateModeSearchReplace && cfg.Search == "" {
			return NewConfigError("action.search", "search_replace requires a search string")
		}
		if cfg.ForceUpdate && cfg.Mode != UpdateModeSearchReplace {
			logger.Warn("force_update only applies to search_replace mode and will be ignored")
		}
	default:
		return NewConfigError("action.type", "unknown action %q", s.Action.Type)
	}
	return nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{".", ".config", "configs"}
	if homeDir != "" {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		".repopatch.yaml",
		".repopatch.yml",
		"repopatch.yaml",
		"repopatch.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// ResolveToken expands ${VAR} references and, if the result is a path to an
// existing file, reads the token from that file.
func ResolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// TokenFromEnv returns the first non-empty well-known token variable for the provider.
func TokenFromEnv(providerType string) string {
	for _, name := range tokenEnvVars(providerType) {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

// TokenEnvHint names the environment variables consulted for the provider.
func TokenEnvHint(providerType string) string {
	names := tokenEnvVars(providerType)
	if len(names) == 0 {
		return "an environment variable"
	}
	return strings.Join(names, " or ")
}

func tokenEnvVars(providerType string) []string {
	switch providerType {
	case "github":
		return []string{"GITHUB_TOKEN", "GH_TOKEN"}
	case "gitlab":
		return []string{"GITLAB_TOKEN", "GL_TOKEN"}
	case "azuredevops":
		return []string{"AZURE_DEVOPS_EXT_PAT", "AZURE_DEVOPS_TOKEN"}
	default:
		return nil
	}
}
