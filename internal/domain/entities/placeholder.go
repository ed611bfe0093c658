package entities

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ExtractionMethod names the strategy used to pull a placeholder value out of a file.
type ExtractionMethod string

const (
	MethodPattern  ExtractionMethod = "pattern"
	MethodJSONPath ExtractionMethod = "json_path"
	MethodYAMLPath ExtractionMethod = "yaml_path"
	MethodTOMLPath ExtractionMethod = "toml_path"
	MethodHCLPath  ExtractionMethod = "hcl_path"
	MethodGoMod    ExtractionMethod = "gomod"
)

// Reserved placeholder names. User definitions never override them.
const (
	KeyRepoName          = "repo_name"
	KeyRepoFullName      = "repo_full_name"
	KeyRepoDefaultBranch = "repo_default_branch"
	KeyTimestamp         = "timestamp"
	KeyFilePath          = "file_path"
	KeyChangedFiles      = "changed_files"
)

// TimestampLayout formats the batch timestamp placeholder.
const TimestampLayout = "20060102-150405"

// ExtractionConfig is the tagged union of per-method extraction settings.
type ExtractionConfig interface {
	Method() ExtractionMethod
}

// PatternConfig extracts a regular expression capture group.
// GroupIndex 0 selects the whole match.
type PatternConfig struct {
	Pattern    string `yaml:"pattern"`
	GroupIndex int    `yaml:"group_index"`
}

func (PatternConfig) Method() ExtractionMethod { return MethodPattern }

// JSONPathConfig navigates a JSON document with a dot-and-index path such as "a.b.2.c".
type JSONPathConfig struct {
	Expression string `yaml:"jsonpath_expression"`
}

func (JSONPathConfig) Method() ExtractionMethod { return MethodJSONPath }

// YAMLPathConfig holds ordered candidate paths; the first non-null value wins.
type YAMLPathConfig struct {
	Paths PathList `yaml:"yaml_path"`
}

func (YAMLPathConfig) Method() ExtractionMethod { return MethodYAMLPath }

// TOMLPathConfig behaves like YAMLPathConfig against TOML documents.
type TOMLPathConfig struct {
	Paths PathList `yaml:"toml_path"`
}

func (TOMLPathConfig) Method() ExtractionMethod { return MethodTOMLPath }

// HCLPathConfig resolves "block.label.attribute" against an HCL body.
type HCLPathConfig struct {
	Expression string `yaml:"hcl_path"`
}

func (HCLPathConfig) Method() ExtractionMethod { return MethodHCLPath }

// GoModConfig reads a field of a go.mod file: "module", "go", "toolchain" or
// "require:<module path>". Part optionally trims a semantic version to
// "major", "major_minor" or "canonical".
type GoModConfig struct {
	Field string `yaml:"field"`
	Part  string `yaml:"part"`
}

func (GoModConfig) Method() ExtractionMethod { return MethodGoMod }

// PathList decodes either a single string or a list of strings.
type PathList []string

func (p *PathList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*p = PathList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*p = list
		return nil
	default:
		return fmt.Errorf("expected a path or a list of paths at line %d", value.Line)
	}
}

// PlaceholderDefinition declares how to extract one named value from a repository file.
type PlaceholderDefinition struct {
	Name     string
	FilePath string
	Method   ExtractionMethod
	Config   ExtractionConfig
}

type placeholderDefinitionDocument struct {
	Name     string    `yaml:"name"`
	FilePath string    `yaml:"file_path"`
	Method   string    `yaml:"method"`
	Config   yaml.Node `yaml:"config"`
}

// UnmarshalYAML decodes the method-specific config into its typed variant.
// Unknown methods leave Config nil so the definition is reported as invalid
// at resolution time instead of failing the whole file.
func (d *PlaceholderDefinition) UnmarshalYAML(value *yaml.Node) error {
	var doc placeholderDefinitionDocument
	if err := value.Decode(&doc); err != nil {
		return err
	}

	d.Name = doc.Name
	d.FilePath = doc.FilePath
	d.Method = ExtractionMethod(doc.Method)

	var cfg ExtractionConfig
	switch d.Method {
	case MethodPattern:
		cfg = &PatternConfig{}
	case MethodJSONPath:
		cfg = &JSONPathConfig{}
	case MethodYAMLPath:
		cfg = &YAMLPathConfig{}
	case MethodTOMLPath:
		cfg = &TOMLPathConfig{}
	case MethodHCLPath:
		cfg = &HCLPathConfig{}
	case MethodGoMod:
		cfg = &GoModConfig{}
	default:
		d.Config = nil
		return nil
	}

	if doc.Config.Kind != 0 {
		if err := doc.Config.Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode config of placeholder %q: %w", doc.Name, err)
		}
	}
	d.Config = derefConfig(cfg)
	return nil
}

func derefConfig(cfg ExtractionConfig) ExtractionConfig {
	switch c := cfg.(type) {
	case *PatternConfig:
		return *c
	case *JSONPathConfig:
		return *c
	case *YAMLPathConfig:
		return *c
	case *TOMLPathConfig:
		return *c
	case *HCLPathConfig:
		return *c
	case *GoModConfig:
		return *c
	default:
		return cfg
	}
}

// Validate reports whether the definition carries a name, a file path and a known method.
func (d PlaceholderDefinition) Validate() error {
	if d.Name == "" || d.FilePath == "" || d.Method == "" {
		return NewConfigError("placeholder", "name, file_path and method are required")
	}
	if d.Config == nil || d.Config.Method() != d.Method {
		return NewConfigError("placeholder", "unsupported extraction method %q", d.Method)
	}
	return nil
}

// PlaceholderMap maps placeholder names to their resolved text values.
type PlaceholderMap map[string]string

// NewBuiltinPlaceholders seeds a map with the reserved per-repository values.
func NewBuiltinPlaceholders(repo Repository, timestamp time.Time) PlaceholderMap {
	return PlaceholderMap{
		KeyRepoName:          repo.Name,
		KeyRepoFullName:      repo.FullName,
		KeyRepoDefaultBranch: repo.DefaultBranch,
		KeyTimestamp:         timestamp.Format(TimestampLayout),
	}
}

// Clone returns an independent copy of the map.
func (m PlaceholderMap) Clone() PlaceholderMap {
	out := make(PlaceholderMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsReservedKey reports whether name is owned by the engine.
func IsReservedKey(name string) bool {
	switch name {
	case KeyRepoName, KeyRepoFullName, KeyRepoDefaultBranch, KeyTimestamp, KeyFilePath, KeyChangedFiles:
		return true
	default:
		return false
	}
}
