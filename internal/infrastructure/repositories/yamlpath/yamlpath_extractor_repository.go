package yamlpath

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

const nullTag = "!!null"

// YAMLPathExtractorRepository navigates YAML documents, trying candidate paths in order.
type YAMLPathExtractorRepository struct{}

// NewYAMLPathExtractorRepository creates a new YAML path extractor.
func NewYAMLPathExtractorRepository() repositories.ExtractorRepository {
	return &YAMLPathExtractorRepository{}
}

func (it *YAMLPathExtractorRepository) Method() entities.ExtractionMethod {
	return entities.MethodYAMLPath
}

// Extract returns the first candidate path that resolves to a non-null value.
// Scalars keep their source text, so "1.10" stays "1.10".
func (it *YAMLPathExtractorRepository) Extract(
	content string,
	cfg entities.ExtractionConfig,
) (entities.ExtractionResult, error) {
	config, ok := cfg.(entities.YAMLPathConfig)
	if !ok {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "expected yaml_path config, got %T", cfg)
	}
	if len(config.Paths) == 0 {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "yaml_path is required")
	}

	var document yaml.Node
	if err := yaml.Unmarshal([]byte(content), &document); err != nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "failed to parse YAML: %v", err)
	}

	root := rootOf(&document)
	if root == nil || (root.Kind != yaml.MappingNode && root.Kind != yaml.SequenceNode) {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "YAML root is not a mapping or sequence")
	}

	return entities.ResolveCandidates(config.Paths, func(path string) (entities.ExtractionResult, error) {
		node, err := navigate(root, path)
		if err != nil {
			return entities.NullResult(), err
		}
		return render(node)
	})
}

func rootOf(document *yaml.Node) *yaml.Node {
	if document.Kind == yaml.DocumentNode {
		if len(document.Content) == 0 {
			return nil
		}
		return resolveAlias(document.Content[0])
	}
	return resolveAlias(document)
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func navigate(root *yaml.Node, expression string) (*yaml.Node, error) {
	segments, err := entities.SplitPath(expression)
	if err != nil {
		return nil, err
	}

	current := root
	for i, segment := range segments {
		walked := strings.Join(segments[:i+1], ".")
		switch current.Kind {
		case yaml.MappingNode:
			values := make(map[string]*yaml.Node, len(current.Content)/2)
			keys := make([]string, 0, len(current.Content)/2)
			for j := 0; j+1 < len(current.Content); j += 2 {
				key := current.Content[j].Value
				if _, seen := values[key]; !seen {
					keys = append(keys, key)
				}
				values[key] = current.Content[j+1]
			}
			key, found := entities.LookupFold(keys, segment)
			if !found {
				return nil, entities.NewExtractionError(entities.ExtractionPathNotFound,
					"key %q not found at %q", segment, walked)
			}
			current = resolveAlias(values[key])
		case yaml.SequenceNode:
			index, convErr := strconv.Atoi(segment)
			if convErr != nil {
				return nil, entities.NewExtractionError(entities.ExtractionBadConfig,
					"segment %q at %q must be an integer index into a list", segment, walked)
			}
			if index < 0 || index >= len(current.Content) {
				return nil, entities.NewExtractionError(entities.ExtractionPathNotFound,
					"index %d out of range at %q (length %d)", index, walked, len(current.Content))
			}
			current = resolveAlias(current.Content[index])
		default:
			return nil, entities.NewExtractionError(entities.ExtractionPathNotFound,
				"cannot descend into %q at %q: not a mapping or list", segment, walked)
		}
	}
	return current, nil
}

func render(node *yaml.Node) (entities.ExtractionResult, error) {
	if node.Kind == yaml.ScalarNode {
		if node.Tag == nullTag {
			return entities.NullResult(), nil
		}
		return entities.ValueResult(node.Value), nil
	}

	var decoded any
	if err := node.Decode(&decoded); err != nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "failed to decode YAML node: %v", err)
	}
	return entities.ValueResult(entities.FormatValue(decoded)), nil
}
