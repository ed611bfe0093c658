package hclpath

import (
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// HCLPathExtractorRepository reads attribute values out of HCL files such as
// Terraform modules. Paths name block types, their labels and finally the
// attribute: "module.vpc.version", "terraform.required_version".
type HCLPathExtractorRepository struct{}

// NewHCLPathExtractorRepository creates a new HCL path extractor.
func NewHCLPathExtractorRepository() repositories.ExtractorRepository {
	return &HCLPathExtractorRepository{}
}

func (it *HCLPathExtractorRepository) Method() entities.ExtractionMethod {
	return entities.MethodHCLPath
}

func (it *HCLPathExtractorRepository) Extract(
	content string,
	cfg entities.ExtractionConfig,
) (entities.ExtractionResult, error) {
	config, ok := cfg.(entities.HCLPathConfig)
	if !ok {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionBadConfig, "expected hcl_path config, got %T", cfg)
	}
	segments, err := entities.SplitPath(config.Expression)
	if err != nil {
		return entities.NullResult(), err
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(content), "placeholder.hcl")
	if diags.HasErrors() {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "failed to parse HCL: %s", diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "unsupported HCL body")
	}

	value, rest, err := findAttribute(body, segments)
	if err != nil {
		return entities.NullResult(), err
	}
	for _, segment := range rest {
		value, err = descend(value, segment)
		if err != nil {
			return entities.NullResult(), err
		}
	}
	return render(value)
}

// findAttribute walks blocks until an attribute is reached and returns its
// value with the segments that remain to be applied to it.
func findAttribute(body *hclsyntax.Body, segments []string) (cty.Value, []string, error) {
	if len(segments) == 0 {
		return cty.NilVal, nil, entities.NewExtractionError(
			entities.ExtractionPathNotFound, "path ends at a block, not an attribute")
	}

	head := segments[0]
	if attr, ok := body.Attributes[head]; ok {
		value, diags := attr.Expr.Value(&hcl.EvalContext{})
		if diags.HasErrors() {
			return cty.NilVal, nil, entities.NewExtractionError(
				entities.ExtractionParseError, "attribute %q cannot be evaluated statically: %s", head, diags.Error())
		}
		return value, segments[1:], nil
	}

	for _, block := range body.Blocks {
		if block.Type != head || len(segments)-1 < len(block.Labels) {
			continue
		}
		if !labelsMatch(block.Labels, segments[1:1+len(block.Labels)]) {
			continue
		}
		return findAttribute(block.Body, segments[1+len(block.Labels):])
	}

	return cty.NilVal, nil, entities.NewExtractionError(
		entities.ExtractionPathNotFound, "no attribute or block %q", strings.Join(segments, "."))
}

func labelsMatch(labels, segments []string) bool {
	for i, label := range labels {
		if label != segments[i] {
			return false
		}
	}
	return true
}

func descend(value cty.Value, segment string) (cty.Value, error) {
	if value.IsNull() || !value.IsKnown() {
		return cty.NilVal, entities.NewExtractionError(
			entities.ExtractionPathNotFound, "cannot descend into %q: value is null", segment)
	}

	valueType := value.Type()
	switch {
	case valueType.IsObjectType():
		if !valueType.HasAttribute(segment) {
			return cty.NilVal, entities.NewExtractionError(
				entities.ExtractionPathNotFound, "key %q not found", segment)
		}
		return value.GetAttr(segment), nil
	case valueType.IsMapType():
		key := cty.StringVal(segment)
		if !value.HasIndex(key).True() {
			return cty.NilVal, entities.NewExtractionError(
				entities.ExtractionPathNotFound, "key %q not found", segment)
		}
		return value.Index(key), nil
	case valueType.IsTupleType(), valueType.IsListType():
		index, err := strconv.Atoi(segment)
		if err != nil {
			return cty.NilVal, entities.NewExtractionError(
				entities.ExtractionBadConfig, "segment %q must be an integer index into a list", segment)
		}
		if index < 0 || index >= value.LengthInt() {
			return cty.NilVal, entities.NewExtractionError(
				entities.ExtractionPathNotFound, "index %d out of range (length %d)", index, value.LengthInt())
		}
		return value.Index(cty.NumberIntVal(int64(index))), nil
	default:
		return cty.NilVal, entities.NewExtractionError(
			entities.ExtractionPathNotFound, "cannot descend into %q: not an object or list", segment)
	}
}

func render(value cty.Value) (entities.ExtractionResult, error) {
	if value.IsNull() {
		return entities.NullResult(), nil
	}
	if value.Type().IsPrimitiveType() {
		converted, err := convert.Convert(value, cty.String)
		if err != nil {
			return entities.NullResult(), entities.NewExtractionError(
				entities.ExtractionParseError, "failed to convert value: %v", err)
		}
		return entities.ValueResult(converted.AsString()), nil
	}

	data, err := ctyjson.Marshal(value, value.Type())
	if err != nil {
		return entities.NullResult(), entities.NewExtractionError(
			entities.ExtractionParseError, "failed to render value: %v", err)
	}
	return entities.ValueResult(string(data)), nil
}
