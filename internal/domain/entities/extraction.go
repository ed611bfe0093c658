package entities

import "fmt"

// ExtractionKind classifies why a placeholder value could not be extracted.
type ExtractionKind int

const (
	ExtractionBadConfig ExtractionKind = iota
	ExtractionNoMatch
	ExtractionParseError
	ExtractionPathNotFound
	ExtractionFileUnavailable
)

func (k ExtractionKind) String() string {
	switch k {
	case ExtractionBadConfig:
		return "bad config"
	case ExtractionNoMatch:
		return "no match"
	case ExtractionParseError:
		return "parse error"
	case ExtractionPathNotFound:
		return "path not found"
	case ExtractionFileUnavailable:
		return "file unavailable"
	default:
		return "unknown"
	}
}

// ExtractionError is the failure side of an extraction.
type ExtractionError struct {
	Kind    ExtractionKind
	Message string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewExtractionError builds an ExtractionError with a formatted message.
func NewExtractionError(kind ExtractionKind, format string, args ...any) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ExtractionResult holds an extracted value. A nil Value is a valid null extraction.
type ExtractionResult struct {
	Value *string
}

// ValueResult wraps a non-null extracted value.
func ValueResult(value string) ExtractionResult {
	return ExtractionResult{Value: &value}
}

// NullResult is a successful extraction that resolved to null.
func NullResult() ExtractionResult {
	return ExtractionResult{}
}

// IsNull reports whether the extraction resolved to null.
func (r ExtractionResult) IsNull() bool { return r.Value == nil }

// String returns the textual value, empty for null.
func (r ExtractionResult) String() string {
	if r.Value == nil {
		return ""
	}
	return *r.Value
}
