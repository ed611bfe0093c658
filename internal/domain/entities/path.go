package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// SplitPath breaks a dot-and-index expression such as "a.b.2.c" into segments.
func SplitPath(expression string) ([]string, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, NewExtractionError(ExtractionBadConfig, "path expression is empty")
	}
	segments := strings.Split(expression, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, NewExtractionError(ExtractionBadConfig, "path %q has an empty segment", expression)
		}
	}
	return segments, nil
}

// NavigatePath walks a decoded document (maps, slices and scalars) along a
// dot-and-index path. Missing mapping keys fall back to a case-insensitive match.
func NavigatePath(root any, expression string) (any, error) {
	segments, err := SplitPath(expression)
	if err != nil {
		return nil, err
	}

	current := root
	for i, segment := range segments {
		walked := strings.Join(segments[:i+1], ".")
		switch node := current.(type) {
		case map[string]any:
			key, found := lookupKey(keysOf(node), segment)
			if !found {
				return nil, NewExtractionError(ExtractionPathNotFound, "key %q not found at %q", segment, walked)
			}
			current = node[key]
		case map[any]any:
			keys := make(map[string]any, len(node))
			for k, v := range node {
				keys[fmt.Sprint(k)] = v
			}
			key, found := lookupKey(keysOf(keys), segment)
			if !found {
				return nil, NewExtractionError(ExtractionPathNotFound, "key %q not found at %q", segment, walked)
			}
			current = keys[key]
		case []any:
			index, convErr := strconv.Atoi(segment)
			if convErr != nil {
				return nil, NewExtractionError(ExtractionBadConfig,
					"segment %q at %q must be an integer index into a list", segment, walked)
			}
			if index < 0 || index >= len(node) {
				return nil, NewExtractionError(ExtractionPathNotFound,
					"index %d out of range at %q (length %d)", index, walked, len(node))
			}
			current = node[index]
		case []map[string]any:
			items := make([]any, len(node))
			for j := range node {
				items[j] = node[j]
			}
			current = items
			return NavigatePath(current, strings.Join(segments[i:], "."))
		default:
			return nil, NewExtractionError(ExtractionPathNotFound,
				"cannot descend into %q at %q: not a mapping or list", segment, walked)
		}
	}

	return current, nil
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lookupKey prefers an exact match and otherwise the first case-folded match in sorted order.
func lookupKey(keys []string, segment string) (string, bool) {
	for _, key := range keys {
		if key == segment {
			return key, true
		}
	}
	folder := cases.Fold()
	want := folder.String(segment)
	for _, key := range keys {
		if folder.String(key) == want {
			return key, true
		}
	}
	return "", false
}

// LookupFold exposes the exact-then-case-folded key lookup to other navigators.
func LookupFold(keys []string, segment string) (string, bool) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return lookupKey(sorted, segment)
}

// FormatValue renders a decoded scalar or container as placeholder text.
// Containers render as compact JSON.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// ResolveCandidates evaluates candidate paths in order and returns the first
// non-null value. When no candidate yields a value the result is null, unless
// every candidate failed, in which case the failures are joined into one error.
func ResolveCandidates(
	paths []string,
	resolve func(path string) (ExtractionResult, error),
) (ExtractionResult, error) {
	candidates := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.TrimSpace(path) != "" {
			candidates = append(candidates, strings.TrimSpace(path))
		}
	}
	if len(candidates) == 0 {
		return NullResult(), NewExtractionError(ExtractionBadConfig, "path list is empty")
	}

	failures := make([]string, 0, len(candidates))
	kind := ExtractionPathNotFound
	for _, path := range candidates {
		result, err := resolve(path)
		if err != nil {
			var extractionErr *ExtractionError
			if len(failures) == 0 && errors.As(err, &extractionErr) {
				kind = extractionErr.Kind
			}
			failures = append(failures, fmt.Sprintf("Path '%s': %v", path, err))
			continue
		}
		if !result.IsNull() {
			return result, nil
		}
	}

	if len(failures) == len(candidates) {
		return NullResult(), NewExtractionError(kind, "all paths failed: %s", strings.Join(failures, "; "))
	}
	return NullResult(), nil
}
