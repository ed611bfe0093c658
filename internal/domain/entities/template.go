package entities

import (
	"regexp"

	logger "github.com/sirupsen/logrus"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^}\s]+)\s*\}\}`)

// Substitute replaces every {{ name }} token whose name is present in values.
// Unknown tokens are kept verbatim and substituted values are never re-scanned.
func Substitute(text string, values PlaceholderMap) (out string) {
	if text == "" || len(values) == 0 {
		return text
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("placeholder substitution failed, keeping original text: %v", r)
			out = text
		}
	}()

	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := tokenPattern.FindStringSubmatch(token)[1]
		if value, ok := values[name]; ok {
			return value
		}
		return token
	})
}

// Tokens lists the placeholder names referenced by text, in order of appearance.
func Tokens(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, match[1])
	}
	return names
}
