package util

import (
	"errors"
	"strings"
)

// ErrUnsafeKey indicates a caller-supplied property key that cannot be used
// as a graph property or query parameter name.
var ErrUnsafeKey = errors.New("unsafe property key")

// SanitizePropertyKey normalizes a caller-supplied custom field key so it is
// safe to embed as a node property and parameter name. Spaces and hyphens
// become underscores; any other character outside [a-zA-Z0-9_] rejects the
// key outright. Keys must not start with a digit.
func SanitizePropertyKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if key == "" {
		return "", ErrUnsafeKey
	}
	for i, r := range key {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return "", ErrUnsafeKey
			}
		default:
			return "", ErrUnsafeKey
		}
	}
	return key, nil
}

// SanitizeInput trims surrounding whitespace from free-text fields.
func SanitizeInput(s string) string {
	return strings.TrimSpace(s)
}
