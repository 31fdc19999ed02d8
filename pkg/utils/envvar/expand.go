// Package envvar expands ${VAR_NAME} placeholders in configuration values.
// The config manager applies it to every string loaded from vaultlab.yaml,
// so tokens and URLs can reference the environment instead of being written
// into the file.
package envvar

import (
	"os"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Expand replaces each ${VAR_NAME} placeholder with the value of that
// environment variable. Unset variables expand to the empty string.
func Expand(value string) string {
	if value == "" {
		return value
	}

	return placeholderPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}
