// Package shared provides common utility functions used across multiple
// packages in the wheel-installer codebase.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

var pipNameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizePipName lowercases a Python package name and collapses runs of
// hyphens, underscores and dots into a single hyphen, following PEP 503
// normalization. Extra names use the same rules (PEP 685).
func NormalizePipName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	return pipNameSeparators.ReplaceAllString(lower, "-")
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}
