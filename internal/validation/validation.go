// Package validation checks request bodies at the API boundary. Every
// function returns an *apperrors.ValidationError naming each offending field.
package validation

import (
	"regexp"
	"strings"
)

var sourceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// ValidSourceName reports whether name is usable as a source name. Names
// prefix imported transaction ids, so they are restricted to lower-case
// letters, digits, '-' and '_'.
func ValidSourceName(name string) bool {
	return sourceNamePattern.MatchString(name)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
