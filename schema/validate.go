package schema

import (
	"regexp"
	"strings"
)

var validNameRegex = regexp.MustCompile(`^[^\x00-\x1f]+$`)

// IsValidColumnName checks if a column name can be carried through every output format.
func IsValidColumnName(name string) bool {
	// Check for empty name
	if len(strings.TrimSpace(name)) == 0 {
		return false
	}
	// control characters cannot be represented in a csv header or sqlite identifier
	if !validNameRegex.MatchString(name) {
		return false
	}
	// Ensure the name isn't too long
	return len(name) <= 255
}

// IsValidColumnType checks if a column type is one of the supported column types.
func IsValidColumnType(columnType string) bool {
	_, isValid := validColumnTypes[columnType]
	return isValid
}
