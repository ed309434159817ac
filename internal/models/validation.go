package models

import (
	"fmt"
	"strings"
)

// ValidationErrors collects field level validation messages.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

func invalidEnum[T ~string](field, value string, allowed []T) string {
	return fmt.Sprintf("Invalid %s %q. Must be one of: %s", field, value, AllowedValues(allowed))
}

// AllowedValues renders an enumeration as a comma separated list.
func AllowedValues[T ~string](allowed []T) string {
	parts := make([]string, len(allowed))
	for i, a := range allowed {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
