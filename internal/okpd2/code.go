// Package okpd2 discovers and selects OKPD2 classification codes.
package okpd2

import (
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}(\.\d{3})?$`)

// ValidCode reports whether code has the form NN.NN.NN or NN.NN.NN.NNN.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// CodeLevel infers the hierarchy depth of a code from its segments.
func CodeLevel(code string) int {
	parts := strings.Split(code, ".")
	switch {
	case len(parts) >= 4:
		return 4
	case len(parts) == 3 && parts[2] != "00":
		return 3
	case len(parts) >= 2 && parts[1] != "00":
		return 2
	default:
		return 1
	}
}

// ParentCode drops the last segment. A single-segment code has no parent.
func ParentCode(code string) string {
	i := strings.LastIndex(code, ".")
	if i < 0 {
		return ""
	}
	return code[:i]
}
