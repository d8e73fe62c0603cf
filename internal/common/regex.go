package common

import (
	"fmt"
	"regexp"
)

// CompileInsensitive compiles each pattern with the (?i) flag.
// The first invalid pattern aborts compilation.
func CompileInsensitive(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// MustCompileInsensitive is like CompileInsensitive but panics on error.
// Use it only for built-in pattern tables.
func MustCompileInsensitive(patterns []string) []*regexp.Regexp {
	compiled, err := CompileInsensitive(patterns)
	if err != nil {
		panic(err)
	}
	return compiled
}
