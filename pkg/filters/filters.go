// Package filters decides which files are followed and which lines are sent.
package filters

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/tailship/tailship/pkg/types"
)

// Default sends every line unchanged.
func Default() types.Filter {
	return types.PassFilter
}

// Exclude drops the lines matching any of the expressions.
func Exclude(expressions []string) (types.Filter, error) {
	if len(expressions) == 0 {
		return Default(), nil
	}

	regexps := make([]*regexp.Regexp, 0, len(expressions))

	for _, exp := range expressions {
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("could not compile regexp %s: %w", exp, err)
		}

		regexps = append(regexps, re)
	}

	return func(line string) (string, bool) {
		for _, re := range regexps {
			if re.MatchString(line) {
				return "", false
			}
		}

		return line, true
	}, nil
}

// FilenameFilter tells whether a configured path is followed at all.
type FilenameFilter func(path string) bool

// AllFilenames follows every configured path.
func AllFilenames(string) bool {
	return true
}

// FilterFilenames follows only the paths matching one of the shell
// patterns. An empty list follows everything.
func FilterFilenames(include []string) (FilenameFilter, error) {
	if len(include) == 0 {
		return AllFilenames, nil
	}

	for _, pattern := range include {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
	}

	return func(path string) bool {
		for _, pattern := range include {
			if ok, _ := filepath.Match(pattern, path); ok {
				return true
			}
		}

		return false
	}, nil
}
