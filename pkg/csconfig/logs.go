package csconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tailship/tailship/pkg/formats"
)

// MultilogPrefix marks a path whose every match is followed separately.
const MultilogPrefix = "Multilog:"

// LogCfg is one followed log.
type LogCfg struct {
	Name string `yaml:"name"`
	// Path is an absolute file name or glob pattern. With the Multilog:
	// prefix, every matching file is followed, otherwise only the newest.
	// A multilog pattern takes a single wildcard, in a directory component,
	// such as Multilog:/srv/*/logs/app.log.
	Path  string `yaml:"path"`
	Token string `yaml:"token"`
	// Key switches the log to the per-file upload mode.
	Key             string   `yaml:"key"`
	Formatter       string   `yaml:"formatter"`
	EntryIdentifier string   `yaml:"entry_identifier"`
	ExcludeRegexps  []string `yaml:"exclude_regexps"`
}

func (l *LogCfg) setDefaults() {
	if l.Name == "" {
		l.Name = l.Path
	}
}

// IsMultilog tells whether Path carries the multilog prefix.
func (l *LogCfg) IsMultilog() bool {
	return strings.HasPrefix(l.Path, MultilogPrefix)
}

// Pattern returns Path without the multilog prefix.
func (l *LogCfg) Pattern() string {
	if !l.IsMultilog() {
		return l.Path
	}

	return strings.TrimSpace(strings.TrimPrefix(l.Path, MultilogPrefix))
}

func (l *LogCfg) validate() []error {
	var errs []error

	pattern := l.Pattern()

	switch {
	case pattern == "":
		errs = append(errs, errors.New("path is required"))
	case !filepath.IsAbs(pattern):
		errs = append(errs, fmt.Errorf("path %q must be absolute", pattern))
	default:
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("path %q: %w", pattern, err))
		}
	}

	if l.IsMultilog() {
		if strings.Count(pattern, "*") > 1 {
			errs = append(errs, fmt.Errorf("multilog path %q: only one wildcard is allowed", pattern))
		}

		if filepath.Base(pattern) == "" || strings.Contains(filepath.Base(pattern), "*") {
			errs = append(errs, fmt.Errorf("multilog path %q: no wildcard allowed in the file name", pattern))
		}
	}

	if l.Token == "" && l.Key == "" {
		errs = append(errs, errors.New("one of token or key is required"))
	}

	if l.Formatter != "" {
		if _, err := formats.Get(l.Formatter, "", "", ""); err != nil {
			errs = append(errs, err)
		}
	}

	if l.EntryIdentifier != "" {
		if _, err := regexp.Compile(l.EntryIdentifier); err != nil {
			errs = append(errs, fmt.Errorf("entry_identifier: %w", err))
		}
	}

	for _, exp := range l.ExcludeRegexps {
		if _, err := regexp.Compile(exp); err != nil {
			errs = append(errs, fmt.Errorf("exclude_regexps: %w", err))
		}
	}

	return errs
}
