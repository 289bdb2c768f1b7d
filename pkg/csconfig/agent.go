package csconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tailship/tailship/pkg/formats"
	"github.com/tailship/tailship/pkg/metrics"
)

// AgentCfg holds the settings shared by every followed log.
type AgentCfg struct {
	// StateFile is where read positions are saved. Empty disables persistence.
	StateFile *string `yaml:"state_file"`
	Hostname  string  `yaml:"hostname"`
	// UserKey and AgentKey build the upload path of logs configured with a key.
	UserKey  string `yaml:"user_key"`
	AgentKey string `yaml:"agent_key"`
	// Formatter and EntryIdentifier apply to logs that do not set their own.
	Formatter       string   `yaml:"formatter"`
	EntryIdentifier string   `yaml:"entry_identifier"`
	ExcludeRegexps  []string `yaml:"exclude_regexps"`
	// Include restricts the followed paths to the matching shell patterns.
	Include          []string                   `yaml:"include"`
	MetricsLevel     metrics.MetricsLevelConfig `yaml:"metrics_level"`
	PrometheusListen string                     `yaml:"prometheus_listen"`
}

func (c *AgentCfg) setDefaults() {
	if c.StateFile == nil {
		stateFile := filepath.Join(defaultDataDir, "state.json")
		c.StateFile = &stateFile
	}

	if c.Hostname == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.Hostname = hostname
		}
	}

	if c.MetricsLevel == "" {
		c.MetricsLevel = metrics.MetricsLevelNone
		if c.PrometheusListen != "" {
			c.MetricsLevel = metrics.MetricsLevelDefault
		}
	}
}

func (c *AgentCfg) validate() []error {
	var errs []error

	switch c.MetricsLevel {
	case metrics.MetricsLevelNone, metrics.MetricsLevelAggregated, metrics.MetricsLevelFull:
	default:
		errs = append(errs, fmt.Errorf("agent.metrics_level: %w: %s", metrics.ErrInvalidMetricsLevel, c.MetricsLevel))
	}

	if c.Formatter != "" {
		if _, err := formats.Get(c.Formatter, "", "", ""); err != nil {
			errs = append(errs, fmt.Errorf("agent.formatter: %w", err))
		}
	}

	if c.EntryIdentifier != "" {
		if _, err := regexp.Compile(c.EntryIdentifier); err != nil {
			errs = append(errs, fmt.Errorf("agent.entry_identifier: %w", err))
		}
	}

	for _, exp := range c.ExcludeRegexps {
		if _, err := regexp.Compile(exp); err != nil {
			errs = append(errs, fmt.Errorf("agent.exclude_regexps: %w", err))
		}
	}

	for _, pattern := range c.Include {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("agent.include: bad pattern %q: %w", pattern, err))
		}
	}

	return errs
}
