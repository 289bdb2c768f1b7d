// Package csconfig loads the agent configuration file.
package csconfig

import (
	"errors"
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

// defaultConfigDir is the base directory for the default paths.
var defaultConfigDir = "/etc/tailship"

var defaultDataDir = "/var/lib/tailship"

// Config is the whole configuration file.
type Config struct {
	Common    *CommonCfg    `yaml:"common"`
	Agent     *AgentCfg     `yaml:"agent"`
	Transport *TransportCfg `yaml:"transport"`
	Tuning    *TuningCfg    `yaml:"tuning"`
	Logs      []*LogCfg     `yaml:"logs"`

	FilePath string `yaml:"-"`
}

// NewConfig reads and validates a configuration file. Environment variables
// referenced as $VAR or ${VAR} are expanded if they are defined.
func NewConfig(configFile string) (*Config, error) {
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := NewConfigFromYAML([]byte(expandEnv(string(content), os.LookupEnv)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configFile, err)
	}

	cfg.FilePath = configFile

	return cfg, nil
}

// NewConfigFromYAML parses, completes and validates a configuration.
func NewConfigFromYAML(content []byte) (*Config, error) {
	cfg := &Config{}

	if err := yaml.UnmarshalWithOptions(content, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("cannot parse: %s", yaml.FormatError(err, false, false))
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewDefaultConfig returns a configuration with no log to follow, used when
// no configuration file is given.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()

	return cfg
}

func (c *Config) SetDefaults() {
	if c.Common == nil {
		c.Common = &CommonCfg{}
	}

	if c.Agent == nil {
		c.Agent = &AgentCfg{}
	}

	if c.Transport == nil {
		c.Transport = &TransportCfg{}
	}

	if c.Tuning == nil {
		c.Tuning = &TuningCfg{}
	}

	c.Common.setDefaults()
	c.Agent.setDefaults()
	c.Transport.setDefaults()
	c.Tuning.setDefaults()

	for _, l := range c.Logs {
		l.setDefaults()
	}
}

// Validate reports every problem found, not only the first one.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.Common.validate()...)
	errs = append(errs, c.Agent.validate()...)
	errs = append(errs, c.Transport.validate()...)
	errs = append(errs, c.Tuning.validate()...)

	names := make(map[string]bool)

	for i, l := range c.Logs {
		for _, err := range l.validate() {
			errs = append(errs, fmt.Errorf("logs[%d]: %w", i, err))
		}

		if l.Name != "" && names[l.Name] {
			errs = append(errs, fmt.Errorf("logs[%d]: duplicate name %q", i, l.Name))
		}

		names[l.Name] = true

		if l.Key != "" && (c.Agent.UserKey == "" || c.Agent.AgentKey == "") {
			errs = append(errs, fmt.Errorf("logs[%d]: key requires agent.user_key and agent.agent_key", i))
		}
	}

	if len(c.Logs) > 0 && c.Transport.Host == "" {
		errs = append(errs, errors.New("transport.host is required"))
	}

	if len(c.Logs) == 0 {
		log.Warning("no log to follow in configuration")
	}

	return errors.Join(errs...)
}
