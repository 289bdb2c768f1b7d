package agent

import (
	"fmt"
	"regexp"

	"github.com/tailship/tailship/pkg/csconfig"
	"github.com/tailship/tailship/pkg/filters"
	"github.com/tailship/tailship/pkg/follower"
	"github.com/tailship/tailship/pkg/formats"
	"github.com/tailship/tailship/pkg/multilog"
	"github.com/tailship/tailship/pkg/transport"
	"github.com/tailship/tailship/pkg/types"
)

// transportConfig returns the shared destination of token based logs.
func (a *Agent) transportConfig() transport.Config {
	tc := a.config.Transport

	cfg := transport.Config{
		Host:              tc.Host,
		Port:              tc.Port,
		TLS:               tc.TLS,
		CAFile:            tc.CAFile,
		Debug:             tc.Debug,
		QueueSize:         tc.QueueSize,
		HeartbeatInterval: tc.HeartbeatInterval,
		ConnectTimeout:    tc.ConnectTimeout,
		MinDelay:          tc.MinDelay,
		MaxDelay:          tc.MaxDelay,
	}

	if tc.Proxy != nil {
		cfg.Proxy = transport.ProxyConfig{Type: tc.Proxy.Type, Host: tc.Proxy.Host, Port: tc.Proxy.Port}
	}

	return cfg
}

// uploadConfig returns a dedicated destination for a log configured with a
// key: the connection starts with an HTTP request line naming the log.
func (a *Agent) uploadConfig(logKey string) transport.Config {
	cfg := a.transportConfig()
	cfg.Port = a.config.Transport.UploadPort
	cfg.Preamble = fmt.Sprintf("PUT /%s/hosts/%s/%s/?realtime=1 HTTP/1.0\r\n\r\n",
		a.config.Agent.UserKey, a.config.Agent.AgentKey, logKey)

	return cfg
}

func (a *Agent) followerTemplate() follower.Config {
	tuning := a.config.Tuning

	return follower.Config{
		MaxBlockSize:   tuning.MaxBlockSize,
		TailRecheck:    tuning.TailRecheck,
		NameCheck:      tuning.NameCheck,
		ReopenInterval: tuning.ReopenInterval,
	}
}

// entryIdentifier compiles the log's expression, or the agent wide one. An
// invalid expression is reported and multi-line merging is disabled.
func (a *Agent) entryIdentifier(l *csconfig.LogCfg) *regexp.Regexp {
	exp := l.EntryIdentifier
	if exp == "" {
		exp = a.config.Agent.EntryIdentifier
	}

	if exp == "" {
		return nil
	}

	re, err := regexp.Compile(exp)
	if err != nil {
		a.logger.Errorf("invalid entry identifier %q ignored: %s", exp, err)
		return nil
	}

	return re
}

// formatter picks the log's formatter, then the agent wide one, then the
// default of the log's mode.
func (a *Agent) formatter(l *csconfig.LogCfg) (types.Formatter, error) {
	hostname := a.config.Agent.Hostname

	for _, name := range []string{l.Formatter, a.config.Agent.Formatter} {
		f, err := formats.Get(name, hostname, l.Name, l.Token)
		if err != nil {
			return nil, err
		}

		if f != nil {
			return f, nil
		}
	}

	if l.Key != "" {
		return formats.NewPlain(l.Token), nil
	}

	return formats.NewSyslog(hostname, l.Name, l.Token), nil
}

func (a *Agent) startFollowers(states map[string]types.FileState) error {
	include, err := filters.FilterFilenames(a.config.Agent.Include)
	if err != nil {
		return err
	}

	for _, l := range a.config.Logs {
		logger := a.logger.WithField("log", l.Name)
		pattern := l.Pattern()

		if !include(pattern) {
			logger.Infof("not following %s, not in include list", pattern)
			continue
		}

		filter, err := filters.Exclude(append(append([]string{}, a.config.Agent.ExcludeRegexps...), l.ExcludeRegexps...))
		if err != nil {
			return fmt.Errorf("log %s: %w", l.Name, err)
		}

		formatter, err := a.formatter(l)
		if err != nil {
			return fmt.Errorf("log %s: %w", l.Name, err)
		}

		var sink *transport.Transport

		if l.Key != "" {
			sink = a.pool.Get(a.uploadConfig(l.Key))
		} else {
			sink = a.pool.Get(a.transportConfig())
		}

		cfg := a.followerTemplate()
		cfg.Filter = filter
		cfg.Formatter = formatter
		cfg.EntryIdentifier = a.entryIdentifier(l)
		cfg.Transport = sink

		logger.Infof("following %s", pattern)

		if l.IsMultilog() {
			a.multilogs = append(a.multilogs, multilog.New(multilog.Config{
				Pattern:        pattern,
				Follower:       cfg,
				States:         states,
				MaxFollowers:   a.config.Tuning.MaxFollowers,
				RescanInterval: a.config.Tuning.RescanInterval,
				Watch:          a.config.Tuning.Watch,
			}, logger))

			continue
		}

		cfg.Path = pattern

		if state, ok := states[pattern]; ok {
			cfg.State = &state
		}

		a.followers = append(a.followers, follower.New(cfg, logger))
	}

	return nil
}
