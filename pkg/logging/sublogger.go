package logging

import (
	"slices"

	"github.com/sirupsen/logrus"
)

// SubLogger returns an entry tagged with the component name. When level is
// more verbose than the global one, the component gets a logger of its own
// sharing output, formatter and hooks with the standard logger (e.g.
// transport debug echo without a global debug level). A component is never
// quieter than the rest of the agent.
func SubLogger(component string, level logrus.Level) *logrus.Entry {
	std := logrus.StandardLogger()

	// higher logrus levels are more verbose
	level = max(level, std.GetLevel())
	if level == std.GetLevel() {
		return std.WithField("component", component)
	}

	l := logrus.New()
	l.SetOutput(std.Out)
	l.SetFormatter(std.Formatter)
	l.SetLevel(level)

	hooks := make(logrus.LevelHooks, len(std.Hooks))
	for lvl, hs := range std.Hooks {
		hooks[lvl] = slices.Clone(hs)
	}

	l.ReplaceHooks(hooks)

	return l.WithField("component", component)
}
