package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// logLevelFlags overrides the configured log level from the command line.
type logLevelFlags struct {
	trace, debug, info, warning, error bool
}

func (f *logLevelFlags) register(flags *pflag.FlagSet) {
	flags.BoolVar(&f.trace, "trace", false, "set log level to 'trace' (VERY verbose)")
	flags.BoolVar(&f.debug, "debug", false, "set log level to 'debug'")
	flags.BoolVar(&f.info, "info", false, "set log level to 'info'")
	flags.BoolVar(&f.warning, "warning", false, "set log level to 'warning'")
	flags.BoolVar(&f.error, "error", false, "set log level to 'error'")
	flags.MarkHidden("trace")
}

// level returns the most verbose level requested, if any.
func (f *logLevelFlags) level() (log.Level, bool) {
	switch {
	case f.trace:
		return log.TraceLevel, true
	case f.debug:
		return log.DebugLevel, true
	case f.info:
		return log.InfoLevel, true
	case f.warning:
		return log.WarnLevel, true
	case f.error:
		return log.ErrorLevel, true
	default:
		return 0, false
	}
}
