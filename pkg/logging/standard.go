package logging

import (
	"cmp"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defLogLevel    = logrus.InfoLevel
	defLogFilename = "tailship.log"
)

// SetupStandardLogger points logrus.StandardLogger(), from which every
// follower, supervisor and transport derives its entries, to the configured
// media and format.
func SetupStandardLogger(cfg LogConfig, level logrus.Level, forceColors bool) error {
	media := cmp.Or(cfg.GetMedia(), "stdout")

	switch media {
	case "file":
		logrus.SetOutput(cfg.NewRotatingLogger(defLogFilename))
	case "syslog":
		if err := setupSyslogDefault(); err != nil {
			return err
		}
	case "stdout":
	default:
		return fmt.Errorf("unknown log_media %q", media)
	}

	// colors only make sense on a terminal
	formatter, err := newFormatter(cfg.GetFormat(), forceColors && media == "stdout")
	if err != nil {
		return err
	}

	logrus.SetFormatter(formatter)
	logrus.SetLevel(cmp.Or(level, defLogLevel))

	return nil
}

func newFormatter(format string, colors bool) (logrus.Formatter, error) {
	switch format {
	case "text", "":
		return &logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
			ForceColors:     colors,
			DisableColors:   !colors,
		}, nil
	case "json":
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339}, nil
	default:
		return nil, fmt.Errorf("unknown log_format %q", format)
	}
}
