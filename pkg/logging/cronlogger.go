package logging

import (
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// GoCronLoggerAdapter sends the scheduler's messages to logrus. The
// key/value pairs gocron appends become entry fields.
type GoCronLoggerAdapter struct {
	Logger ExtLogger
}

var _ gocron.Logger = GoCronLoggerAdapter{}

func (a GoCronLoggerAdapter) with(args []any) logrus.FieldLogger {
	if len(args) == 0 {
		return a.Logger
	}

	fields := make(logrus.Fields, len(args)/2+1)

	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])

		if i+1 == len(args) {
			fields["extra"] = args[i]
			break
		}

		fields[key] = args[i+1]
	}

	return a.Logger.WithFields(fields)
}

func (a GoCronLoggerAdapter) Debug(msg string, args ...any) {
	a.with(args).Debug(msg)
}

func (a GoCronLoggerAdapter) Info(msg string, args ...any) {
	a.with(args).Info(msg)
}

func (a GoCronLoggerAdapter) Warn(msg string, args ...any) {
	a.with(args).Warn(msg)
}

func (a GoCronLoggerAdapter) Error(msg string, args ...any) {
	a.with(args).Error(msg)
}
