package main

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// stderrHook copies the last words of the agent to stderr when the log
// goes to a file or to syslog.
type stderrHook struct {
	w io.Writer
}

func (stderrHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel}
}

func (h stderrHook) Fire(entry *log.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return err
	}

	_, err = h.w.Write(line)

	return err
}
