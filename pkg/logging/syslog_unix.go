//go:build !windows

package logging

import (
	"io"
	"log/syslog"

	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

func setupSyslogDefault() error {
	hook, err := lsyslog.NewSyslogHook("", "", syslog.LOG_INFO|syslog.LOG_DAEMON, "tailship")
	if err != nil {
		return err
	}

	logrus.AddHook(hook)
	logrus.SetOutput(io.Discard)

	return nil
}
