// Package formats provides the built-in entry formatters.
package formats

import (
	"fmt"
	"time"

	"github.com/tailship/tailship/pkg/types"
)

const (
	Plain  = "plain"
	Syslog = "syslog"
)

// now is replaced in tests.
var now = time.Now

// NewPlain prefixes every line with the log token, if any.
func NewPlain(token string) types.Formatter {
	if token == "" {
		return types.PassFormatter
	}

	return func(line string) (string, bool) {
		return token + " " + line, true
	}
}

// NewSyslog renders every line as an RFC 5424 message, user facility and
// informational severity, prefixed with the log token.
func NewSyslog(hostname string, appname string, token string) types.Formatter {
	hostname = nilValue(hostname)
	appname = nilValue(appname)

	prefix := ""
	if token != "" {
		prefix = token + " "
	}

	return func(line string) (string, bool) {
		ts := now().Format(time.RFC3339)
		return fmt.Sprintf("%s<14>1 %s %s %s - - - %s", prefix, ts, hostname, appname, line), true
	}
}

func nilValue(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// Get returns the formatter called name. An empty name is not an error, it
// returns a nil formatter so that the caller can fall back to its default.
func Get(name string, hostname string, appname string, token string) (types.Formatter, error) {
	switch name {
	case "":
		return nil, nil
	case Plain:
		return NewPlain(token), nil
	case Syslog:
		return NewSyslog(hostname, appname, token), nil
	default:
		return nil, fmt.Errorf("unknown formatter %q", name)
	}
}
