package csconfig

import (
	"cmp"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/crowdsecurity/go-cs-lib/ptr"
)

const (
	defMaxSize  = 500 // megabytes
	defMaxFiles = 3
	defMaxAge   = 28 // days
	defCompress = true
)

// CommonCfg is the daemon related part: logging, pid file, crash reports.
type CommonCfg struct {
	LogMedia       string     `yaml:"log_media"`
	LogDir         string     `yaml:"log_dir,omitempty"` // if LogMedia = file
	LogLevel       *log.Level `yaml:"log_level"`
	LogFormat      string     `yaml:"log_format,omitempty"`
	LogMaxSize     int        `yaml:"log_max_size,omitempty"`
	LogMaxFiles    int        `yaml:"log_max_files,omitempty"`
	LogMaxAge      int        `yaml:"log_max_age,omitempty"`
	CompressLogs   *bool      `yaml:"compress_logs,omitempty"`
	ForceColorLogs bool       `yaml:"force_color_logs,omitempty"`
	PidFile        string     `yaml:"pid_file,omitempty"`
	TraceDir       string     `yaml:"trace_dir,omitempty"`
}

func (c *CommonCfg) setDefaults() {
	if c.LogMedia == "" {
		c.LogMedia = "stdout"
	}

	if c.LogDir == "" {
		c.LogDir = "/var/log/"
	}

	if c.LogLevel == nil {
		c.LogLevel = ptr.Of(log.InfoLevel)
	}

	if c.LogFormat == "" {
		c.LogFormat = "text"
	}

	if c.CompressLogs == nil {
		c.CompressLogs = ptr.Of(defCompress)
	}

	if c.TraceDir == "" {
		c.TraceDir = filepath.Join(defaultDataDir, "trace")
	}
}

func (c *CommonCfg) validate() []error {
	var errs []error

	switch c.LogMedia {
	case "stdout", "file", "syslog":
	default:
		errs = append(errs, fmt.Errorf("common.log_media: unknown value %q", c.LogMedia))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("common.log_format: unknown value %q", c.LogFormat))
	}

	return errs
}

func (c *CommonCfg) GetFormat() string {
	return c.LogFormat
}

func (c *CommonCfg) GetMedia() string {
	return c.LogMedia
}

// NewRotatingLogger returns a lumberjack writer for a file in the log directory.
func (c *CommonCfg) NewRotatingLogger(filename string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(c.LogDir, filename),
		MaxSize:    cmp.Or(c.LogMaxSize, defMaxSize),
		MaxBackups: cmp.Or(c.LogMaxFiles, defMaxFiles),
		MaxAge:     cmp.Or(c.LogMaxAge, defMaxAge),
		Compress:   *c.CompressLogs,
	}
}
