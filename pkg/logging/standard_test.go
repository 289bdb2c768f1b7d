package logging

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/crowdsecurity/go-cs-lib/cstest"
)

type fakeLogConfig struct {
	media  string
	format string
	dir    string
}

func (c fakeLogConfig) GetFormat() string { return c.format }
func (c fakeLogConfig) GetMedia() string  { return c.media }

func (c fakeLogConfig) NewRotatingLogger(filename string) *lumberjack.Logger {
	return &lumberjack.Logger{Filename: filepath.Join(c.dir, filename)}
}

func TestSetupStandardLogger(t *testing.T) {
	out := logrus.StandardLogger().Out
	formatter := logrus.StandardLogger().Formatter
	level := logrus.GetLevel()

	t.Cleanup(func() {
		logrus.SetOutput(out)
		logrus.SetFormatter(formatter)
		logrus.SetLevel(level)
	})

	tests := []struct {
		name        string
		cfg         fakeLogConfig
		expectedErr string
	}{
		{name: "stdout text", cfg: fakeLogConfig{media: "stdout", format: "text"}},
		{name: "defaults", cfg: fakeLogConfig{}},
		{name: "json", cfg: fakeLogConfig{media: "stdout", format: "json"}},
		{name: "file", cfg: fakeLogConfig{media: "file", dir: t.TempDir()}},
		{name: "bad media", cfg: fakeLogConfig{media: "pigeon"}, expectedErr: `unknown log_media "pigeon"`},
		{name: "bad format", cfg: fakeLogConfig{format: "xml"}, expectedErr: `unknown log_format "xml"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := SetupStandardLogger(tc.cfg, logrus.DebugLevel, false)
			cstest.RequireErrorContains(t, err, tc.expectedErr)
		})
	}
}

func TestSubLogger(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	SubLogger("transport", 0).Info("hello")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "transport", entry.Data["component"])

	debug := SubLogger("transport", logrus.TraceLevel)
	assert.Equal(t, logrus.TraceLevel, debug.Logger.GetLevel())
}

func TestSubLoggerIsNeverQuieter(t *testing.T) {
	level := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(level) })

	logrus.SetLevel(logrus.TraceLevel)

	sub := SubLogger("transport", logrus.DebugLevel)
	assert.Equal(t, logrus.TraceLevel, sub.Logger.GetLevel())
	assert.Same(t, logrus.StandardLogger(), sub.Logger)

	logrus.SetLevel(logrus.InfoLevel)

	sub = SubLogger("transport", logrus.DebugLevel)
	assert.Equal(t, logrus.DebugLevel, sub.Logger.GetLevel())
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestGoCronLoggerAdapter(t *testing.T) {
	logger, hook := test.NewNullLogger()

	a := GoCronLoggerAdapter{Logger: logger}
	a.Warn("job failed", "name", "save state", "error", "disk full")

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "job failed", entry.Message)
	assert.Equal(t, "save state", entry.Data["name"])
	assert.Equal(t, "disk full", entry.Data["error"])

	a.Error("odd", "dangling")
	assert.Equal(t, "dangling", hook.LastEntry().Data["extra"])
}

func TestColorsOnlyOnStdout(t *testing.T) {
	out := logrus.StandardLogger().Out
	formatter := logrus.StandardLogger().Formatter

	t.Cleanup(func() {
		logrus.SetOutput(out)
		logrus.SetFormatter(formatter)
	})

	require.NoError(t, SetupStandardLogger(fakeLogConfig{media: "stdout"}, logrus.InfoLevel, true))
	tf, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.True(t, tf.ForceColors)

	require.NoError(t, SetupStandardLogger(fakeLogConfig{media: "file", dir: t.TempDir()}, logrus.InfoLevel, true))
	tf, ok = logrus.StandardLogger().Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.False(t, tf.ForceColors)
	assert.True(t, tf.DisableColors)
}
