package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/cstest"
)

func TestDefault(t *testing.T) {
	out, ok := Default()("anything")
	assert.True(t, ok)
	assert.Equal(t, "anything", out)
}

func TestExclude(t *testing.T) {
	tests := []struct {
		name        string
		expressions []string
		line        string
		keep        bool
		expectedErr string
	}{
		{name: "no expression", line: "x", keep: true},
		{name: "match", expressions: []string{`^DEBUG`, `health`}, line: "GET /health", keep: false},
		{name: "no match", expressions: []string{`^DEBUG`}, line: "INFO ok", keep: true},
		{name: "bad regexp", expressions: []string{`(`}, expectedErr: "could not compile regexp ("},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			filter, err := Exclude(tc.expressions)
			cstest.RequireErrorContains(t, err, tc.expectedErr)

			if tc.expectedErr != "" {
				return
			}

			out, ok := filter(tc.line)
			assert.Equal(t, tc.keep, ok)

			if ok {
				assert.Equal(t, tc.line, out)
			}
		})
	}
}

func TestFilterFilenames(t *testing.T) {
	all, err := FilterFilenames(nil)
	require.NoError(t, err)
	assert.True(t, all("/etc/passwd"))

	filter, err := FilterFilenames([]string{"/var/log/*.log", "/srv/app/*/out"})
	require.NoError(t, err)
	assert.True(t, filter("/var/log/syslog.log"))
	assert.True(t, filter("/srv/app/web/out"))
	assert.False(t, filter("/var/log/nginx/access.log"))
	assert.False(t, filter("/tmp/x"))

	_, err = FilterFilenames([]string{"[x"})
	cstest.RequireErrorContains(t, err, `bad pattern "[x"`)
}
