package formats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/cstest"
)

func TestPlain(t *testing.T) {
	out, ok := NewPlain("tok")("hello")
	require.True(t, ok)
	assert.Equal(t, "tok hello", out)

	out, ok = NewPlain("")("hello")
	require.True(t, ok)
	assert.Equal(t, "hello", out)
}

func TestSyslog(t *testing.T) {
	now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	}
	defer func() { now = time.Now }()

	out, ok := NewSyslog("web1", "nginx", "tok")("GET /")
	require.True(t, ok)
	assert.Equal(t, "tok <14>1 2024-03-01T12:30:00Z web1 nginx - - - GET /", out)

	out, _ = NewSyslog("", "", "")("x")
	assert.Equal(t, "<14>1 2024-03-01T12:30:00Z - - - - - x", out)
}

func TestGet(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		expected    string
		expectedErr string
	}{
		{name: "plain", format: Plain, expected: "tok line"},
		{name: "syslog", format: Syslog, expected: "tok <14>1 "},
		{name: "unknown", format: "json", expectedErr: `unknown formatter "json"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Get(tc.format, "host", "app", "tok")
			cstest.RequireErrorContains(t, err, tc.expectedErr)

			if tc.expectedErr != "" {
				return
			}

			out, ok := f("line")
			require.True(t, ok)
			assert.Contains(t, out, tc.expected)
		})
	}

	f, err := Get("", "host", "app", "tok")
	require.NoError(t, err)
	assert.Nil(t, f)
}
