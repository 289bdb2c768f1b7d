package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/cstest"
	"github.com/crowdsecurity/go-cs-lib/ptr"
)

func TestFileStateUnmarshal(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    FileState
		expectedErr string
	}{
		{
			name:     "complete",
			input:    `{"filename": "/var/log/syslog", "position": 42}`,
			expected: FileState{Filename: ptr.Of("/var/log/syslog"), Position: 42},
		},
		{
			name:     "never opened",
			input:    `{"filename": null, "position": -1}`,
			expected: FileState{Position: PositionEnd},
		},
		{
			name:        "missing position",
			input:       `{"filename": "/var/log/syslog"}`,
			expectedErr: `missing key "position"`,
		},
		{
			name:        "missing filename",
			input:       `{"position": 3}`,
			expectedErr: `missing key "filename"`,
		},
		{
			name:        "bad position",
			input:       `{"filename": "a", "position": "x"}`,
			expectedErr: "position: json: cannot unmarshal",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s FileState

			err := json.Unmarshal([]byte(tc.input), &s)
			cstest.RequireErrorContains(t, err, tc.expectedErr)

			if tc.expectedErr != "" {
				return
			}

			assert.Equal(t, tc.expected, s)
		})
	}
}

func TestFileStateMarshal(t *testing.T) {
	s := FileState{Name: "app", Filename: ptr.Of("/tmp/app.log"), Position: 10}

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filename": "/tmp/app.log", "position": 10}`, string(out))
	assert.Equal(t, "/tmp/app.log", s.ResolvedName())
	assert.Empty(t, NewFileState("x").ResolvedName())
}
