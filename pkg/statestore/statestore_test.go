package statestore

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/ptr"

	"github.com/tailship/tailship/pkg/types"
)

type fakeProvider struct {
	name  string
	state types.FileState
}

func (f fakeProvider) GetName() string           { return f.name }
func (f fakeProvider) GetState() types.FileState { return f.state }

func newMemStore() *Store {
	return &Store{Fs: afero.NewMemMapFs()}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newMemStore()

	providers := []types.StateProvider{
		fakeProvider{name: "/var/log/syslog", state: types.FileState{Filename: ptr.Of("/var/log/syslog"), Position: 1024}},
		fakeProvider{name: "/var/log/app/*.log", state: types.FileState{Filename: ptr.Of("/var/log/app/b.log"), Position: 7}},
		fakeProvider{name: "/var/log/never", state: types.FileState{Position: types.PositionEnd}},
	}

	require.NoError(t, s.Save("/state.json", providers))

	loaded := s.Load("/state.json")
	require.Len(t, loaded, 3)

	for _, p := range providers {
		got, ok := loaded[p.GetName()]
		require.True(t, ok, p.GetName())
		assert.Equal(t, p.GetName(), got.Name)
		assert.Equal(t, p.GetState().Filename, got.Filename)
		assert.Equal(t, p.GetState().Position, got.Position)
	}

	exists, err := afero.Exists(s.Fs, "/state.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists, "temporary file must be renamed away")
}

func TestSaveFormat(t *testing.T) {
	s := newMemStore()

	providers := []types.StateProvider{
		fakeProvider{name: "b", state: types.FileState{Filename: ptr.Of("/b"), Position: 2}},
		fakeProvider{name: "a", state: types.FileState{Filename: ptr.Of("/a"), Position: 1}},
	}

	require.NoError(t, s.Save("/state.json", providers))

	content, err := afero.ReadFile(s.Fs, "/state.json")
	require.NoError(t, err)

	expected := `{
  "a": {
    "filename": "/a",
    "position": 1
  },
  "b": {
    "filename": "/b",
    "position": 2
  }
}
`
	assert.Equal(t, expected, string(content))
}

func TestLoadFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
		create  bool
	}{
		{name: "missing file"},
		{name: "not json", content: "{{{", create: true},
		{name: "wrong shape", content: `["a", "b"]`, create: true},
		{name: "missing position", content: `{"a": {"filename": "/a"}, "b": {"filename": "/b", "position": 3}}`, create: true},
		{name: "missing filename", content: `{"a": {"position": 3}}`, create: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newMemStore()

			if tc.create {
				require.NoError(t, afero.WriteFile(s.Fs, "/state.json", []byte(tc.content), 0o600))
			}

			loaded := s.Load("/state.json")
			assert.NotNil(t, loaded)
			assert.Empty(t, loaded)
		})
	}
}

func TestEmptyPathDisablesPersistence(t *testing.T) {
	s := newMemStore()

	require.NoError(t, s.Save("", []types.StateProvider{fakeProvider{name: "x"}}))
	assert.Empty(t, s.Load(""))
}

func TestSaveKeepsPreviousSnapshotOnFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	s := &Store{Fs: base}

	first := []types.StateProvider{fakeProvider{name: "a", state: types.FileState{Filename: ptr.Of("/a"), Position: 1}}}
	require.NoError(t, s.Save("/state.json", first))

	ro := &Store{Fs: afero.NewReadOnlyFs(base)}
	second := []types.StateProvider{fakeProvider{name: "a", state: types.FileState{Filename: ptr.Of("/a"), Position: 99}}}
	require.Error(t, ro.Save("/state.json", second))

	loaded := s.Load("/state.json")
	assert.Equal(t, int64(1), loaded["a"].Position)
}

func TestOsStore(t *testing.T) {
	path := t.TempDir() + "/state.json"

	require.NoError(t, Save(path, []types.StateProvider{fakeProvider{name: "a", state: types.FileState{Filename: ptr.Of("/a"), Position: 5}}}))
	assert.Equal(t, int64(5), Load(path)["a"].Position)
}
