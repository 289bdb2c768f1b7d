// Package statestore persists the read position of every follower so that
// a restarted agent resumes where the previous run stopped reading.
package statestore

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/tailship/tailship/pkg/types"
)

const tmpSuffix = ".tmp"

// Store reads and writes state snapshots on a file system.
type Store struct {
	Fs afero.Fs
}

// New returns a store backed by the operating system's file system.
func New() *Store {
	return &Store{Fs: afero.NewOsFs()}
}

var defaultStore = New()

// Load reads a snapshot with the OS file system. See Store.Load.
func Load(path string) map[string]types.FileState {
	return defaultStore.Load(path)
}

// Save writes a snapshot with the OS file system. See Store.Save.
func Save(path string, providers []types.StateProvider) error {
	return defaultStore.Save(path, providers)
}

// Load returns the snapshot stored at path. A missing, unreadable or
// malformed file yields an empty map, which makes every follower start
// from the end of its file.
func (s *Store) Load(path string) map[string]types.FileState {
	states := make(map[string]types.FileState)

	if path == "" {
		return states
	}

	logger := log.WithField("state_file", path)

	data, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		logger.Debugf("no usable state: %s", err)
		return states
	}

	var loaded map[string]types.FileState

	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.Warningf("ignoring malformed state file: %s", err)
		return states
	}

	for name, state := range loaded {
		state.Name = name
		states[name] = state
	}

	logger.Debugf("loaded %d file states", len(states))

	return states
}

// Snapshot collects the current state of every provider, keyed by name.
func Snapshot(providers []types.StateProvider) map[string]types.FileState {
	states := make(map[string]types.FileState, len(providers))

	for _, p := range providers {
		states[p.GetName()] = p.GetState()
	}

	return states
}

// Save writes the state of every provider to a temporary file next to path
// and renames it over path, so that the previous snapshot survives a crash
// in the middle of the write.
func (s *Store) Save(path string, providers []types.StateProvider) error {
	if path == "" {
		return nil
	}

	return s.Write(path, Snapshot(providers))
}

// Write atomically replaces path with the given snapshot.
func (s *Store) Write(path string, states map[string]types.FileState) error {
	// map keys are sorted by encoding/json
	content, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("while encoding state: %w", err)
	}

	content = append(content, '\n')

	tmpName := path + tmpSuffix

	if err := afero.WriteFile(s.Fs, tmpName, content, 0o600); err != nil {
		return fmt.Errorf("while writing %s: %w", tmpName, err)
	}

	if err := s.Fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("while replacing %s: %w", path, err)
	}

	return nil
}
