package types

import (
	"encoding/json"
	"fmt"
)

// PositionEnd asks a follower to seek to the end of the file on first open.
const PositionEnd int64 = -1

// FileState is the read position of one followed file, as persisted in the
// state file. Position is the offset through which the file has been read,
// not necessarily sent.
type FileState struct {
	Name     string  `json:"-"`
	Filename *string `json:"filename"`
	Position int64   `json:"position"`
}

// NewFileState returns a state that tails from the end of the file.
func NewFileState(name string) FileState {
	return FileState{Name: name, Position: PositionEnd}
}

// ResolvedName returns the resolved filename, or "" if the file was never opened.
func (s FileState) ResolvedName() string {
	if s.Filename == nil {
		return ""
	}

	return *s.Filename
}

// UnmarshalJSON rejects entries that do not carry both keys, so that a
// partially written or hand-edited state file is refused as a whole.
func (s *FileState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rawName, ok := raw["filename"]
	if !ok {
		return fmt.Errorf("missing key %q", "filename")
	}

	rawPos, ok := raw["position"]
	if !ok {
		return fmt.Errorf("missing key %q", "position")
	}

	if err := json.Unmarshal(rawName, &s.Filename); err != nil {
		return fmt.Errorf("filename: %w", err)
	}

	if err := json.Unmarshal(rawPos, &s.Position); err != nil {
		return fmt.Errorf("position: %w", err)
	}

	return nil
}
