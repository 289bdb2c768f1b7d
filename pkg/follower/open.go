package follower

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tailship/tailship/pkg/metrics"
	"github.com/tailship/tailship/pkg/types"
)

// fileCandidate returns the most recently modified file matching the
// configured path, or an empty string if there is none.
func (f *Follower) fileCandidate() string {
	matches, err := filepath.Glob(f.config.Path)
	if err != nil {
		f.logger.Debugf("bad pattern: %s", err)
		return ""
	}

	type candidate struct {
		name  string
		mtime time.Time
	}

	candidates := make([]candidate, 0, len(matches))

	for _, match := range matches {
		fi, err := os.Stat(match)
		if err != nil || fi.IsDir() {
			continue
		}

		candidates = append(candidates, candidate{name: match, mtime: fi.ModTime()})
	}

	if len(candidates) == 0 {
		return ""
	}

	newest := slices.MaxFunc(candidates, func(a, b candidate) int {
		if c := a.mtime.Compare(b.mtime); c != 0 {
			return c
		}

		return strings.Compare(a.name, b.name)
	})

	return newest.name
}

// openLog (re)opens the followed file, retrying until it succeeds or the
// follower is closed. The given file name and position are only honored on
// the first attempt; later attempts open the newest candidate from the start.
func (f *Follower) openLog(filename string, position int64) bool {
	reported := false
	first := true

	for f.alive() {
		name := f.config.Path

		switch {
		case f.config.DisableGlob:
		case first && filename != "":
			name = filename
		default:
			name = f.fileCandidate()
		}

		if name != "" {
			pos := int64(0)
			if first {
				pos = position
			}

			err := f.tryOpen(name, pos)
			if err == nil {
				return true
			}

			f.logger.Debug(err)
		}

		if !reported {
			f.logger.Infof("cannot open file, retrying every %s", f.config.ReopenInterval)
			reported = true
		}

		first = false

		if !f.sleep(f.config.ReopenInterval) {
			break
		}
	}

	return false
}

func (f *Follower) tryOpen(name string, position int64) error {
	f.closeLog()

	fd, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", name, err)
	}

	var pos int64

	switch position {
	case types.PositionEnd:
		pos, err = fd.Seek(0, io.SeekEnd)
	case 0:
	default:
		pos, err = fd.Seek(position, io.SeekStart)
	}

	if err != nil {
		fd.Close()
		return fmt.Errorf("could not seek in %s: %w", name, err)
	}

	// an unfinished line carried from the previous file is completed by
	// the first line of this one
	f.file = fd
	f.realName = name

	f.updateState(name, pos)
	f.logger.Infof("opened %s at offset %d", name, pos)
	f.warnNetworkFS()

	return nil
}

// renamed tells whether the open handle no longer is the newest candidate.
// The handle is stat-ed around the candidate so that a file still being
// written is not mistaken for a rotated one.
func (f *Follower) renamed() bool {
	candidate := f.fileCandidate()
	if candidate == "" {
		return false
	}

	before, err := f.file.Stat()
	if err != nil {
		return false
	}

	cand, err := os.Stat(candidate)
	if err != nil {
		return false
	}

	after, err := f.file.Stat()
	if err != nil {
		return false
	}

	if before.ModTime().Equal(after.ModTime()) && !after.ModTime().Equal(cand.ModTime()) {
		return true
	}

	return !os.SameFile(after, cand)
}

// checkRotation reopens the file after a rename and rewinds it after a
// truncation.
func (f *Follower) checkRotation() {
	if f.file == nil {
		return
	}

	if f.renamed() {
		f.logger.Info("file rotated, reopening")
		metrics.FollowerReopens.With(f.labels()).Inc()
		f.openLog("", 0)

		return
	}

	pos, err := f.position()
	if err != nil {
		return
	}

	size, err := f.file.Seek(0, io.SeekEnd)
	if err != nil {
		return
	}

	// unlike a rename, the carried bytes belong to content that is gone
	if size < pos {
		f.logger.Infof("file truncated (size %d < offset %d), reading from start", size, pos)
		metrics.FollowerReopens.With(f.labels()).Inc()

		pos = 0
		f.readRest = nil
	}

	if _, err := f.file.Seek(pos, io.SeekStart); err != nil {
		f.logger.Warningf("could not seek: %s", err)
	}
}
