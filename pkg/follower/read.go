package follower

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tailship/tailship/pkg/metrics"
	"github.com/tailship/tailship/pkg/types"
)

// readLines reads one block and returns the complete lines it contains.
// An incomplete trailing line is carried over to the next call, unless it
// reaches MaxBlockSize, in which case its head is returned as a line.
func (f *Follower) readLines() []string {
	if f.file == nil {
		return nil
	}

	buf := make([]byte, f.config.MaxBlockSize-len(f.readRest))

	n, err := f.file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		f.logger.Warningf("read error, reopening: %s", err)
		metrics.FollowerReopens.With(f.labels()).Inc()
		f.openLog("", 0)

		return nil
	}

	if n == 0 {
		return nil
	}

	data := append(f.readRest, buf[:n]...)
	segments := bytes.Split(data, []byte{'\n'})

	rest := segments[len(segments)-1]
	segments = segments[:len(segments)-1]

	if len(rest) >= f.config.MaxBlockSize {
		segments = append(segments, rest[:f.config.MaxBlockSize])
		rest = rest[f.config.MaxBlockSize:]
	}

	f.readRest = bytes.Clone(rest)

	if pos, err := f.position(); err == nil {
		f.updateState(f.realName, pos)
	}

	lines := make([]string, 0, len(segments))
	for _, segment := range segments {
		lines = append(lines, decode(segment))
	}

	metrics.FollowerLinesRead.With(f.labels()).Add(float64(len(lines)))

	return lines
}

// decode drops invalid UTF-8 sequences.
func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	return strings.ToValidUTF8(string(b), "")
}

// collect merges continuation lines into the entry started by the last line
// matching EntryIdentifier. A nil or empty input means no more data is coming
// for now, and the pending entry is released.
func (f *Follower) collect(lines []string) []string {
	if f.config.EntryIdentifier == nil {
		return lines
	}

	if len(lines) == 0 {
		if len(f.entryRest) == 0 {
			return nil
		}

		entry := strings.Join(f.entryRest, types.LineSeparator)
		f.entryRest = nil

		return []string{entry}
	}

	var entries []string

	for _, line := range lines {
		if f.config.EntryIdentifier.MatchString(line) && len(f.entryRest) > 0 {
			entries = append(entries, strings.Join(f.entryRest, types.LineSeparator))
			f.entryRest = nil
		}

		f.entryRest = append(f.entryRest, line)
	}

	return entries
}

func (f *Follower) sendLines(lines []string) {
	for _, line := range lines {
		if line == "" {
			continue
		}

		f.sendLine(line)
	}
}

func (f *Follower) sendLine(line string) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Errorf("caught unknown error while sending line: %v", r)
		}
	}()

	filtered, ok := f.config.Filter(line)
	if !ok {
		metrics.FollowerEntriesDropped.WithLabelValues(metrics.SourceLabel(f.config.Path), metrics.DropFilter).Inc()
		return
	}

	formatted, ok := f.config.Formatter(filtered)
	if !ok {
		metrics.FollowerEntriesDropped.WithLabelValues(metrics.SourceLabel(f.config.Path), metrics.DropFormatter).Inc()
		return
	}

	if !utf8.ValidString(formatted) {
		f.logger.Warningf("formatted entry is not valid UTF-8, skipped: %q", formatted)
		metrics.FollowerEntriesDropped.WithLabelValues(metrics.SourceLabel(f.config.Path), metrics.DropEncoding).Inc()

		return
	}

	f.config.Transport.Send(formatted)
}
