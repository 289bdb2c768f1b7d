// Package follower tails one file and hands every new entry to a transport.
//
// A Follower survives rotation by rename (detected through modification
// times of the open handle and of the newest file matching its path),
// copy-truncate rotation (the file becomes shorter than the read offset)
// and files that do not exist yet.
package follower

import (
	"cmp"
	"io"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"

	"github.com/tailship/tailship/pkg/fsutil"
	"github.com/tailship/tailship/pkg/metrics"
	"github.com/tailship/tailship/pkg/trace"
	"github.com/tailship/tailship/pkg/types"
)

const (
	// DefaultMaxBlockSize leaves room for the formatter in a 64k frame.
	DefaultMaxBlockSize   = 65536 - 512
	DefaultTailRecheck    = 200 * time.Millisecond
	DefaultNameCheck      = 4
	DefaultReopenInterval = 1 * time.Second
	DefaultJoinTimeout    = 1 * time.Second
)

type Config struct {
	// Path is a file name, or a glob pattern unless DisableGlob is set.
	Path      string
	Filter    types.Filter
	Formatter types.Formatter
	// EntryIdentifier matches the first line of a multi-line entry. Nil
	// sends every line as its own entry.
	EntryIdentifier *regexp.Regexp
	Transport       types.Sender
	// State is where to resume. Nil tails from the end of the file.
	State *types.FileState
	// DisableGlob opens Path as is, for supervisors that already resolved it.
	DisableGlob bool

	MaxBlockSize int
	TailRecheck  time.Duration
	// NameCheck is the number of idle rechecks between rotation checks.
	NameCheck      int
	ReopenInterval time.Duration
	JoinTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	c.MaxBlockSize = cmp.Or(c.MaxBlockSize, DefaultMaxBlockSize)
	c.TailRecheck = cmp.Or(c.TailRecheck, DefaultTailRecheck)
	c.NameCheck = cmp.Or(c.NameCheck, DefaultNameCheck)
	c.ReopenInterval = cmp.Or(c.ReopenInterval, DefaultReopenInterval)
	c.JoinTimeout = cmp.Or(c.JoinTimeout, DefaultJoinTimeout)

	if c.Filter == nil {
		c.Filter = types.PassFilter
	}

	if c.Formatter == nil {
		c.Formatter = types.PassFormatter
	}

	return c
}

type Follower struct {
	config Config
	logger *log.Entry
	t      tomb.Tomb

	// owned by the worker goroutine
	file      *os.File
	realName  string
	readRest  []byte
	entryRest []string
	fsChecked bool

	mu    sync.RWMutex
	state types.FileState
}

// New starts following config.Path in the background.
func New(config Config, logger *log.Entry) *Follower {
	f := newFollower(config, logger)
	f.t.Go(f.run)

	return f
}

func newFollower(config Config, logger *log.Entry) *Follower {
	config = config.withDefaults()

	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	f := &Follower{
		config: config,
		logger: logger.WithField("file", config.Path),
	}

	if config.State != nil {
		f.updateState(config.State.ResolvedName(), config.State.Position)
	} else {
		f.updateState("", types.PositionEnd)
	}

	return f
}

// GetName returns the configured path, which is the key of the persisted state.
func (f *Follower) GetName() string {
	return f.config.Path
}

// GetState returns the resolved file name and the offset read so far.
func (f *Follower) GetState() types.FileState {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.state
}

// Close stops the follower and waits a bounded time for it to exit.
func (f *Follower) Close() {
	f.t.Kill(nil)

	select {
	case <-f.t.Dead():
	case <-time.After(f.config.JoinTimeout):
		f.logger.Warning("follower did not stop in time")
	}
}

// Dead is closed once the worker has exited.
func (f *Follower) Dead() <-chan struct{} {
	return f.t.Dead()
}

func (f *Follower) updateState(realName string, position int64) {
	var filename *string
	if realName != "" {
		filename = &realName
	}

	f.mu.Lock()
	f.state = types.FileState{Name: f.config.Path, Filename: filename, Position: position}
	f.mu.Unlock()
}

func (f *Follower) alive() bool {
	return f.t.Alive()
}

// sleep waits for d and returns false if the follower is closed meanwhile.
func (f *Follower) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-f.t.Dying():
		return false
	}
}

func (f *Follower) labels() prometheus.Labels {
	return prometheus.Labels{"source": metrics.SourceLabel(f.config.Path)}
}

func (f *Follower) run() error {
	f.logger.Debug("-> start following")

	state := f.GetState()
	f.openLog(state.ResolvedName(), state.Position)

	for f.alive() {
		f.iterate()
	}

	// emit what the multi-line merger still holds
	f.sendLines(f.collect(nil))

	if f.file != nil {
		if pos, err := f.position(); err == nil {
			f.updateState(f.realName, pos)
		}
	}

	f.closeLog()
	f.logger.Debug("follower stopped")

	return nil
}

func (f *Follower) iterate() {
	defer trace.CatchPanic("tailship/follower")

	lines := f.getLines()
	f.sendLines(lines)
}

// getLines blocks until at least one entry is available or the follower is
// closed. The state is updated with the new read offset before returning,
// so it may run ahead of what the transport actually sent.
func (f *Follower) getLines() []string {
	var lines []string

	idle := 0

	for f.alive() {
		lines = f.collect(f.readLines())
		if len(lines) > 0 {
			break
		}

		if !f.sleep(f.config.TailRecheck) {
			break
		}

		// nothing new for a whole recheck interval, the pending
		// multi-line entry is complete
		lines = f.collect(nil)
		if len(lines) > 0 {
			break
		}

		idle++
		if idle >= f.config.NameCheck {
			f.checkRotation()

			idle = 0
		}
	}

	if f.file != nil {
		if pos, err := f.position(); err == nil {
			f.updateState(f.realName, pos)
		}
	}

	return lines
}

func (f *Follower) position() (int64, error) {
	return f.file.Seek(0, io.SeekCurrent)
}

func (f *Follower) closeLog() {
	if f.file == nil {
		return
	}

	if err := f.file.Close(); err != nil {
		f.logger.Tracef("while closing: %s", err)
	}

	f.file = nil
}

// warnNetworkFS is called once, after the first successful open.
func (f *Follower) warnNetworkFS() {
	if f.fsChecked {
		return
	}

	f.fsChecked = true

	networkFS, fsType, err := fsutil.IsNetworkFS(f.realName)
	if err != nil {
		f.logger.Debugf("could not get fs type: %s", err)
		return
	}

	if networkFS {
		f.logger.Warnf("file is on a network share (%s), rotation detection relies on modification times and may be delayed", fsType)
	}
}
