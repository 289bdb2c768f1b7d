// Package multilog follows every regular file matching a glob pattern, each
// one with its own follower, all feeding the same transport.
package multilog

import (
	"cmp"
	"path/filepath"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"

	"github.com/tailship/tailship/pkg/follower"
	"github.com/tailship/tailship/pkg/fsutil"
	"github.com/tailship/tailship/pkg/metrics"
	"github.com/tailship/tailship/pkg/trace"
	"github.com/tailship/tailship/pkg/types"
)

const (
	DefaultMaxFollowers   = 100
	DefaultRescanInterval = 250 * time.Millisecond
	DefaultJoinTimeout    = 1 * time.Second
)

type Config struct {
	Pattern string
	// Follower is the template for every child. Path, State and
	// DisableGlob are set per file.
	Follower follower.Config
	// States seeds the children created by the first scan, keyed by file name.
	States         map[string]types.FileState
	MaxFollowers   int
	RescanInterval time.Duration
	JoinTimeout    time.Duration
	// Watch triggers a rescan on fsnotify events in the directories that
	// can hold a match, instead of waiting for the next tick.
	Watch bool
}

type FollowMultilog struct {
	config Config
	logger *log.Entry
	t      tomb.Tomb

	mu        sync.RWMutex
	followers []*follower.Follower

	capReported bool

	// set by watch, used by the supervisor goroutine only
	dirs *dirWatcher
}

// New starts the supervisor in the background.
func New(config Config, logger *log.Entry) *FollowMultilog {
	config.MaxFollowers = cmp.Or(config.MaxFollowers, DefaultMaxFollowers)
	config.RescanInterval = cmp.Or(config.RescanInterval, DefaultRescanInterval)
	config.JoinTimeout = cmp.Or(config.JoinTimeout, DefaultJoinTimeout)

	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	m := &FollowMultilog{
		config: config,
		logger: logger.WithField("pattern", config.Pattern),
	}

	m.t.Go(m.supervise)

	return m
}

// GetName returns the pattern.
func (m *FollowMultilog) GetName() string {
	return m.config.Pattern
}

// Followers returns the children running right now.
func (m *FollowMultilog) Followers() []*follower.Follower {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.followers)
}

// Close stops the supervisor and every child.
func (m *FollowMultilog) Close() {
	m.t.Kill(nil)

	for _, f := range m.Followers() {
		f.Close()
	}

	select {
	case <-m.t.Dead():
	case <-time.After(m.config.JoinTimeout):
		m.logger.Warning("supervisor did not stop in time")
	}
}

// candidates expands the pattern into a sorted list of regular files.
func (m *FollowMultilog) candidates() []string {
	matches, err := filepath.Glob(m.config.Pattern)
	if err != nil {
		m.logger.Errorf("glob failed: %s", err)
		return nil
	}

	ret := make([]string, 0, len(matches))

	for _, match := range matches {
		if !fsutil.IsRegular(match) {
			m.logger.Tracef("skipping %s, not a regular file", match)
			continue
		}

		ret = append(ret, match)
	}

	slices.Sort(ret)

	return ret
}

func (m *FollowMultilog) supervise() error {
	m.logger.Debug("-> start supervising")

	// watch first, a file created during the first scan still wakes us up
	wake := m.watch()

	start := m.candidates()
	if len(start) == 0 {
		m.logger.Error("no files found to follow")
	}

	m.add(start, m.config.States)

	ticker := time.NewTicker(m.config.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.t.Dying():
			m.logger.Debug("supervisor stopped")
			return nil
		case <-ticker.C:
		case <-wake:
		}

		m.rescan()
	}
}

// rescan converges the set of children to the current match set.
func (m *FollowMultilog) rescan() {
	defer trace.CatchPanic("tailship/multilog")

	if m.dirs != nil {
		m.dirs.sync()
	}

	current := m.candidates()

	followed := make(map[string]bool)
	for _, f := range m.Followers() {
		followed[f.GetName()] = true
	}

	var removed []string

	for name := range followed {
		if !slices.Contains(current, name) {
			removed = append(removed, name)
		}
	}

	m.remove(removed)

	var added []string

	for _, name := range current {
		if !followed[name] {
			added = append(added, name)
		}
	}

	m.add(added, nil)
}

func (m *FollowMultilog) add(files []string, states map[string]types.FileState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range files {
		if !m.t.Alive() {
			return
		}

		if len(m.followers) >= m.config.MaxFollowers {
			if !m.capReported {
				m.logger.Warningf("maximum of %d followed files reached, ignoring new files", m.config.MaxFollowers)
				m.capReported = true
			}

			break
		}

		cfg := m.config.Follower
		cfg.Path = name
		cfg.DisableGlob = true
		cfg.State = nil

		if state, ok := states[name]; ok {
			cfg.State = &state
		}

		m.followers = append(m.followers, follower.New(cfg, m.logger))
		m.logger.Debugf("following %s (%d files)", name, len(m.followers))
	}

	metrics.MultilogFollowers.WithLabelValues(m.config.Pattern).Set(float64(len(m.followers)))
}

func (m *FollowMultilog) remove(files []string) {
	if len(files) == 0 {
		return
	}

	var stopped []*follower.Follower

	m.mu.Lock()

	m.followers = slices.DeleteFunc(m.followers, func(f *follower.Follower) bool {
		if slices.Contains(files, f.GetName()) {
			stopped = append(stopped, f)
			return true
		}

		return false
	})

	m.capReported = false
	count := len(m.followers)

	m.mu.Unlock()

	for _, f := range stopped {
		m.logger.Debugf("%s is gone, no longer following it", f.GetName())
		f.Close()
	}

	metrics.MultilogFollowers.WithLabelValues(m.config.Pattern).Set(float64(count))
}
