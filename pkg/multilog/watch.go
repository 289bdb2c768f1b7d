package multilog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// dirWatcher keeps an fsnotify watch on every directory that can hold a
// match of the pattern: the fixed directory in front of the first wildcard,
// and each existing directory matching a wildcard prefix of the pattern.
// For /srv/*/logs/app.log that is /srv, /srv/* and /srv/*/logs.
type dirWatcher struct {
	watcher  *fsnotify.Watcher
	base     string
	prefixes []string
	logger   *log.Entry

	mu      sync.Mutex
	watched map[string]bool
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, `*?[\`)
}

// splitPattern returns the fixed directory of pattern and the directory
// patterns below it, shortest first.
func splitPattern(pattern string) (string, []string) {
	dir := filepath.Clean(filepath.Dir(pattern))
	sep := string(filepath.Separator)
	parts := strings.Split(dir, sep)

	i := 0
	for i < len(parts) && !hasMeta(parts[i]) {
		i++
	}

	base := strings.Join(parts[:i], sep)

	switch {
	case base != "":
	case filepath.IsAbs(dir):
		base = sep
	default:
		base = "."
	}

	var prefixes []string

	for j := i; j < len(parts); j++ {
		prefixes = append(prefixes, strings.Join(parts[:j+1], sep))
	}

	return base, prefixes
}

func newDirWatcher(pattern string, logger *log.Entry) (*dirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	base, prefixes := splitPattern(pattern)

	return &dirWatcher{
		watcher:  watcher,
		base:     base,
		prefixes: prefixes,
		logger:   logger,
		watched:  make(map[string]bool),
	}, nil
}

// wanted lists the directories that exist right now and should be watched.
func (w *dirWatcher) wanted() map[string]bool {
	ret := map[string]bool{w.base: true}

	for _, prefix := range w.prefixes {
		matches, err := filepath.Glob(prefix)
		if err != nil {
			continue
		}

		for _, match := range matches {
			if fi, err := os.Stat(match); err == nil && fi.IsDir() {
				ret[match] = true
			}
		}
	}

	return ret
}

// sync adds watches on new directories and drops the ones that went away.
func (w *dirWatcher) sync() {
	want := w.wanted()

	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range w.watched {
		if want[dir] {
			continue
		}

		// the kernel drops the watch of a deleted directory on its own
		_ = w.watcher.Remove(dir)
		delete(w.watched, dir)
		w.logger.Tracef("stopped watching %s", dir)
	}

	for dir := range want {
		if w.watched[dir] {
			continue
		}

		if err := w.watcher.Add(dir); err != nil {
			w.logger.Debugf("could not watch %s: %s", dir, err)
			continue
		}

		w.watched[dir] = true
		w.logger.Tracef("watching %s", dir)
	}
}

// Watched returns the directories being watched.
func (w *dirWatcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ret := make([]string, 0, len(w.watched))
	for dir := range w.watched {
		ret = append(ret, dir)
	}

	return ret
}

func (w *dirWatcher) Close() error {
	return w.watcher.Close()
}

// watch starts the directory watcher and returns a channel that receives
// when a file or directory appears or disappears. It returns nil when
// watching is disabled or not possible, in which case only the periodic
// rescan finds changes.
func (m *FollowMultilog) watch() <-chan struct{} {
	if !m.config.Watch {
		return nil
	}

	w, err := newDirWatcher(m.config.Pattern, m.logger)
	if err != nil {
		m.logger.Warningf("could not create fsnotify watcher, polling only: %s", err)
		return nil
	}

	w.sync()
	m.dirs = w

	wake := make(chan struct{}, 1)

	m.t.Go(func() error {
		defer w.Close()

		for {
			select {
			case <-m.t.Dying():
				return nil
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}

				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}

				// a new directory may hold matches already, watch it
				// before the rescan looks for them
				w.sync()

				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}

				m.logger.Errorf("error while watching %s: %s", w.base, err)
			}
		}
	})

	return wake
}
