package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

type pidLock struct {
	path string
	lock *flock.Flock
}

// lockPidFile makes sure a single agent runs with a given pid file. The
// lock is held on the file itself, so a stale file left by a crash does
// not prevent a restart.
func lockPidFile(path string) (*pidLock, error) {
	lock := flock.New(path)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock on %s: %w", path, err)
	}

	if !ok {
		return nil, fmt.Errorf("another agent is running (%s is locked)", path)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}

	return &pidLock{path: path, lock: lock}, nil
}

func (p *pidLock) release() {
	if err := os.Remove(p.path); err != nil {
		log.Warningf("while removing pid file: %s", err)
	}

	if err := p.lock.Unlock(); err != nil {
		log.Warningf("while releasing pid file lock: %s", err)
	}
}
