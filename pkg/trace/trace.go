// Package trace turns panics in worker iterations into log lines and crash
// files, so that one bad line or formatter does not stop a follower.
package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/crowdsecurity/go-cs-lib/version"
)

const (
	crashFileGlob = "tailship-crash.*.txt"
	shelfLife     = 30 * 24 * time.Hour
	maxTraces     = 100
)

var (
	mu       sync.Mutex
	traceDir = os.TempDir()
)

// Init sets the directory crash files are written to. The default is the
// system temp directory.
func Init(dir string) {
	mu.Lock()
	defer mu.Unlock()

	traceDir = dir
}

// List returns the crash files currently in the trace directory.
func List() ([]string, error) {
	mu.Lock()
	defer mu.Unlock()

	return filepath.Glob(filepath.Join(traceDir, crashFileGlob))
}

type crashFile struct {
	name  string
	mtime time.Time
}

// expired returns the crash files to remove: anything older than shelfLife,
// and the oldest ones beyond maxTraces.
func expired(files []crashFile, now time.Time) []string {
	slices.SortFunc(files, func(a, b crashFile) int {
		return b.mtime.Compare(a.mtime)
	})

	var ret []string

	for i, f := range files {
		if i >= maxTraces || now.Sub(f.mtime) > shelfLife {
			ret = append(ret, f.name)
		}
	}

	return ret
}

// purge is called with mu held.
func purge(dir string) {
	names, err := filepath.Glob(filepath.Join(dir, crashFileGlob))
	if err != nil {
		log.Errorf("while listing crash files: %s", err)
		return
	}

	files := make([]crashFile, 0, len(names))

	for _, name := range names {
		fi, err := os.Stat(name)
		if err != nil {
			continue
		}

		files = append(files, crashFile{name: name, mtime: fi.ModTime()})
	}

	for _, name := range expired(files, time.Now()) {
		log.Debugf("removing old crash file %s", name)

		if err := os.Remove(name); err != nil {
			log.Warningf("could not remove crash file %s: %s", name, err)
		}
	}
}

// WriteStackTrace writes the panic value, the agent version and the current
// goroutine's stack to a new crash file, and returns its name.
func WriteStackTrace(component string, r any) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	purge(traceDir)

	fd, err := os.CreateTemp(traceDir, crashFileGlob)
	if err != nil {
		return "", err
	}
	defer fd.Close()

	if _, err := fmt.Fprintf(fd, "component: %s\nerror: %+v\n%s\n", component, r, version.FullString()); err != nil {
		return "", err
	}

	if _, err := fd.Write(debug.Stack()); err != nil {
		return "", err
	}

	return fd.Name(), nil
}

// CatchPanic must be deferred directly by the function to protect. A panic
// is logged along with the crash file name, and the function returns
// normally so that the enclosing loop carries on.
func CatchPanic(component string) {
	r := recover()
	if r == nil {
		return
	}

	log.Errorf("goroutine %s crashed: %s", component, r)

	name, err := WriteStackTrace(component, r)
	if err != nil {
		log.Errorf("unable to write stacktrace: %s", err)
		return
	}

	log.Errorf("stacktrace is written to %s", name)
}
