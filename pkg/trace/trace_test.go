package trace

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/cstest"
)

func TestCatchPanicRecovers(t *testing.T) {
	Init(t.TempDir())

	hook := test.NewGlobal()
	defer hook.Reset()

	calls := 0

	for range 3 {
		func() {
			defer CatchPanic("test")

			calls++

			panic("boom")
		}()
	}

	assert.Equal(t, 3, calls)
	cstest.RequireLogContains(t, hook, "goroutine test crashed: boom")

	files, err := List()
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestCatchPanicNoPanic(t *testing.T) {
	Init(t.TempDir())

	func() {
		defer CatchPanic("test")
	}()

	files, err := List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCrashFileContent(t *testing.T) {
	Init(t.TempDir())

	name, err := WriteStackTrace("tailship/follower", "bad line")
	require.NoError(t, err)

	content, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(content), "component: tailship/follower\nerror: bad line\n")
	assert.Contains(t, string(content), "runtime/debug.Stack")
}

func TestExpired(t *testing.T) {
	now := time.Now()

	files := make([]crashFile, 0, maxTraces+2)
	for i := range maxTraces + 1 {
		files = append(files, crashFile{name: fmt.Sprintf("recent-%03d", i), mtime: now.Add(-time.Duration(i) * time.Minute)})
	}

	files = append(files, crashFile{name: "stale", mtime: now.Add(-shelfLife - time.Hour)})

	assert.ElementsMatch(t, []string{fmt.Sprintf("recent-%03d", maxTraces), "stale"}, expired(files, now))
	assert.Empty(t, expired(files[:3], now))
}
