package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNetworkFSLocal(t *testing.T) {
	networkFS, fsType, err := IsNetworkFS(t.TempDir())
	require.NoError(t, err)
	assert.False(t, networkFS, "temp dir reported as %s", fsType)
}

func TestIsNetworkFSMissing(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("statfs is only called on linux")
	}

	_, _, err := IsNetworkFS(filepath.Join(t.TempDir(), "does", "not", "exist"))
	assert.Error(t, err)
}

func TestIsRegular(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "regular.log")
	link := filepath.Join(dir, "link.log")

	require.NoError(t, os.WriteFile(regular, []byte("x\n"), 0o644))

	assert.True(t, IsRegular(regular))
	assert.False(t, IsRegular(dir))
	assert.False(t, IsRegular(filepath.Join(dir, "missing.log")))

	if runtime.GOOS == "windows" {
		return
	}

	require.NoError(t, os.Symlink(regular, link))
	assert.False(t, IsRegular(link))
}
