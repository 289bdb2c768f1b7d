package fsutil

import (
	"os"
	"strings"
)

var networkFSTypes = map[string]bool{
	"nfs":  true,
	"cifs": true,
	"smb":  true,
	"smb2": true,
	"v9fs": true,
}

// IsNetworkFS reports whether path lives on a network share, where
// modification times may lag behind the writer.
func IsNetworkFS(path string) (bool, string, error) {
	fsType, err := GetFSType(path)
	if err != nil {
		return false, "", err
	}

	fsType = strings.ToLower(fsType)

	return networkFSTypes[fsType], fsType, nil
}

// IsRegular reports whether path is a regular file. Symbolic links are
// rejected even when they point to a regular file.
func IsRegular(path string) bool {
	fi, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return fi.Mode().IsRegular()
}
