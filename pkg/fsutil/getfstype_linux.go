//go:build linux

package fsutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// statfs magic numbers, see statfs(2). Only file systems a log file is
// likely to live on are listed; anything else is reported as unknown.
var fsTypeMapping = map[int64]string{
	0x9123683e: "btrfs",
	0xff534d42: "cifs",
	0xef53:     "ext4",
	0xf2f52010: "f2fs",
	0x65735546: "fuse",
	0x6969:     "nfs",
	0x794c7630: "overlayfs",
	0x517b:     "smb",
	0xfe534d42: "smb2",
	0x01021994: "tmpfs",
	0x01021997: "v9fs",
	0x58465342: "xfs",
	0x2fc12fc1: "zfs",
}

func GetFSType(path string) (string, error) {
	var buf unix.Statfs_t

	if err := unix.Statfs(path, &buf); err != nil {
		return "", fmt.Errorf("failed to get filesystem type: %w", err)
	}

	fsType, ok := fsTypeMapping[int64(buf.Type)] //nolint:unconvert
	if !ok {
		return "unknown", nil
	}

	return fsType, nil
}
