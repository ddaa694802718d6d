//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package fs

import (
	"time"

	"golang.org/x/sys/unix"
)

// modKey reads the raw stat structure through golang.org/x/sys/unix
// rather than os.Stat, since os.FileInfo doesn't expose the inode or uid
// needed to distinguish a replaced file from an edited one.
func modKey(path string) (ModKey, error) {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return ModKey{}, err
	}

	if stat.Mtim.Sec == 0 && stat.Mtim.Nsec == 0 {
		return ModKey{}, errModKeyUnusable
	}

	now := time.Now()
	mtimeSec := stat.Mtim.Sec + modKeySafetyGap
	if mtimeSec > now.Unix() || (mtimeSec == now.Unix() && int64(stat.Mtim.Nsec) > int64(now.Nanosecond())) {
		return ModKey{}, errModKeyUnusable
	}

	return ModKey{
		inode:     stat.Ino,
		size:      stat.Size,
		mtimeSec:  int64(stat.Mtim.Sec),
		mtimeNsec: int64(stat.Mtim.Nsec),
		mode:      uint32(stat.Mode),
		uid:       stat.Uid,
	}, nil
}
