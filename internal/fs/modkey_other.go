//go:build !darwin && !freebsd && !linux
// +build !darwin,!freebsd,!linux

package fs

import (
	"os"
	"time"
)

func modKey(path string) (ModKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ModKey{}, err
	}

	mtime := info.ModTime()
	if mtime.IsZero() || mtime.Unix() == 0 {
		return ModKey{}, errModKeyUnusable
	}
	if mtime.Add(modKeySafetyGap * time.Second).After(time.Now()) {
		return ModKey{}, errModKeyUnusable
	}

	return ModKey{
		size:     info.Size(),
		mtimeSec: mtime.Unix(),
		mode:     uint32(info.Mode()),
	}, nil
}
