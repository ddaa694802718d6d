package fs

import "errors"

// ModKey is a cheap, content-free change-detection fingerprint: inode +
// size + mtime + mode. Comparing two ModKeys is far cheaper than
// re-reading and re-hashing a file, which matters for a watch loop that
// needs to decide whether a changed path actually warrants a rescan.
type ModKey struct {
	inode     uint64
	size      int64
	mtimeSec  int64
	mtimeNsec int64
	mode      uint32
	uid       uint32
}

// modKeySafetyGap: a file modified within this many seconds of "now"
// can't be trusted (the mtime clock may not have enough resolution to
// distinguish it from a subsequent write).
const modKeySafetyGap = 3

var errModKeyUnusable = errors.New("fs: modification key is unusable")

// Invalidate drops path from every memoized cache if its on-disk modKey
// has changed since it was last computed (or if no modKey is on record
// yet, conservatively treating that as "changed"). Returns true if the
// caches were dropped.
func (r *RealFS) Invalidate(path string) bool {
	newKey, err := modKey(path)
	if err != nil {
		// Can't form a reliable key (just-written file, missing file, or
		// unsupported platform): invalidate unconditionally.
		r.dropCaches(path)
		return true
	}

	r.mu.Lock()
	oldKey, known := r.modKeys[path]
	r.mu.Unlock()

	if known && oldKey == newKey {
		return false
	}

	r.mu.Lock()
	r.modKeys[path] = newKey
	r.mu.Unlock()
	r.dropCaches(path)
	return true
}

func (r *RealFS) dropCaches(path string) {
	r.mu.Lock()
	delete(r.statCache, path)
	delete(r.readCache, path)
	delete(r.hashCache, path)
	delete(r.realCache, path)
	r.mu.Unlock()
}
