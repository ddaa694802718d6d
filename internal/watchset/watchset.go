// Package watchset tracks the files a scan depended on so a surrounding
// build watcher can re-invoke the scanner when any of them change. The
// live notification side drives off github.com/fsnotify/fsnotify.
package watchset

import (
	"crypto/sha1"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// WatchSet records, for every file the scanner touched, the content hash
// observed at scan time. A rebuild is only warranted once the on-disk hash
// diverges from what's recorded here.
type WatchSet struct {
	mu     sync.Mutex
	hashes map[string][sha1.Size]byte
}

func New() *WatchSet {
	return &WatchSet{hashes: map[string][sha1.Size]byte{}}
}

func (w *WatchSet) AddFile(absPath string, hash [sha1.Size]byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hashes[absPath] = hash
}

func (w *WatchSet) Files() map[string][sha1.Size]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string][sha1.Size]byte, len(w.hashes))
	for k, v := range w.hashes {
		out[k] = v
	}
	return out
}

// Watcher bridges a WatchSet to a live fsnotify.Watcher: it watches the
// parent directory of every file in the set (fsnotify has no per-file
// watch on most platforms) and reports paths whose containing directory
// changed, leaving the caller to re-hash and decide whether a rebuild is
// actually needed.
type Watcher struct {
	fsw     *fsnotify.Watcher
	Changed chan string
}

func NewWatcher(set *WatchSet) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := map[string]bool{}
	for path := range set.Files() {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		// Best-effort: a directory that no longer exists is simply skipped
		// rather than treated as a fatal setup error.
		_ = fsw.Add(dir)
	}

	w := &Watcher{fsw: fsw, Changed: make(chan string, 64)}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				close(w.Changed)
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.Changed <- event.Name
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
