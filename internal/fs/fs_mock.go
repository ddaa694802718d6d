// This is a mock implementation of the "fs" module for use with tests. It
// does not actually read from the file system; instead it reads from a
// pre-specified map of file paths to contents. Symlinks are modeled
// explicitly so resolver/scanner tests can exercise realpath coalescing
// without a real filesystem.
package fs

import (
	"crypto/sha1"
	"path/filepath"
)

type MockFS struct {
	files    map[string]string
	symlinks map[string]string // path -> target (may itself be relative)
	watched  map[string]bool
}

func NewMockFS(files map[string]string) *MockFS {
	return &MockFS{
		files:    files,
		symlinks: map[string]string{},
		watched:  map[string]bool{},
	}
}

// AddSymlink registers path as a symlink pointing at target. target may be
// any other path already present in the mock (file, directory prefix, or
// another symlink).
func (fs *MockFS) AddSymlink(path string, target string) {
	fs.symlinks[path] = target
}

func (fs *MockFS) StatOrNull(path string) Kind {
	if real, ok := fs.resolveSymlinks(path); ok {
		path = real
	}
	if _, ok := fs.files[path]; ok {
		return FileEntry
	}
	prefix := path + "/"
	for p := range fs.files {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			return DirEntry
		}
	}
	return NoEntry
}

func (fs *MockFS) LstatIsSymlink(path string) bool {
	_, ok := fs.symlinks[path]
	return ok
}

func (fs *MockFS) ReadFile(path string) ([]byte, error) {
	if real, ok := fs.resolveSymlinks(path); ok {
		path = real
	}
	if data, ok := fs.files[path]; ok {
		return []byte(data), nil
	}
	return nil, errNotExist(path)
}

func (fs *MockFS) HashOrNull(path string) ([sha1.Size]byte, bool) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return [sha1.Size]byte{}, false
	}
	return sha1.Sum(data), true
}

func (fs *MockFS) resolveSymlinks(path string) (string, bool) {
	seen := map[string]bool{}
	changed := false
	for {
		target, ok := fs.symlinks[path]
		if !ok || seen[path] {
			return path, changed
		}
		seen[path] = true
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
		changed = true
	}
}

func (fs *MockFS) RealpathOrNull(path string) (string, bool) {
	if fs.StatOrNull(path) == NoEntry {
		return "", false
	}
	real, _ := fs.resolveSymlinks(path)
	return real, true
}

func (fs *MockFS) WriteFileAtomically(path string, data []byte) error {
	fs.files[path] = string(data)
	return nil
}

func (fs *MockFS) ShouldWatch(path string) bool {
	fs.watched[path] = true
	return DefaultShouldWatch(path)
}

func (fs *MockFS) Watched(path string) bool {
	return fs.watched[path]
}

type mockNotExistError string

func (e mockNotExistError) Error() string { return "file does not exist: " + string(e) }
func errNotExist(path string) error       { return mockNotExistError(path) }
