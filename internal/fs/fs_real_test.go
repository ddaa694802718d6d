package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRealFSStatAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	if err := os.WriteFile(path, []byte("exports.x = 1;\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	r := NewRealFS()
	if r.StatOrNull(path) != FileEntry {
		t.Fatalf("expected a.js to stat as a file")
	}
	if r.StatOrNull(filepath.Join(dir, "missing.js")) != NoEntry {
		t.Fatalf("expected a missing path to stat as NoEntry")
	}

	data, err := r.ReadFile(path)
	if err != nil || string(data) != "exports.x = 1;\n" {
		t.Fatalf("got (%q, %v)", data, err)
	}
}

func TestRealFSReadFileIsMemoized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	os.WriteFile(path, []byte("one"), 0o644)

	r := NewRealFS()
	first, _ := r.ReadFile(path)
	os.WriteFile(path, []byte("two"), 0o644)
	second, _ := r.ReadFile(path)

	if string(first) != string(second) {
		t.Fatalf("expected the memoized read to survive an on-disk change until Invalidate is called")
	}
}

func TestRealFSInvalidateDropsStaleCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	os.WriteFile(path, []byte("one"), 0o644)

	r := NewRealFS()
	first, _ := r.ReadFile(path)
	if string(first) != "one" {
		t.Fatalf("got %q", first)
	}

	os.WriteFile(path, []byte("two"), 0o644)
	r.Invalidate(path)

	second, _ := r.ReadFile(path)
	if string(second) != "two" {
		t.Fatalf("expected Invalidate to drop the stale read cache, got %q", second)
	}
}

func TestRealFSInvalidateIsNoopWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	os.WriteFile(path, []byte("one"), 0o644)
	// Backdate the mtime past modKeySafetyGap so a modKey can be formed.
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("setup: %v", err)
	}

	r := NewRealFS()
	r.ReadFile(path)
	r.Invalidate(path) // establishes the baseline modKey

	if r.Invalidate(path) {
		t.Fatalf("expected a second Invalidate with no on-disk change to report false")
	}
}

func TestRealFSHashOrNull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	os.WriteFile(path, []byte("exports.x = 1;\n"), 0o644)

	r := NewRealFS()
	h, ok := r.HashOrNull(path)
	if !ok {
		t.Fatalf("expected a hash for an existing file")
	}
	if h2, _ := r.HashOrNull(path); h2 != h {
		t.Fatalf("expected a stable hash across calls")
	}

	if _, ok := r.HashOrNull(filepath.Join(dir, "missing.js")); ok {
		t.Fatalf("expected no hash for a missing file")
	}
}

func TestRealFSRealpathFollowsSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.js")
	os.WriteFile(real, []byte("x"), 0o644)
	link := filepath.Join(dir, "link.js")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	r := NewRealFS()
	resolved, ok := r.RealpathOrNull(link)
	if !ok || resolved != real {
		t.Fatalf("got (%q, %v), want (%q, true)", resolved, ok, real)
	}
}

func TestRealFSWriteFileAtomicallyCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.js")

	r := NewRealFS()
	if err := r.WriteFileAtomically(path, []byte("ok")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "ok" {
		t.Fatalf("got (%q, %v)", data, err)
	}
}
