package transcode

import (
	"crypto/sha1"
	"strings"
	"sync"

	"github.com/filipenevola/import-scanner/internal/fs"
)

// CacheKey identifies a compiled JS body by content hash and bundle arch,
// per spec §4.3 ("memoized by (sourceHash, bundleArch)").
type CacheKey struct {
	Hash [sha1.Size]byte
	Arch string
}

// JSCompileCache memoizes Reify output in memory and, when a cache
// directory is configured, persists each compiled body to disk so a later
// scan (or process) can skip recompilation. Disk writes are pushed onto a
// bounded background writer goroutine so CompileJS never blocks on a disk
// write (spec §5 "Deferred cache writes"); a disk-cache read on a memory
// miss is still synchronous. The scan proceeds immediately and a
// crash between compile and write can't corrupt the cache, since every
// write goes through fs.WriteFileAtomically's temp-file-plus-rename.
type JSCompileCache struct {
	mu       sync.Mutex
	memory   map[CacheKey]string
	fsys     fs.FS
	cacheDir string
	writes   chan diskWrite
	wg       sync.WaitGroup
}

type diskWrite struct {
	key  CacheKey
	body string
}

func NewJSCompileCache(fsys fs.FS, cacheDir string) *JSCompileCache {
	c := &JSCompileCache{
		memory:   map[CacheKey]string{},
		fsys:     fsys,
		cacheDir: cacheDir,
	}
	if cacheDir != "" && fsys != nil {
		c.writes = make(chan diskWrite, 64)
		c.wg.Add(1)
		go c.runWriter()
	}
	return c
}

func (c *JSCompileCache) runWriter() {
	defer c.wg.Done()
	for w := range c.writes {
		_ = c.fsys.WriteFileAtomically(c.diskPath(w.key), []byte(w.body))
	}
}

// Close drains the pending writer queue. Callers that don't need the disk
// cache to be durable before exiting may skip this.
func (c *JSCompileCache) Close() {
	if c.writes != nil {
		close(c.writes)
		c.wg.Wait()
	}
}

// CompileJS reifies source unless isCoreJS says to pass it through
// unchanged (spec §4.3: files under node_modules/core-js/ are never
// rewritten).
func (c *JSCompileCache) CompileJS(source string, isCoreJS bool, isLegacy bool, arch string) string {
	if isCoreJS {
		return source
	}

	key := CacheKey{Hash: sha1.Sum([]byte(source)), Arch: arch}

	c.mu.Lock()
	if body, ok := c.memory[key]; ok {
		c.mu.Unlock()
		return body
	}
	c.mu.Unlock()

	if body, ok := c.readDiskCache(key); ok {
		c.mu.Lock()
		c.memory[key] = body
		c.mu.Unlock()
		return body
	}

	body := Reify(source, ReifyOptions{
		GenerateLetDeclarations: !isLegacy,
		AvoidModernSyntax:       isLegacy,
		EnforceStrictMode:       false,
		DynamicImport:           true,
	})

	c.mu.Lock()
	c.memory[key] = body
	c.mu.Unlock()

	if c.writes != nil {
		select {
		case c.writes <- diskWrite{key: key, body: body}:
		default:
			// Writer queue is backed up; the in-memory cache already has
			// this entry, so losing the disk persist for it is harmless.
		}
	}

	return body
}

func (c *JSCompileCache) readDiskCache(key CacheKey) (string, bool) {
	if c.cacheDir == "" || c.fsys == nil {
		return "", false
	}
	data, err := c.fsys.ReadFile(c.diskPath(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (c *JSCompileCache) diskPath(key CacheKey) string {
	return fs.Join(c.cacheDir, key.Arch, "reify-"+hexString(key.Hash[:])+".js")
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0xf]
	}
	return string(out)
}

// IsCoreJS reports whether absPath lies inside a node_modules/core-js/
// subtree.
func IsCoreJS(absPath string) bool {
	return strings.Contains(absPath, "node_modules/core-js/") || strings.Contains(absPath, "node_modules\\core-js\\")
}
