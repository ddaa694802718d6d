package transcode

import (
	"crypto/sha1"
	"regexp"
	"sync"
)

// binaryMarker backs a conservative speculative check used for unknown
// extensions (spec §4.3): real parsing is out of scope, so instead of a
// full parse the only test is that the body contains no NUL bytes (a
// reliable binary-file signal). This intentionally errs toward
// "looks like JS" since a false positive just gets parsed further down
// the pipeline and a false negative silently drops a file from output.
var binaryMarker = regexp.MustCompile("\x00")

// SpeculativeParseCache memoizes the plain-JS speculative check by
// content hash, per spec §4.3 ("memoized by hash").
type SpeculativeParseCache struct {
	mu      sync.Mutex
	results map[[sha1.Size]byte]bool
}

func NewSpeculativeParseCache() *SpeculativeParseCache {
	return &SpeculativeParseCache{results: map[[sha1.Size]byte]bool{}}
}

func (c *SpeculativeParseCache) LooksLikeJS(data []byte) bool {
	hash := sha1.Sum(data)

	c.mu.Lock()
	if v, ok := c.results[hash]; ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	result := !binaryMarker.Match(data)

	c.mu.Lock()
	c.results[hash] = result
	c.mu.Unlock()
	return result
}
