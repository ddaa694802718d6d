package transcode

import "testing"

func TestSpeculativeParseCacheAcceptsPlainText(t *testing.T) {
	c := NewSpeculativeParseCache()
	if !c.LooksLikeJS([]byte("exports.x = 1;\n")) {
		t.Fatalf("expected plain JS-looking text to pass")
	}
}

func TestSpeculativeParseCacheRejectsBinary(t *testing.T) {
	c := NewSpeculativeParseCache()
	if c.LooksLikeJS([]byte("abc\x00def")) {
		t.Fatalf("expected a NUL byte to fail the speculative check")
	}
}

func TestSpeculativeParseCacheMemoizesByHash(t *testing.T) {
	c := NewSpeculativeParseCache()
	data := []byte("exports.x = 1;\n")
	first := c.LooksLikeJS(data)
	second := c.LooksLikeJS(data)
	if first != second {
		t.Fatalf("expected a memoized result to be stable")
	}
	if len(c.results) != 1 {
		t.Fatalf("expected exactly one memoized entry, got %d", len(c.results))
	}
}
