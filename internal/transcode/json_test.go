package transcode

import (
	"encoding/json"
	"testing"
)

func TestCompileJSONWrapsInModuleExports(t *testing.T) {
	body, data, err := CompileJSON([]byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "module.exports = {\n  \"a\": 1\n};\n"
	if body != want {
		t.Fatalf("got %q, want %q", body, want)
	}
	var back map[string]int
	if err := json.Unmarshal(data, &back); err != nil || back["a"] != 1 {
		t.Fatalf("data round-trip failed: %v %v", data, err)
	}
}

func TestCompileJSONRejectsInvalidJSON(t *testing.T) {
	if _, _, err := CompileJSON([]byte(`not json`)); err == nil {
		t.Fatalf("expected an error for invalid JSON")
	}
}

func TestStripPrivateKeysRemovesUnderscorePrefixed(t *testing.T) {
	out, err := StripPrivateKeys([]byte(`{"name":"pkg","_resolved":"x","_from":"y"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(out, &obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := obj["_resolved"]; ok {
		t.Fatalf("expected _resolved to be stripped: %+v", obj)
	}
	if _, ok := obj["_from"]; ok {
		t.Fatalf("expected _from to be stripped: %+v", obj)
	}
	if obj["name"] != "pkg" {
		t.Fatalf("expected non-private keys to survive: %+v", obj)
	}
}

func TestStripPrivateKeysLeavesNonObjectUntouched(t *testing.T) {
	out, err := StripPrivateKeys([]byte(`[1,2,3]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `[1,2,3]` {
		t.Fatalf("got %q", out)
	}
}
