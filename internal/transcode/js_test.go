package transcode

import "testing"

func TestCompileJSReifiesImportsByDefault(t *testing.T) {
	c := NewJSCompileCache(nil, "")
	out := c.CompileJS(`import x from "./x";`, false, false, "web.browser")
	want := `module.link("./x", { "*": "*+" });`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestCompileJSPassesThroughCoreJS(t *testing.T) {
	c := NewJSCompileCache(nil, "")
	src := `import x from "./x";`
	out := c.CompileJS(src, true, false, "web.browser")
	if out != src {
		t.Fatalf("expected core-js source to pass through unchanged, got %q", out)
	}
}

func TestCompileJSMemoizesByHashAndArch(t *testing.T) {
	c := NewJSCompileCache(nil, "")
	src := `import x from "./x";`
	first := c.CompileJS(src, false, false, "web.browser")
	second := c.CompileJS(src, false, false, "web.browser")
	if first != second {
		t.Fatalf("expected a memoized compile to be stable")
	}
	if len(c.memory) != 1 {
		t.Fatalf("expected one cache entry, got %d", len(c.memory))
	}

	c.CompileJS(src, false, false, "os")
	if len(c.memory) != 2 {
		t.Fatalf("expected a distinct cache entry per arch, got %d", len(c.memory))
	}
}

func TestIsCoreJSDetectsNodeModulesSubtree(t *testing.T) {
	if !IsCoreJS("/app/node_modules/core-js/modules/es.array.map.js") {
		t.Fatalf("expected core-js subtree to be detected")
	}
	if IsCoreJS("/app/node_modules/left-pad/index.js") {
		t.Fatalf("did not expect a non-core-js package to be detected")
	}
}
