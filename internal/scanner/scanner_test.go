package scanner

import (
	"testing"

	"github.com/filipenevola/import-scanner/internal/fs"
	"github.com/filipenevola/import-scanner/internal/graph"
	"github.com/filipenevola/import-scanner/internal/patharch"
)

func newTestScanner(name string, arch patharch.Arch, files map[string]string) (*Scanner, *fs.MockFS) {
	mock := fs.NewMockFS(files)
	s := New(name, arch, []string{".js", ".json"}, "/app", []string{"/app/node_modules"}, "", mock)
	return s, mock
}

func seedEager(absPath, body string) *graph.File {
	f := graph.NewFile(absPath, body)
	return f
}

func TestSimpleAppGraphWalk(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{
		"/app/lib.js": "exports.x = 1;\n",
	})

	main := seedEager("/app/main.js", `module.link("./lib", { "*": "*+" });`)
	s.AddInputFiles([]*graph.File{main})
	s.ScanImports()

	out := s.GetOutputFiles()
	if len(out) != 2 {
		t.Fatalf("expected main.js + lib.js in output, got %d: %+v", len(out), out)
	}

	lib := findByPath(out, "/app/lib.js")
	if lib == nil {
		t.Fatalf("lib.js was not resolved/scanned")
	}
	if lib.Imported != graph.Static {
		t.Fatalf("expected lib.js to be statically imported, got %v", lib.Imported)
	}
}

func TestDynamicImportOnWebArchStaysDynamic(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{
		"/app/lib.js": "exports.x = 1;\n",
	})

	main := seedEager("/app/main.js", `module.dynamicImport("./lib")`)
	s.AddInputFiles([]*graph.File{main})
	s.ScanImports()

	lib := findByPath(s.GetOutputFiles(), "/app/lib.js")
	if lib == nil {
		t.Fatalf("lib.js was not resolved")
	}
	if lib.Imported != graph.Dynamic {
		t.Fatalf("expected lib.js to stay dynamic on a web arch, got %v", lib.Imported)
	}
}

func TestDynamicImportOnServerArchCollapsesToStatic(t *testing.T) {
	s, _ := newTestScanner("", "os", map[string]string{
		"/app/lib.js": "exports.x = 1;\n",
	})

	main := seedEager("/app/main.js", `module.dynamicImport("./lib")`)
	s.AddInputFiles([]*graph.File{main})
	s.ScanImports()

	lib := findByPath(s.GetOutputFiles(), "/app/lib.js")
	if lib == nil {
		t.Fatalf("lib.js was not resolved")
	}
	if lib.Imported != graph.Static {
		t.Fatalf("server arches have no code-splitting; expected static, got %v", lib.Imported)
	}
}

func TestDynamicPromotionPropagatesToTransitiveDeps(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{
		"/app/common.js": `module.link("./leaf", { "*": "*+" });`,
		"/app/leaf.js":   "exports.x = 1;\n",
	})

	// mainA reaches common.js dynamically first; mainB reaches it statically
	// on the same pass. The second, stronger reach must re-walk common.js's
	// own edges so the promotion propagates down to leaf.js, even though
	// common.js's deps were already extracted on the first (dynamic) visit.
	mainA := seedEager("/app/mainA.js", `module.dynamicImport("./common")`)
	mainB := seedEager("/app/mainB.js", `module.link("./common", { "*": "*+" });`)
	s.AddInputFiles([]*graph.File{mainA, mainB})
	s.ScanImports()

	out := s.GetOutputFiles()
	common := findByPath(out, "/app/common.js")
	if common == nil || common.Imported != graph.Static {
		t.Fatalf("expected common.js to be promoted to static, got %+v", common)
	}
	leaf := findByPath(out, "/app/leaf.js")
	if leaf == nil {
		t.Fatalf("leaf.js was not resolved transitively")
	}
	if leaf.Imported != graph.Static {
		t.Fatalf("expected the static promotion to propagate down to leaf.js, got %v", leaf.Imported)
	}
}

func TestMissingModuleIsRecorded(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{})

	main := seedEager("/app/main.js", `module.link("./nope", { "*": "*+" });`)
	s.AddInputFiles([]*graph.File{main})
	s.ScanImports()

	missing := s.MissingModules()
	if _, ok := missing["./nope"]; !ok {
		t.Fatalf("expected ./nope to be recorded as missing: %+v", missing)
	}
}

func TestScanMissingModulesResolvesOnceInstalled(t *testing.T) {
	s, mock := newTestScanner("", "os", map[string]string{})

	main := seedEager("/app/main.js", `module.link("left-pad", { "*": "*+" });`)
	s.AddInputFiles([]*graph.File{main})
	s.ScanImports()

	missing := s.MissingModules()
	if _, ok := missing["left-pad"]; !ok {
		t.Fatalf("expected left-pad to be missing before install: %+v", missing)
	}

	mock.WriteFileAtomically("/app/node_modules/left-pad/index.js", []byte("exports.x = 1;\n"))
	mock.WriteFileAtomically("/app/node_modules/left-pad/package.json", []byte(`{"main": "index.js"}`))

	newlyAdded, newlyMissing := s.ScanMissingModules(missing)
	if _, ok := newlyAdded["left-pad"]; !ok {
		t.Fatalf("expected left-pad to resolve after install, newlyMissing=%+v", newlyMissing)
	}
	if _, ok := s.MissingModules()["left-pad"]; ok {
		t.Fatalf("left-pad should be cleared from the aggregate once resolved")
	}

	out := s.GetOutputFiles()
	if findByPath(out, "/app/node_modules/left-pad/index.js") == nil {
		t.Fatalf("left-pad/index.js should now be part of the output set: %+v", out)
	}
}

func TestBrowserFieldAliasThroughFullScanner(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{
		"/app/node_modules/pkg/package.json": `{"main": "node.js", "browser": "browser.js"}`,
		"/app/node_modules/pkg/browser.js":   "exports.x = 1;\n",
		"/app/node_modules/pkg/node.js":      "exports.x = 2;\n",
	})

	main := seedEager("/app/main.js", `module.link("pkg", { "*": "*+" });`)
	s.AddInputFiles([]*graph.File{main})
	s.ScanImports()

	out := s.GetOutputFiles()
	if findByPath(out, "/app/node_modules/pkg/browser.js") == nil {
		t.Fatalf("expected the browser-field main to be scanned, got %+v", out)
	}
	if findByPath(out, "/app/node_modules/pkg/node.js") != nil {
		t.Fatalf("the server main should never have been loaded on a web arch: %+v", out)
	}
}

func TestSourceTargetProxySynthesis(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{})

	f := graph.NewFile("/app/compiled.js", `module.exports = 1;`)
	f.SourcePath = "/app/main.coffee"
	f.TargetPath = "/app/compiled.js"
	s.AddInputFiles([]*graph.File{f})

	proxy := s.lookupByAbsPath("/app/main.coffee")
	if proxy == nil {
		t.Fatalf("expected a proxy File to be synthesized at the source path")
	}
	if !proxy.Implicit {
		t.Fatalf("the synthesized proxy must be implicit")
	}
	if proxy.DataString != `module.link("./compiled.js", { "*": "*+" });`+"\n" {
		t.Fatalf("unexpected proxy body: %q", proxy.DataString)
	}
}

func TestCombineFilesPanicsOnLazyMismatch(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{})

	a := graph.NewFile("/app/same.js", "one")
	a.Lazy = false
	b := graph.NewFile("/APP/same.js", "two")
	b.Lazy = true

	defer func() {
		if recover() == nil {
			t.Fatalf("expected combineFiles to panic on a lazy/bare mismatch")
		}
	}()
	s.AddInputFiles([]*graph.File{a, b})
}

func TestCombineFilesConcatenatesMatchingFlags(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{})

	a := graph.NewFile("/app/same.js", "one();")
	b := graph.NewFile("/APP/same.js", "two();")
	s.AddInputFiles([]*graph.File{a, b})

	merged := s.lookupByAbsPath("/app/same.js")
	if merged == nil {
		t.Fatalf("expected a merged file at the case-folded path")
	}
	if merged.DataString != "one();\n\ntwo();" {
		t.Fatalf("expected concatenated body, got %q", merged.DataString)
	}
}

func TestRealpathCoalescingPrefersNodeModulesContainer(t *testing.T) {
	s, mock := newTestScanner("", "web.browser", map[string]string{
		"/app/node_modules/left-pad/index.js": "exports.x = 1;\n",
	})
	mock.AddSymlink("/app/vendor/left-pad.js", "/app/node_modules/left-pad/index.js")

	// vendored is inserted first; the node_modules copy must still win the
	// container slot regardless of insertion order, per spec §4.1's
	// "first /node_modules/-prefixed File else first in group" rule.
	vendored := graph.NewFile("/app/vendor/left-pad.js", "exports.x = 1;\n")
	nodeModulesCopy := graph.NewFile("/app/node_modules/left-pad/index.js", "exports.x = 1;\n")
	s.AddInputFiles([]*graph.File{vendored, nodeModulesCopy})
	s.ScanImports()

	out := s.GetOutputFiles()
	container := findByPath(out, "/app/node_modules/left-pad/index.js")
	if container == nil {
		t.Fatalf("expected the node_modules copy to remain the container: %+v", out)
	}
	aliased := findByPath(out, "/app/vendor/left-pad.js")
	if aliased == nil || aliased.Alias == nil || aliased.Alias.AbsModuleID != container.AbsModuleID {
		t.Fatalf("expected the vendored sibling to alias to the node_modules container, got %+v", aliased)
	}
}

func TestLoadedFileTypeAlwaysReportsJS(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{
		"/app/data.json":  `{"a": 1}`,
		"/app/styles.css": "body { color: red; }",
	})

	main := seedEager("/app/main.js", `module.link("./data.json", { "*": "*+" });
module.link("./styles.css", { "*": "*+" });`)
	s.AddInputFiles([]*graph.File{main})
	s.ScanImports()

	out := s.GetOutputFiles()
	jsonFile := findByPath(out, "/app/data.json")
	if jsonFile == nil || jsonFile.Type != "js" {
		t.Fatalf("expected data.json to report Type \"js\", got %+v", jsonFile)
	}
	cssFile := findByPath(out, "/app/styles.css")
	if cssFile == nil || cssFile.Type != "js" {
		t.Fatalf("expected styles.css to report Type \"js\", got %+v", cssFile)
	}
}

func TestLoadedPackageJSONTypeAlwaysReportsJS(t *testing.T) {
	s, _ := newTestScanner("", "web.browser", map[string]string{
		"/app/node_modules/left-pad/package.json": `{"name": "left-pad", "main": "index.js"}`,
		"/app/node_modules/left-pad/index.js":     "exports.x = 1;\n",
	})

	main := seedEager("/app/main.js", `module.link("./node_modules/left-pad/package.json", { "*": "*+" });`)
	s.AddInputFiles([]*graph.File{main})
	s.ScanImports()

	pkg := findByPath(s.GetOutputFiles(), "/app/node_modules/left-pad/package.json")
	if pkg == nil || pkg.Type != "js" {
		t.Fatalf("expected package.json to report Type \"js\", got %+v", pkg)
	}
}

func findByPath(files []*graph.File, absPath string) *graph.File {
	for _, f := range files {
		if f.AbsPath == absPath {
			return f
		}
	}
	return nil
}
