package transcode

import "testing"

func TestCompileCSSWrapsInExportCssShim(t *testing.T) {
	out := CompileCSS("body { color: red; }", "abc123")
	want := `module.exportCss("body { color: red; }", "abc123");` + "\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestCompileCSSEscapesQuotesAndNewlines(t *testing.T) {
	out := CompileCSS("content: \"hi\";\n", "h")
	want := `module.exportCss("content: \"hi\";\n", "h");` + "\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}
