package transcode

import "fmt"

// CompileCSS wraps a stylesheet in the module runtime's CSS-import shim,
// keyed by the content hash (spec §4.3). The shim itself is a small,
// fixed runtime call; actual CSS parsing/minification is out of scope
// (spec §1 Non-goals: "does not minify or optimize").
func CompileCSS(source string, hash string) string {
	return fmt.Sprintf("module.exportCss(%s, %q);\n", quoteJS(source), hash)
}

// quoteJS renders s as a JS string literal, escaping the handful of
// characters that matter for a double-quoted literal.
func quoteJS(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		default:
			out = append(out, c)
		}
	}
	out = append(out, '"')
	return string(out)
}
