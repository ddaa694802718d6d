package transcode

import (
	"regexp"
	"strings"
)

// ReifyOptions controls the flags the scanner passes to the module-syntax
// rewriter.
type ReifyOptions struct {
	GenerateLetDeclarations bool
	AvoidModernSyntax       bool
	EnforceStrictMode       bool
	DynamicImport           bool
}

var (
	shebangRe       = regexp.MustCompile(`^#![^\n]*\n?`)
	exportNamedDecl = regexp.MustCompile(`(?m)^(\s*)export\s+(const|let|var|function\*?|class)\s+([A-Za-z_$][\w$]*)`)
	exportDefault   = regexp.MustCompile(`(?m)^(\s*)export\s+default\s+`)
	exportBraceList = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]*)\}\s*(?:from\s*["']([^"']+)["'])?\s*;?`)
	importStmt      = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(?:([^'"();]*?)\bfrom\s+)?["']([^"']+)["']\s*;?`)
	exportFromStmt  = regexp.MustCompile(`(?m)^\s*export\s+(?:[^'"();]*?\bfrom\s+)?["']([^"']+)["']\s*;?`)
	dynImportCall   = regexp.MustCompile(`import\s*\(\s*["']([^"']+)["']\s*\)`)
)

// Reify converts import/export syntax into module.link/module.export
// calls. It is a line-oriented simplification of a full ESM-to-CJS
// rewrite, producing a deterministic, content-hash-stable shape: every
// static import/re-export becomes
// `module.link("<specifier>", { "*": "*+" });`, live-binding re-export of
// both the default and named bindings, and every `import(...)` call
// becomes `module.dynamicImport("<specifier>")`.
func Reify(source string, opts ReifyOptions) string {
	body := shebangRe.ReplaceAllString(source, "")

	var exported []string
	body = exportNamedDecl.ReplaceAllStringFunc(body, func(m string) string {
		sub := exportNamedDecl.FindStringSubmatch(m)
		exported = append(exported, sub[3])
		keyword := sub[2]
		if opts.AvoidModernSyntax && (keyword == "const" || keyword == "let") {
			keyword = "var"
		} else if !opts.GenerateLetDeclarations && keyword == "let" {
			keyword = "var"
		}
		return sub[1] + keyword + " " + sub[3]
	})
	body = exportDefault.ReplaceAllString(body, "${1}module.exports.default = ")
	body = exportBraceList.ReplaceAllStringFunc(body, func(m string) string {
		sub := exportBraceList.FindStringSubmatch(m)
		if sub[2] != "" {
			return `module.link(` + quote(sub[2]) + `, { "*": "*+" });`
		}
		for _, name := range strings.Split(sub[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			exported = append(exported, strings.TrimSpace(strings.Split(name, " as ")[0]))
		}
		return ""
	})

	body = exportFromStmt.ReplaceAllStringFunc(body, func(m string) string {
		sub := exportFromStmt.FindStringSubmatch(m)
		return `module.link(` + quote(sub[1]) + `, { "*": "*+" });`
	})

	body = importStmt.ReplaceAllStringFunc(body, func(m string) string {
		sub := importStmt.FindStringSubmatch(m)
		return `module.link(` + quote(sub[2]) + `, { "*": "*+" });`
	})

	if opts.DynamicImport {
		body = dynImportCall.ReplaceAllStringFunc(body, func(m string) string {
			sub := dynImportCall.FindStringSubmatch(m)
			return `module.dynamicImport(` + quote(sub[1]) + `)`
		})
	}

	if len(exported) > 0 {
		var b strings.Builder
		b.WriteString("module.export({")
		for i, name := range exported {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			b.WriteString(": () => ")
			b.WriteString(name)
		}
		b.WriteString("});\n")
		body = b.String() + body
	}

	if opts.EnforceStrictMode {
		body = `"use strict";` + "\n" + body
	}

	return body
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
