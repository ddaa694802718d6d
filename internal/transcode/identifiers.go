// Package transcode is the handler registry (spec §4.3): per-extension
// transcoders that turn raw file contents into CommonJS-style module
// bodies, plus the import-identifier extractor the scanner calls while
// walking the graph. The spec treats both the rewriter and the extractor
// as opaque pure functions contributed by upstream compilers; this
// package supplies working, spec-shaped implementations of them rather
// than vendoring a full ECMAScript parser, since a real parser is
// explicitly out of scope (spec §1 "Out of scope").
package transcode

import "regexp"

// Identifier is the per-specifier shape findImportedModuleIdentifiers
// yields; the scanner folds this into a graph.ImportInfo once it knows
// the importer's path and current dynamic context.
type Identifier struct {
	// Dynamic is true only if every occurrence of this specifier in the
	// source was a dynamic import() call; a single static occurrence
	// downgrades it to false, since static always wins when merging
	// (spec's imported tri-state is monotonic the same way).
	Dynamic bool
}

var (
	moduleLinkRe          = regexp.MustCompile(`module\.link\(\s*["']([^"']+)["']`)
	moduleDynamicImportRe = regexp.MustCompile(`module\.dynamicImport\(\s*["']([^"']+)["']\s*\)`)
)

// FindImportedModuleIdentifiers is the consumed pure function from spec
// §6.4. It scans already-reified module bodies (module.link/
// module.dynamicImport calls, the form every JS body in this scanner is
// stored in, whether produced by Reify or contributed directly by an
// upstream compiler) rather than raw ESM import/export syntax; a body
// containing literal import/export statements has not been reified yet
// and must go through Reify first. It never fails: a regex-based scan
// has nothing it can report as a parse error, so it returns only the
// identifier map.
func FindImportedModuleIdentifiers(source string) map[string]Identifier {
	out := map[string]Identifier{}

	markStatic := func(specifier string) {
		out[specifier] = Identifier{Dynamic: false}
	}
	markDynamic := func(specifier string) {
		if _, ok := out[specifier]; !ok {
			out[specifier] = Identifier{Dynamic: true}
		}
	}

	for _, m := range moduleLinkRe.FindAllStringSubmatch(source, -1) {
		markStatic(m[1])
	}
	for _, m := range moduleDynamicImportRe.FindAllStringSubmatch(source, -1) {
		markDynamic(m[1])
	}

	return out
}
