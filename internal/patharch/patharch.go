// Package patharch implements the path/arch policy: pure functions
// mapping absolute filesystem paths to logical absolute module
// identifiers given a target architecture and an optional package-name
// context.
package patharch

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Arch is the target architecture tag, e.g. "web.browser",
// "web.browser.legacy", "web.cordova", "os", "os.linux.x86_64".
type Arch string

func (a Arch) IsWeb() bool {
	return strings.HasPrefix(string(a), "web.") || a == "web"
}

func (a Arch) IsServer() bool {
	return !a.IsWeb()
}

// excludedTopLevelPatterns are glob patterns matched against an app
// source tree's top-level directory component (spec §4.4). Matching
// goes through github.com/bmatcuk/doublestar/v4 rather than plain
// string equality; the list is fixed here and Policy has no field to
// extend it.
var excludedTopLevelPatterns = []string{
	"private",
	"packages",
	"programs",
	"cordova-build-override",
}

// dotfileComponentPattern matches a path component that begins with a
// dot (spec §4.4: "any directory component beginning with .").
const dotfileComponentPattern = ".*"

// Policy carries the per-scan configuration the id derivation needs:
// the roots to check and the scan's optional package name.
type Policy struct {
	SourceRoot       string
	NodeModulesPaths []string
	Arch             Arch

	// Name is the scanner's "name" (spec §4.1): empty for an application
	// scan, non-empty for a package scan, which reroots ids under
	// node_modules/meteor/<stripped name>/.
	Name string
}

// StrippedName removes a leading "local-test:" or "local-test_" prefix
// from a package scan's name, per spec §4.4.
func StrippedName(name string) string {
	for _, prefix := range []string{"local-test:", "local-test_"} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return name
}

// GetAbsModuleID implements the two-stage derivation from spec §4.4. The
// bool result is false when the path isn't installable on this arch (an
// exclusion matched, or the path is outside every known root) — callers
// must then leave the File's AbsModuleID unset.
func (p Policy) GetAbsModuleID(absPath string) (string, bool) {
	for _, nm := range p.NodeModulesPaths {
		if rel, ok := relUnder(nm, absPath); ok {
			id := normalize(path.Join("node_modules", rel))
			return p.reroot(id), true
		}
	}

	rel, ok := relUnder(p.SourceRoot, absPath)
	if !ok {
		return "", false
	}

	if p.isExcluded(rel) {
		return "", false
	}

	return p.reroot(rel), true
}

func (p Policy) reroot(id string) string {
	id = normalize(id)
	if p.Name != "" {
		id = normalize(path.Join("node_modules/meteor", StrippedName(p.Name), id))
	}
	return id
}

// isExcluded applies every arch-gated and unconditional exclusion rule
// from spec §4.4. node_modules/ subtrees are always exempt.
func (p Policy) isExcluded(rel string) bool {
	if strings.HasPrefix(rel, "node_modules/") || rel == "node_modules" {
		return false
	}

	parts := strings.Split(rel, "/")
	for _, pattern := range excludedTopLevelPatterns {
		if ok, _ := doublestar.Match(pattern, parts[0]); ok {
			return true
		}
	}
	for _, part := range parts {
		if part == "." {
			continue
		}
		if ok, _ := doublestar.Match(dotfileComponentPattern, part); ok {
			return true
		}
	}

	if p.Arch.IsWeb() && (parts[0] == "server") {
		return true
	}
	if p.Arch.IsServer() && (parts[0] == "client") {
		return true
	}

	return false
}

// ShouldUseNode reports whether a server-arch module should be delegated
// to the host's native `require` instead of being scanned further (spec
// §4.4). Packages rerooted under node_modules/meteor/... are Meteor's own
// and are always compiled normally.
func ShouldUseNode(arch Arch, absModuleID string) bool {
	if arch.IsWeb() {
		return false
	}
	if !strings.Contains(absModuleID, "node_modules") {
		return false
	}
	return !strings.Contains(absModuleID, "node_modules/meteor/")
}

func relUnder(root string, absPath string) (string, bool) {
	if root == "" {
		return "", false
	}
	root = strings.TrimSuffix(filepathToSlash(root), "/")
	p := filepathToSlash(absPath)
	if p == root {
		return "", true
	}
	prefix := root + "/"
	if strings.HasPrefix(p, prefix) {
		return strings.TrimPrefix(p, prefix), true
	}
	return "", false
}

func normalize(id string) string {
	id = filepathToSlash(id)
	id = strings.TrimPrefix(id, "/")
	return "/" + id
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
