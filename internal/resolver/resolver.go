// Package resolver implements node-style module resolution parameterized
// by target arch, extensions, and configured node_modules directories:
// extension search order, directory "main" fallback, and an ancestor
// node_modules walk. package.json field reads use github.com/tidwall/gjson
// rather than a struct-based JSON parser, since the resolver only reads a
// handful of scalar/object fields out of an otherwise-unvalidated blob.
package resolver

import (
	"sync"

	"github.com/filipenevola/import-scanner/internal/fs"
	"github.com/filipenevola/import-scanner/internal/patharch"
)

type Kind uint8

const (
	Resolved Kind = iota
	Missing
	Native
	Alias
)

// VirtualStat lets the scanner's in-memory file set participate in
// resolution: when it returns ok=true, its Kind overrides whatever the
// real (or mock) filesystem would have reported for path. This is the
// "statOrNull" injection point from spec §4.2, modeled as an explicit
// per-call parameter rather than a hook rebound onto a shared Resolver,
// per the design note in spec §9.
type VirtualStat func(path string) (kind fs.Kind, ok bool)

// Result is the outcome of a single Resolve call.
type Result struct {
	Kind Kind

	// Populated when Kind == Resolved. An Alias result carries neither.
	Path string
	ID   string

	// PackageJSONs lists, in consultation order, every package.json whose
	// presence affected this lookup.
	PackageJSONs []string

	// Populated when Kind == Native.
	NativeID string

	// Populated when Kind == Alias and the browser field disabled the
	// target outright (`"browser": {"pkg": false}`).
	Disabled bool
}

type Resolver struct {
	FS         fs.FS
	Extensions []string // search order, e.g. [".js", ".json"]
	Policy     patharch.Policy

	mu      sync.Mutex
	pkgJSON map[string]*PackageJSON
}

func New(fsys fs.FS, extensions []string, policy patharch.Policy) *Resolver {
	return &Resolver{
		FS:         fsys,
		Extensions: extensions,
		Policy:     policy,
		pkgJSON:    map[string]*PackageJSON{},
	}
}

// Resolve resolves specifier as imported from referrerAbsPath.
func (r *Resolver) Resolve(specifier string, referrerAbsPath string, virtual VirtualStat) Result {
	if IsNative(specifier) {
		if !r.Policy.Arch.IsWeb() {
			return Result{Kind: Native, NativeID: specifier}
		}
		specifier = GetNativeStubId(specifier)
	}

	var probed []string
	var target string
	var ok bool

	if !IsPackagePath(specifier) {
		dir := fs.Dir(referrerAbsPath)
		target, ok = r.loadAsFileOrDirectory(fs.Join(dir, specifier), virtual, &probed)
	} else {
		target, ok = r.resolveBare(specifier, referrerAbsPath, virtual, &probed)
	}

	if !ok {
		return Result{Kind: Missing, PackageJSONs: probed}
	}

	if r.Policy.Arch.IsWeb() {
		if aliasPath, disabled, applied := r.applyBrowserMap(referrerAbsPath, target, specifier, virtual, &probed); applied {
			if disabled {
				return Result{Kind: Alias, Disabled: true, PackageJSONs: probed}
			}
			target = aliasPath
		}
	}

	id, hasID := r.Policy.GetAbsModuleID(target)
	if !hasID {
		return Result{Kind: Missing, PackageJSONs: probed}
	}
	return Result{Kind: Resolved, Path: target, ID: id, PackageJSONs: probed}
}

func (r *Resolver) resolveBare(specifier, referrerAbsPath string, virtual VirtualStat, probed *[]string) (string, bool) {
	for _, dir := range r.ancestorNodeModulesDirs(fs.Dir(referrerAbsPath)) {
		if target, ok := r.loadAsFileOrDirectory(fs.Join(dir, specifier), virtual, probed); ok {
			return target, true
		}
	}
	for _, dir := range r.Policy.NodeModulesPaths {
		if target, ok := r.loadAsFileOrDirectory(fs.Join(dir, specifier), virtual, probed); ok {
			return target, true
		}
	}
	return "", false
}

func (r *Resolver) ancestorNodeModulesDirs(start string) []string {
	var dirs []string
	for cur := start; ; {
		dirs = append(dirs, fs.Join(cur, "node_modules"))
		parent := fs.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return dirs
}

// loadAsFileOrDirectory tries path verbatim, then path+ext for each
// configured extension, then (if path is a directory) its package.json
// "main" field and finally index.<ext>.
func (r *Resolver) loadAsFileOrDirectory(path string, virtual VirtualStat, probed *[]string) (string, bool) {
	if r.statKind(path, virtual) == fs.FileEntry {
		return path, true
	}

	for _, ext := range r.Extensions {
		candidate := path + ext
		if r.statKind(candidate, virtual) == fs.FileEntry {
			return candidate, true
		}
	}

	if r.statKind(path, virtual) != fs.DirEntry {
		return "", false
	}

	pkgPath := fs.Join(path, "package.json")
	if pkg := r.readPackageJSON(pkgPath, virtual, probed); pkg != nil {
		main := pkg.Main
		if r.Policy.Arch.IsWeb() && pkg.BrowserMain != "" {
			main = pkg.BrowserMain
		}
		if main != "" {
			if target, ok := r.loadAsFileOrDirectoryNoPkgWalk(fs.Join(path, main), virtual); ok {
				return target, true
			}
		}
	}

	index := fs.Join(path, "index")
	for _, ext := range r.Extensions {
		candidate := index + ext
		if r.statKind(candidate, virtual) == fs.FileEntry {
			return candidate, true
		}
	}

	return "", false
}

// loadAsFileOrDirectoryNoPkgWalk resolves a "main"/"browser" target
// (itself possibly lacking an extension) without re-walking package.json
// main fields recursively.
func (r *Resolver) loadAsFileOrDirectoryNoPkgWalk(path string, virtual VirtualStat) (string, bool) {
	if r.statKind(path, virtual) == fs.FileEntry {
		return path, true
	}
	for _, ext := range r.Extensions {
		if r.statKind(path+ext, virtual) == fs.FileEntry {
			return path + ext, true
		}
	}
	index := fs.Join(path, "index")
	for _, ext := range r.Extensions {
		if r.statKind(index+ext, virtual) == fs.FileEntry {
			return index + ext, true
		}
	}
	return "", false
}

func (r *Resolver) statKind(path string, virtual VirtualStat) fs.Kind {
	if virtual != nil {
		if kind, ok := virtual(path); ok {
			return kind
		}
	}
	return r.FS.StatOrNull(path)
}

func (r *Resolver) readPackageJSON(pkgPath string, virtual VirtualStat, probed *[]string) *PackageJSON {
	r.mu.Lock()
	if pkg, ok := r.pkgJSON[pkgPath]; ok {
		r.mu.Unlock()
		*probed = append(*probed, pkgPath)
		return pkg
	}
	r.mu.Unlock()

	if r.statKind(pkgPath, virtual) != fs.FileEntry {
		return nil
	}
	data, err := r.FS.ReadFile(pkgPath)
	if err != nil {
		return nil
	}

	pkg := ParsePackageJSON(data, pkgPath, fs.Dir(pkgPath), r.Policy.Arch.IsWeb())

	r.mu.Lock()
	r.pkgJSON[pkgPath] = pkg
	r.mu.Unlock()

	*probed = append(*probed, pkgPath)
	return pkg
}

// applyBrowserMap implements the spec §4.2/§8.4.5 browser-field alias
// table: a non-package-path key remaps one resolved file within the same
// package to another; a package-path key remaps (or disables) a whole
// bare specifier. Cross-package remaps are refused (the mapping is
// ignored and the originally resolved target is kept), and a remap whose
// target resolves back to the same file is discarded (spec §9 "browser
// self-reference" open question).
func (r *Resolver) applyBrowserMap(referrerAbsPath, target, specifier string, virtual VirtualStat, probed *[]string) (aliasPath string, disabled bool, applied bool) {
	ownerDir := r.nearestPackageDir(fs.Dir(referrerAbsPath), virtual)
	if ownerDir == "" {
		return "", false, false
	}
	pkg := r.readPackageJSON(fs.Join(ownerDir, "package.json"), virtual, probed)
	if pkg == nil {
		return "", false, false
	}

	if IsPackagePath(specifier) && pkg.BrowserPackageMap != nil {
		if value, ok := pkg.BrowserPackageMap[specifier]; ok {
			if value == nil {
				return "", true, true
			}
			if IsPackagePath(*value) {
				// Cross-package remap: refused.
				return "", false, false
			}
			if newTarget, ok := r.loadAsFileOrDirectoryNoPkgWalk(fs.Join(pkg.Dir, *value), virtual); ok {
				if r.samePath(newTarget, target) {
					return "", false, false
				}
				return newTarget, false, true
			}
			return "", false, false
		}
	}

	// Non-package-path keys are themselves relative specifiers (e.g.
	// "./util.js"), resolved from the package root, so each key must be
	// resolved before it can be compared against the already-resolved
	// target.
	for key, value := range pkg.BrowserNonPackageMap {
		keyTarget, ok := r.loadAsFileOrDirectoryNoPkgWalk(fs.Join(pkg.Dir, key), virtual)
		if !ok || !r.samePath(keyTarget, target) {
			continue
		}
		if value == nil {
			return "", true, true
		}
		if newTarget, ok := r.loadAsFileOrDirectoryNoPkgWalk(fs.Join(pkg.Dir, *value), virtual); ok {
			if r.samePath(newTarget, target) {
				return "", false, false
			}
			return newTarget, false, true
		}
	}

	return "", false, false
}

func (r *Resolver) samePath(a, b string) bool {
	if a == b {
		return true
	}
	ra, aok := r.FS.RealpathOrNull(a)
	rb, bok := r.FS.RealpathOrNull(b)
	return aok && bok && ra == rb
}

func (r *Resolver) nearestPackageDir(dir string, virtual VirtualStat) string {
	for cur := dir; ; {
		if r.statKind(fs.Join(cur, "package.json"), virtual) == fs.FileEntry {
			return cur
		}
		parent := fs.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}
