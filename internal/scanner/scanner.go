// Package scanner owns the File set, walks the dependency graph edge by
// edge, and hands every file it touches to the resolver
// (internal/resolver) and handler registry (internal/transcode). It runs
// as a single-threaded, lock-free driver: one mutable struct walked by a
// single goroutine, with no locks on the hot path, since the graph walk
// is inherently sequential (discovering one file's imports can grow the
// worklist for the next).
package scanner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/filipenevola/import-scanner/internal/buildlog"
	"github.com/filipenevola/import-scanner/internal/fs"
	"github.com/filipenevola/import-scanner/internal/graph"
	"github.com/filipenevola/import-scanner/internal/patharch"
	"github.com/filipenevola/import-scanner/internal/resolver"
	"github.com/filipenevola/import-scanner/internal/transcode"
	"github.com/filipenevola/import-scanner/internal/watchset"
)

// Scanner is the single-threaded driver. Every method is expected to run
// on one logical task (spec §5); nothing here takes a lock.
type Scanner struct {
	Name   string
	Arch   patharch.Arch
	Policy patharch.Policy

	FS        fs.FS
	Resolver  *resolver.Resolver
	JSCache   *transcode.JSCompileCache
	SpecCache *transcode.SpeculativeParseCache
	WatchSet  *watchset.WatchSet
	Log       *buildlog.Log

	byFoldedPath         map[string]*graph.File
	representativeByReal map[string]*graph.File
	scanOrder            []*graph.File
	allMissingModules    map[string][]*graph.ImportInfo

	nativeStubs map[string]*graph.File
	emptyModule *graph.File
}

// New constructs a Scanner. name empty means an application scan; a
// non-empty name means a package scan, rerooting every module id under
// node_modules/meteor/<stripped name>/ (spec §4.1, §4.4).
func New(name string, arch patharch.Arch, extensions []string, sourceRoot string, nodeModulesPaths []string, cacheDir string, fsys fs.FS) *Scanner {
	policy := patharch.Policy{
		SourceRoot:       sourceRoot,
		NodeModulesPaths: nodeModulesPaths,
		Arch:             arch,
		Name:             name,
	}
	return &Scanner{
		Name:   name,
		Arch:   arch,
		Policy: policy,

		FS:        fsys,
		Resolver:  resolver.New(fsys, extensions, policy),
		JSCache:   transcode.NewJSCompileCache(fsys, cacheDir),
		SpecCache: transcode.NewSpeculativeParseCache(),
		WatchSet:  watchset.New(),
		Log:       buildlog.NewLog(),

		byFoldedPath:         map[string]*graph.File{},
		representativeByReal: map[string]*graph.File{},
		allMissingModules:    map[string][]*graph.ImportInfo{},
		nativeStubs:          map[string]*graph.File{},
	}
}

// AddInputFiles ingests seed files contributed by upstream compilers
// (spec §4.1 "Inputs and contract").
func (s *Scanner) AddInputFiles(files []*graph.File) {
	for _, f := range files {
		s.addInputFile(f)
	}
}

// addInputFile synthesizes the source/target proxy described in spec
// §4.1 "Source-vs-target proxying" before indexing the file itself.
func (s *Scanner) addInputFile(f *graph.File) {
	if f.SourcePath != "" && f.TargetPath != "" && f.SourcePath != f.TargetPath {
		relID := relativeSpecifier(f.SourcePath, f.TargetPath)
		proxy := graph.NewFile(f.SourcePath, fmt.Sprintf("module.link(%s, { \"*\": \"*+\" });\n", quoteSpecifier(relID)))
		proxy.Implicit = true
		proxy.Lazy = f.Lazy
		proxy.Bare = f.Bare
		proxy.DepsExtracted = true
		proxy.Deps = map[string]*graph.ImportInfo{relID: {}}
		s.insertAtFoldedPath(proxy, true)
		f.AbsPath = f.TargetPath
	}
	s.insertAtFoldedPath(f, false)
}

// insertAtFoldedPath enforces case-fold uniqueness (spec §3.3). When
// skipIfExplicitExists is set (the proxy-insertion path) an existing
// explicit file at the same location is left untouched, per spec:
// "An explicit (non-implicit) file at the source location must not be
// overridden."
func (s *Scanner) insertAtFoldedPath(f *graph.File, skipIfExplicitExists bool) {
	if !f.HasModuleID {
		if id, ok := s.Policy.GetAbsModuleID(f.AbsPath); ok {
			f.SetAbsModuleID(id)
		}
	}

	key := strings.ToLower(f.AbsPath)
	existing, collides := s.byFoldedPath[key]
	if !collides {
		s.byFoldedPath[key] = f
		s.scanOrder = append(s.scanOrder, f)
		s.indexRealPath(f)
		return
	}

	if skipIfExplicitExists && !existing.Implicit {
		return
	}

	merged, err := s.combineFiles(existing, f)
	if err != nil {
		panic(err)
	}
	s.byFoldedPath[key] = merged
	for i, sf := range s.scanOrder {
		if sf == existing {
			s.scanOrder[i] = merged
			break
		}
	}
	s.indexRealPath(merged)
}

// combineFiles implements spec §4.1 "File combination".
func (s *Scanner) combineFiles(existing, incoming *graph.File) (*graph.File, error) {
	if existing.Lazy != incoming.Lazy || existing.Bare != incoming.Bare {
		return nil, fmt.Errorf(
			"import-scanner: cannot combine files at %q: lazy/bare mismatch (existing lazy=%v bare=%v body=%q; incoming lazy=%v bare=%v body=%q)",
			existing.AbsPath, existing.Lazy, existing.Bare, existing.DataString,
			incoming.Lazy, incoming.Bare, incoming.DataString,
		)
	}

	body, sm := transcode.CombineSourceMaps(existing.DataString, existing.SourceMap, incoming.DataString, incoming.SourceMap)

	merged := *existing
	merged.SetBody(body)
	merged.SourceMap = sm
	merged.Imported = graph.Join(existing.Imported, incoming.Imported)
	merged.DepsExtracted = false
	merged.Deps = nil
	return &merged, nil
}

func (s *Scanner) indexRealPath(f *graph.File) {
	real, ok := s.FS.RealpathOrNull(f.AbsPath)
	if !ok {
		return
	}
	if _, known := s.representativeByReal[real]; !known {
		s.representativeByReal[real] = f
	}
}

func (s *Scanner) lookupByAbsPath(path string) *graph.File {
	return s.byFoldedPath[strings.ToLower(path)]
}

func (s *Scanner) recordMissing(specifier string, info *graph.ImportInfo) {
	s.allMissingModules[specifier] = graph.MergeImportInfos(s.allMissingModules[specifier], []*graph.ImportInfo{info})
}

// MissingModules returns the scanner's aggregate view of every specifier
// that has failed to resolve so far, for a surrounding install loop to
// act on (spec §4.1 "allMissingModules").
func (s *Scanner) MissingModules() map[string][]*graph.ImportInfo {
	out := make(map[string][]*graph.ImportInfo, len(s.allMissingModules))
	for k, v := range s.allMissingModules {
		out[k] = append([]*graph.ImportInfo{}, v...)
	}
	return out
}

// ScanImports initiates a graph walk from every non-lazy seed (spec
// §4.1).
func (s *Scanner) ScanImports() {
	for _, f := range s.scanOrder {
		if !f.Lazy {
			s.scanFile(f, false)
		}
	}
}

// scanFile is the per-file walk step described step by step in spec
// §4.1 "Graph walk (scanFile)".
func (s *Scanner) scanFile(f *graph.File, dynamicEdge bool) {
	incoming := graph.Static
	if dynamicEdge {
		incoming = graph.Dynamic
	}

	// 1. Already scanned at equal or stronger status: nothing to do.
	if f.Scanned() && f.Imported >= incoming {
		return
	}
	f.MarkScanned()

	// 2. Promote imported per the current edge.
	f.Imported = graph.Join(f.Imported, incoming)

	// 3. Deferred compiler errors are flushed the first time the file is
	// actually reached, so modules nothing imports never pollute
	// diagnostics.
	if f.HasErrors {
		return
	}
	if len(f.PendingErrors) > 0 {
		for _, msg := range f.PendingErrors {
			s.Log.Error(msg, f.AbsPath, 0, 0)
		}
		f.HasErrors = true
		return
	}

	// 4. Extract deps once, lazily.
	if !f.DepsExtracted {
		f.Deps = map[string]*graph.ImportInfo{}
		for specifier, id := range transcode.FindImportedModuleIdentifiers(f.DataString) {
			f.Deps[specifier] = &graph.ImportInfo{ParentPath: f.AbsPath, Dynamic: id.Dynamic}
		}
		f.DepsExtracted = true
	}

	// 5. Resolve and recurse into every dependency edge.
	for specifier, info := range f.Deps {
		dynamic := s.Arch.IsWeb() && (dynamicEdge || info.ParentWasDynamic || info.Dynamic)
		s.resolveAndScan(f, specifier, info, dynamic)
	}
}

func (s *Scanner) resolveAndScan(parent *graph.File, specifier string, info *graph.ImportInfo, dynamic bool) {
	result := s.Resolver.Resolve(specifier, parent.AbsPath, s.virtualStat)

	switch result.Kind {
	case resolver.Missing:
		parent.MissingModules[specifier] = info
		s.recordMissing(specifier, info)

	case resolver.Native:
		s.scanFile(s.nativeStubFile(result.NativeID), dynamic)

	case resolver.Alias:
		if result.Disabled {
			s.scanFile(s.emptyModuleFile(), dynamic)
		}

	case resolver.Resolved:
		target := s.lookupByAbsPath(result.Path)
		if target == nil {
			loaded, ok := s.readDepFile(result.Path)
			if !ok {
				parent.MissingModules[specifier] = info
				s.recordMissing(specifier, info)
				return
			}
			s.insertAtFoldedPath(loaded, false)
			target = loaded
		} else if target.Implicit {
			// A helper package.json that's now being imported directly is
			// promoted out of implicit status.
			target.Implicit = false
		}

		for _, pj := range result.PackageJSONs {
			s.emitHelperFile(pj, dynamic)
		}
		if len(result.PackageJSONs) > 0 {
			helpers := make(map[string]graph.Helper, len(result.PackageJSONs))
			for _, pj := range result.PackageJSONs {
				helpers[pj] = graph.Helper{Dynamic: dynamic}
			}
			info.Helpers = helpers
		}

		s.scanFile(target, dynamic)
	}
}

// emitHelperFile loads (or reuses) the package.json at pjPath and scans
// it, per spec §4.2: "the scanner emits each such manifest as an
// implicit helper File."
func (s *Scanner) emitHelperFile(pjPath string, dynamic bool) {
	if existing := s.lookupByAbsPath(pjPath); existing != nil {
		s.scanFile(existing, dynamic)
		return
	}
	loaded, ok := s.readDepFile(pjPath)
	if !ok {
		return
	}
	loaded.Implicit = true
	s.insertAtFoldedPath(loaded, false)
	s.scanFile(loaded, dynamic)
}

func (s *Scanner) nativeStubFile(nativeID string) *graph.File {
	if f, ok := s.nativeStubs[nativeID]; ok {
		return f
	}
	f := graph.NewFile("<native:"+nativeID+">", "module.useNode();\n")
	f.Type = "js"
	f.Lazy = true
	f.Implicit = true
	f.DepsExtracted = true
	s.nativeStubs[nativeID] = f
	return f
}

func (s *Scanner) emptyModuleFile() *graph.File {
	if s.emptyModule != nil {
		return s.emptyModule
	}
	f := graph.NewFile("<browser-disabled>", "module.exports = {};\n")
	f.Type = "js"
	f.Lazy = true
	f.Implicit = true
	f.DepsExtracted = true
	s.emptyModule = f
	return f
}

// virtualStat lets the scanner's own in-memory file set participate in
// resolution (spec §4.2), so a synthesized proxy or not-yet-flushed
// compiler output resolves even though nothing has touched disk yet.
func (s *Scanner) virtualStat(path string) (fs.Kind, bool) {
	if _, ok := s.byFoldedPath[strings.ToLower(path)]; ok {
		return fs.FileEntry, true
	}
	return fs.NoEntry, false
}

// GetOutputFiles finalizes the scan: it collapses realpath duplicates
// and yields every File that has an absModuleId, isn't fake, isn't
// errored, and is either eager or imported (spec §4.1).
func (s *Scanner) GetOutputFiles() []*graph.File {
	s.coalesceRealpaths()

	out := make([]*graph.File, 0, len(s.scanOrder))
	for _, f := range s.scanOrder {
		if !f.HasModuleID || f.Fake || f.HasErrors {
			continue
		}
		if !f.Lazy || f.Imported != graph.NotImported {
			out = append(out, f)
		}
	}
	return out
}

// coalesceRealpaths groups Files sharing a realpath, designates one the
// container, and aliases the rest to it (spec §4.1 "Realpath
// coalescing").
func (s *Scanner) coalesceRealpaths() {
	groups := map[string][]*graph.File{}
	for _, f := range s.scanOrder {
		if f.Fake {
			continue
		}
		real, ok := s.FS.RealpathOrNull(f.AbsPath)
		if !ok {
			continue
		}
		groups[real] = append(groups[real], f)
	}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		max := graph.NotImported
		for _, f := range group {
			max = graph.Join(max, f.Imported)
		}
		for _, f := range group {
			f.Imported = max
		}

		container := group[0]
		for _, f := range group {
			if strings.HasPrefix(f.AbsModuleID, "/node_modules/") {
				container = f
				break
			}
		}

		for _, f := range group {
			if f == container {
				continue
			}
			f.Alias = &graph.Alias{AbsModuleID: container.AbsModuleID}
		}
	}
}

func relativeSpecifier(fromAbsPath, toAbsPath string) string {
	fromDir := fs.Dir(fromAbsPath)
	rel := toAbsPath
	if strings.HasPrefix(toAbsPath, fromDir+"/") {
		rel = strings.TrimPrefix(toAbsPath, fromDir+"/")
	}
	rel = strings.ReplaceAll(rel, "\\", "/")
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

func quoteSpecifier(s string) string {
	return strconv.Quote(s)
}
