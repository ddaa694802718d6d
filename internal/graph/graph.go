// Package graph holds the data model the scanner builds and mutates while
// walking the module dependency graph: File, ImportInfo, and the
// monotonic Imported tri-state (spec §3).
package graph

import (
	"crypto/sha1"
	"encoding/json"
)

// Imported is a total-ordered tri-state: None < Dynamic < Static. It must
// only ever be promoted (joined upward), never demoted, for the lifetime
// of a scan.
type Imported uint8

const (
	NotImported Imported = iota
	Dynamic
	Static
)

func (i Imported) String() string {
	switch i {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "none"
	}
}

// Join returns the stronger of the two states. Use this instead of naive
// assignment anywhere two Imported values meet, so promotion can never be
// accidentally reversed.
func Join(a, b Imported) Imported {
	if a > b {
		return a
	}
	return b
}

// Helper records an implicit dependency (typically a package.json) that
// contributed to resolving an import.
type Helper struct {
	Dynamic bool
}

// ImportInfo describes a single dependency edge: an importer together
// with whatever made the extractor think the specifier was imported.
type ImportInfo struct {
	ParentPath       string
	Dynamic          bool
	ParentWasDynamic bool
	PossiblySpurious bool
	Helpers          map[string]Helper
}

// Alias redirects references to a File toward another module id, used
// both for browser-field remapping and realpath coalescing.
type Alias struct {
	AbsModuleID string
}

// File is the unit owned by the scanner (spec §3.1).
type File struct {
	AbsPath    string
	SourcePath string
	TargetPath string // optional; differs from SourcePath when a proxy was synthesized
	ServePath  string

	// AbsModuleID is meaningful only when HasModuleID is true; otherwise the
	// file is not installable on the current arch and is dropped from output.
	AbsModuleID string
	HasModuleID bool

	Data       []byte
	DataString string
	Hash       [sha1.Size]byte

	// Type is always "js" on every file the scanner loads or synthesizes
	// as a dependency, regardless of the file's extension or which handler
	// produced its body: downstream consumers distinguish files by
	// content, not by this field. Seed files keep whatever Type the caller
	// set, and the source-path proxies built for them are not stamped.
	Type string

	Lazy     bool
	Bare     bool
	Imported Imported
	Implicit bool

	Deps           map[string]*ImportInfo
	DepsExtracted  bool
	MissingModules map[string]*ImportInfo

	Alias *Alias

	JSONData json.RawMessage

	HasErrors     bool
	PendingErrors []string

	SourceMap *SourceMap

	// Fake marks a synthetic seed file (built by scanMissingModules) that
	// must never appear in the emitted output set.
	Fake bool

	// scanned is set the first time scanFile visits this file; distinct
	// from Imported != NotImported, since a file can be reached only via
	// an as-yet-unresolved edge before ever being walked.
	scanned bool
}

// Scanned reports whether scanFile has visited this file at least once.
func (f *File) Scanned() bool { return f.scanned }

// MarkScanned flips the scanned bit; called once by scanFile per file.
func (f *File) MarkScanned() { f.scanned = true }

// SourceMap is a minimal combined-source-map carrier; see
// internal/transcode for the concatenation logic that builds these.
type SourceMap struct {
	Mappings string
	Sources  []string
	Names    []string
}

// NewFile builds a File and stamps Data/Hash from dataString.
func NewFile(absPath string, dataString string) *File {
	f := &File{
		AbsPath:        absPath,
		Deps:           map[string]*ImportInfo{},
		MissingModules: map[string]*ImportInfo{},
	}
	f.SetBody(dataString)
	return f
}

// SetBody stamps DataString/Data/Hash together so the three can never
// drift out of sync (spec §3.3 hash/data/string consistency).
func (f *File) SetBody(dataString string) {
	f.DataString = dataString
	f.Data = []byte(dataString)
	f.Hash = sha1.Sum(f.Data)
}

// SetAbsModuleID records the file's runtime-visible id. Every id must
// begin with "/"; callers are expected to have normalized it already
// (see internal/patharch).
func (f *File) SetAbsModuleID(id string) {
	f.AbsModuleID = id
	f.HasModuleID = true
	if len(id) > 0 && id[0] == '/' {
		f.ServePath = id[1:]
	} else {
		f.ServePath = id
	}
}

// ClearAbsModuleID marks the file as not installable on this arch.
func (f *File) ClearAbsModuleID() {
	f.AbsModuleID = ""
	f.HasModuleID = false
	f.ServePath = ""
}

// MergeImportInfos applies the spec §4.1.1 merge policy: entries are
// deduplicated by ParentPath (later wins), except a missing ParentPath
// (seed root) which is never deduplicated against.
func MergeImportInfos(existing, incoming []*ImportInfo) []*ImportInfo {
	result := append([]*ImportInfo{}, existing...)
	byParent := map[string]int{}
	for i, info := range result {
		if info.ParentPath != "" {
			byParent[info.ParentPath] = i
		}
	}
	for _, info := range incoming {
		if info.ParentPath == "" {
			result = append(result, info)
			continue
		}
		if idx, ok := byParent[info.ParentPath]; ok {
			result[idx] = info
		} else {
			byParent[info.ParentPath] = len(result)
			result = append(result, info)
		}
	}
	return result
}
