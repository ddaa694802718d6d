package scanner

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/filipenevola/import-scanner/internal/fs"
	"github.com/filipenevola/import-scanner/internal/graph"
	"github.com/filipenevola/import-scanner/internal/patharch"
	"github.com/filipenevola/import-scanner/internal/transcode"
)

// readDepFile implements spec §4.5 ("File loading"), step by step.
func (s *Scanner) readDepFile(absPath string) (*graph.File, bool) {
	id, ok := s.Policy.GetAbsModuleID(absPath)
	if !ok {
		return nil, false
	}

	if real, ok := s.FS.RealpathOrNull(absPath); ok {
		if existing, ok := s.representativeByReal[real]; ok && existing.AbsPath != absPath {
			f := graph.NewFile(absPath, existing.DataString)
			f.Hash = existing.Hash
			f.Type = "js"
			f.JSONData = existing.JSONData
			f.SetAbsModuleID(id)
			f.Lazy = true
			return f, true
		}
	}

	if patharch.ShouldUseNode(s.Arch, id) {
		f := graph.NewFile(absPath, "module.useNode();\n")
		f.Type = "js"
		f.SetAbsModuleID(id)
		f.Lazy = true
		f.DepsExtracted = true
		return f, true
	}

	if strings.HasSuffix(absPath, "package.json") {
		return s.loadPackageJSON(absPath, id)
	}

	if fs.Ext(absPath) == ".node" {
		f := graph.NewFile(absPath, fmt.Sprintf("throw new Error(%q);\n", "native addon modules are not supported on "+string(s.Arch)))
		f.Type = "js"
		f.SetAbsModuleID(id)
		f.Lazy = true
		f.DepsExtracted = true
		return f, true
	}

	raw, err := s.FS.ReadFile(absPath)
	if err != nil {
		return nil, false
	}

	var body string
	switch fs.Ext(absPath) {
	case ".js", ".mjs":
		body = s.compileJS(absPath, raw)
	case ".json":
		b, _, err := transcode.CompileJSON(raw)
		if err != nil {
			return nil, false
		}
		body = b
	case ".css":
		hash := sha1.Sum(raw)
		body = transcode.CompileCSS(string(raw), fmt.Sprintf("%x", hash))
	default:
		if !s.SpecCache.LooksLikeJS(raw) {
			return nil, false
		}
		body = s.compileJS(absPath, raw)
	}

	// Type always stays "js": downstream consumers distinguish files by
	// content, not by this field, regardless of which handler produced
	// the body.
	f := graph.NewFile(absPath, body)
	f.Type = "js"
	f.SetAbsModuleID(id)
	f.Lazy = true
	s.registerWatch(absPath, f.Hash)
	return f, true
}

// loadPackageJSON implements spec §4.5 step 5: parse, strip npm-private
// keys (any root key beginning with "_"), and emit as a JSON module.
func (s *Scanner) loadPackageJSON(absPath string, id string) (*graph.File, bool) {
	raw, err := s.FS.ReadFile(absPath)
	if err != nil {
		return nil, false
	}
	stripped, err := transcode.StripPrivateKeys(raw)
	if err != nil {
		stripped = raw
	}
	body, data, err := transcode.CompileJSON(stripped)
	if err != nil {
		return nil, false
	}
	f := graph.NewFile(absPath, body)
	f.Type = "js"
	f.JSONData = data
	f.SetAbsModuleID(id)
	f.Lazy = true
	f.DepsExtracted = true
	s.registerWatch(absPath, f.Hash)
	return f, true
}

func (s *Scanner) compileJS(absPath string, raw []byte) string {
	source := stripShebang(string(raw))
	isCoreJS := transcode.IsCoreJS(absPath)
	isLegacy := s.Arch == "web.browser.legacy"
	return s.JSCache.CompileJS(source, isCoreJS, isLegacy, string(s.Arch))
}

func stripShebang(source string) string {
	if !strings.HasPrefix(source, "#!") {
		return source
	}
	if idx := strings.IndexByte(source, '\n'); idx >= 0 {
		return source[idx+1:]
	}
	return ""
}

func (s *Scanner) registerWatch(absPath string, hash [sha1.Size]byte) {
	if s.FS.ShouldWatch(absPath) {
		s.WatchSet.AddFile(absPath, hash)
	}
}
