package scanner

import "github.com/filipenevola/import-scanner/internal/graph"

// ScanMissingModules is the re-entry point described in spec §4.1
// "Missing-module re-entry": given specifiers that were missing on an
// earlier scan and are presumed satisfied now (packages installed since),
// it walks just the affected edges and reports which ones actually
// resolved.
func (s *Scanner) ScanMissingModules(missing map[string][]*graph.ImportInfo) (newlyAdded, newlyMissing map[string][]*graph.ImportInfo) {
	newlyAdded = map[string][]*graph.ImportInfo{}
	newlyMissing = map[string][]*graph.ImportInfo{}

	for specifier, infos := range missing {
		static, dynamic := pickRepresentatives(infos)

		seed := &graph.File{
			AbsPath:        "<missing-seed:" + specifier + ">",
			Fake:           true,
			DepsExtracted:  true,
			Deps:           map[string]*graph.ImportInfo{},
			MissingModules: map[string]*graph.ImportInfo{},
		}
		if static != nil {
			seed.Deps[specifier] = static
		}
		if dynamic != nil && static == nil {
			seed.Deps[specifier] = dynamic
		}

		resolvedAny := false
		if static != nil {
			s.resolveAndScan(seed, specifier, static, false)
			if _, stillMissing := seed.MissingModules[specifier]; !stillMissing {
				resolvedAny = true
			}
		}
		if dynamic != nil {
			delete(seed.MissingModules, specifier)
			s.resolveAndScan(seed, specifier, dynamic, s.Arch.IsWeb())
			if _, stillMissing := seed.MissingModules[specifier]; !stillMissing {
				resolvedAny = true
			}
		}

		if resolvedAny {
			newlyAdded[specifier] = infos
			delete(s.allMissingModules, specifier)
		} else {
			newlyMissing[specifier] = infos
			s.allMissingModules[specifier] = graph.MergeImportInfos(s.allMissingModules[specifier], infos)
		}
	}

	return newlyAdded, newlyMissing
}

// pickRepresentatives selects at most one static and one dynamic
// ImportInfo from infos, per spec §4.1: "the scanner selects at most two
// representative ImportInfos (one static, one dynamic) rather than
// re-scanning per-edge."
func pickRepresentatives(infos []*graph.ImportInfo) (static, dynamic *graph.ImportInfo) {
	for _, info := range infos {
		if info.Dynamic {
			if dynamic == nil {
				dynamic = info
			}
		} else {
			if static == nil {
				static = info
			}
		}
	}
	return static, dynamic
}
