package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/viper"

	"github.com/filipenevola/import-scanner/internal/fs"
	"github.com/filipenevola/import-scanner/internal/graph"
	"github.com/filipenevola/import-scanner/internal/patharch"
	"github.com/filipenevola/import-scanner/internal/scanner"
	"github.com/filipenevola/import-scanner/internal/transcode"
)

// buildScanner wires a scanner.Scanner from the bound viper config, the
// way spec §A.4 describes: --source-root, --arch, --cache-dir,
// --node-modules-path, --extension, --name. fsys is accepted rather than
// created here so the watch loop can keep one RealFS's memoized caches
// alive across rebuilt Scanner instances (dropping only what actually
// changed, via RealFS.Invalidate).
func buildScanner(fsys fs.FS) *scanner.Scanner {
	arch := patharch.Arch(viper.GetString("arch"))
	sourceRoot, err := filepath.Abs(viper.GetString("source-root"))
	if err != nil {
		sourceRoot = viper.GetString("source-root")
	}

	var nodeModulesPaths []string
	for _, p := range viper.GetStringSlice("node-modules-path") {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		nodeModulesPaths = append(nodeModulesPaths, abs)
	}

	return scanner.New(
		viper.GetString("name"),
		arch,
		viper.GetStringSlice("extension"),
		sourceRoot,
		nodeModulesPaths,
		viper.GetString("cache-dir"),
		fsys,
	)
}

// seedFiles turns CLI file arguments into eager (non-lazy) input Files.
func seedFiles(paths []string, fsys fs.FS) ([]*graph.File, error) {
	var files []*graph.File
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid file path %q: %w", p, err)
		}
		data, err := fsys.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", abs, err)
		}
		f := graph.NewFile(abs, string(data))
		f.SourcePath = abs
		f.TargetPath = abs
		f.Lazy = false
		files = append(files, f)
	}
	return files, nil
}

// runOnce performs one full scan and prints the resulting output file
// set, missing modules, and any diagnostics.
func runOnce(s *scanner.Scanner, paths []string) error {
	files, err := seedFiles(paths, s.FS)
	if err != nil {
		return err
	}

	// Seeds go through the same reify step readDepFile applies to loaded
	// JS, so the extractor sees module.link/module.dynamicImport calls.
	for _, f := range files {
		if ext := filepath.Ext(f.AbsPath); ext == ".js" || ext == ".mjs" {
			f.SetBody(s.JSCache.CompileJS(string(f.Data), transcode.IsCoreJS(f.AbsPath), s.Arch == "web.browser.legacy", string(s.Arch)))
		}
	}

	s.AddInputFiles(files)
	s.ScanImports()

	printResults(s)
	return nil
}

func printResults(s *scanner.Scanner) {
	output := s.GetOutputFiles()
	sort.Slice(output, func(i, j int) bool { return output[i].AbsModuleID < output[j].AbsModuleID })

	pterm.DefaultSection.Println("Output files")
	for _, f := range output {
		status := f.Imported.String()
		if !f.Lazy {
			status = "eager"
		}
		pterm.Printf("  %-60s %s\n", f.AbsModuleID, status)
	}

	missing := s.MissingModules()
	if len(missing) > 0 {
		pterm.DefaultSection.Println("Missing modules")
		specifiers := make([]string, 0, len(missing))
		for specifier := range missing {
			specifiers = append(specifiers, specifier)
		}
		sort.Strings(specifiers)
		for _, specifier := range specifiers {
			pterm.Warning.Printf("%s (%d importer(s))\n", specifier, len(missing[specifier]))
		}
	}

	if s.Log.HasErrors() {
		s.Log.Print()
	}
}
