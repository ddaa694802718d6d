package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/filipenevola/import-scanner/internal/fs"
	"github.com/filipenevola/import-scanner/internal/watchset"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <files...>",
		Short: "Scan, then re-scan whenever a watched file changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The RealFS survives across iterations so untouched files stay
			// memoized; only the path fsnotify reports as changed has its
			// cached stat/read/hash/realpath entries dropped. Each iteration
			// still builds a fresh Scanner: combineFiles is for a single scan
			// ingesting the same path from two compiler outputs, not for
			// re-ingesting a changed file, so a rescan starts with a clean
			// graph rather than concatenating onto the previous body.
			realFS := fs.NewRealFS()

			for {
				s := buildScanner(realFS)
				if err := runOnce(s, args); err != nil {
					s.JSCache.Close()
					return err
				}

				w, err := watchset.NewWatcher(s.WatchSet)
				if err != nil {
					s.JSCache.Close()
					return fmt.Errorf("starting watcher: %w", err)
				}

				changed, ok := <-w.Changed
				w.Close()
				s.JSCache.Close()
				if !ok {
					return nil
				}

				realFS.Invalidate(changed)
				pterm.Info.Printf("%s changed, re-scanning\n", changed)
			}
		},
	}
}
