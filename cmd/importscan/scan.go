package main

import (
	"github.com/spf13/cobra"

	"github.com/filipenevola/import-scanner/internal/fs"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <files...>",
		Short: "Run one scan to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := buildScanner(fs.NewRealFS())
			defer s.JSCache.Close()
			return runOnce(s, args)
		},
	}
}
