// Command importscan walks a JavaScript module dependency graph from a
// set of seed files and reports the resulting file set, standalone or
// in a watch loop that re-scans on change.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "importscan",
	Short: "Scan a JavaScript module graph and report the installable file set",
	Long: `importscan walks a JavaScript/CommonJS module dependency graph starting
from a set of seed files, resolving imports the way Node resolves them,
transcoding each reached file, and reporting the resulting file set plus
any specifiers it couldn't resolve.`,
}

func init() {
	rootCmd.PersistentFlags().String("source-root", ".", "Application source root")
	rootCmd.PersistentFlags().String("arch", "web.browser", "Target architecture (web.browser, web.browser.legacy, web.cordova, os, os.linux.x86_64, ...)")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for the compiled-JS disk cache (disabled when empty)")
	rootCmd.PersistentFlags().StringSlice("node-modules-path", nil, "Additional node_modules directory to search (repeatable)")
	rootCmd.PersistentFlags().StringSlice("extension", []string{".js", ".json"}, "Extension search order for bare/extensionless specifiers")
	rootCmd.PersistentFlags().String("name", "", "Package name; non-empty reroots module ids under node_modules/meteor/<name>/")

	_ = viper.BindPFlag("source-root", rootCmd.PersistentFlags().Lookup("source-root"))
	_ = viper.BindPFlag("arch", rootCmd.PersistentFlags().Lookup("arch"))
	_ = viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("node-modules-path", rootCmd.PersistentFlags().Lookup("node-modules-path"))
	_ = viper.BindPFlag("extension", rootCmd.PersistentFlags().Lookup("extension"))
	_ = viper.BindPFlag("name", rootCmd.PersistentFlags().Lookup("name"))

	viper.SetEnvPrefix("IMPORTSCAN")
	viper.AutomaticEnv()

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(watchCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "importscan: %v\n", err)
		os.Exit(1)
	}
}
