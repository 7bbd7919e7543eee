// gdbind generates Go bindings from the engine's extension API description.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/gdbind/manifest"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("gdbind")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose int
	rootCmd := &cobra.Command{
		Use:           "gdbind",
		Short:         "Generate Go bindings for the engine extension API",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbose, nil)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringP("dir", "C", ".", "Directory to search upwards for "+manifest.FileName)
	rootCmd.PersistentFlags().String("api-file", "", "Read the description from this file instead of running the engine")
	rootCmd.PersistentFlags().String("engine", "", "Engine binary")
	rootCmd.PersistentFlags().String("configuration", "", "Build configuration: float_32, float_64, double_32 or double_64")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newDumpCmd(),
		newInspectCmd(),
	)
	return rootCmd
}

// loadManifest finds gdbind.toml from --dir, falling back to defaults, and
// applies the persistent flags on top.
func loadManifest(cmd *cobra.Command) (*manifest.Manifest, error) {
	dir, _ := cmd.Flags().GetString("dir")
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		log.Infof("no %s found; using defaults", manifest.FileName)
		m = manifest.Default(dir)
	}

	flags := cmd.Flags()
	if flags.Changed("api-file") {
		apiFile, _ := flags.GetString("api-file")
		if m.Engine.APIFile, err = filepath.Abs(apiFile); err != nil {
			return nil, err
		}
	}
	if flags.Changed("engine") {
		m.Engine.Binary, _ = flags.GetString("engine")
	}
	if flags.Changed("configuration") {
		m.Build.Configuration, _ = flags.GetString("configuration")
	}
	return m, nil
}
