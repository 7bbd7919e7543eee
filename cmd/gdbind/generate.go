package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chazu/gdbind/bindgen"
	"github.com/chazu/gdbind/manifest"
)

func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:       "generate [sys|core|all]",
		Short:     "Generate the sys and core binding packages",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"sys", "core", "all"},
		RunE:      generateHandler,
	}
	generateCmd.Flags().String("classes", "", "Class selection: minimal or all")
	generateCmd.Flags().Bool("stubs-only", false, "Write package docs only")
	generateCmd.Flags().Bool("no-format", false, "Leave generated files unformatted")
	generateCmd.Flags().String("formatter", "", `Formatter command, or "imports" for the in-process formatter`)
	generateCmd.Flags().Bool("check-runtime", false, "Check the builtin runtime package for missing types")
	generateCmd.Flags().Bool("dry-run", false, "Render everything but write nothing")
	return generateCmd
}

func generateHandler(cmd *cobra.Command, args []string) error {
	target := "all"
	if len(args) == 1 {
		target = args[0]
	}

	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("classes") {
		m.Generate.Classes, _ = flags.GetString("classes")
	}
	if flags.Changed("stubs-only") {
		m.Generate.StubsOnly, _ = flags.GetBool("stubs-only")
	}
	if noFormat, _ := flags.GetBool("no-format"); noFormat {
		m.Generate.Format = false
	}
	if flags.Changed("formatter") {
		m.Generate.Formatter, _ = flags.GetString("formatter")
	}
	if flags.Changed("check-runtime") {
		m.Generate.CheckRuntime, _ = flags.GetBool("check-runtime")
	}
	dryRun, _ := flags.GetBool("dry-run")

	cfg, err := pipelineConfig(m)
	if err != nil {
		return err
	}
	cfg.Writer.DryRun = dryRun

	var res *bindgen.Result
	switch target {
	case "sys":
		cfg.StatsDir = m.SysDir()
		res, err = bindgen.GenerateSysFiles(cmd.Context(), cfg, m.SysDir())
	case "core":
		cfg.StatsDir = m.CoreDir()
		res, err = bindgen.GenerateCoreFiles(cmd.Context(), cfg, m.CoreDir())
	default:
		cfg.StatsDir = m.CoreDir()
		res, err = bindgen.GenerateAll(cmd.Context(), cfg, m.SysDir(), m.CoreDir())
	}
	if err != nil {
		return err
	}

	for _, p := range res.Written {
		if rel, err := filepath.Rel(m.Dir, p); err == nil {
			p = rel
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	if len(res.MissingRuntime) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "runtime package lacks %d builtin types; see warnings\n", len(res.MissingRuntime))
	}
	return nil
}

func pipelineConfig(m *manifest.Manifest) (bindgen.Config, error) {
	apiOpts, err := m.APIOptions()
	if err != nil {
		return bindgen.Config{}, err
	}
	opts, err := m.Options()
	if err != nil {
		return bindgen.Config{}, err
	}
	cfg := bindgen.Config{
		Load:      bindgen.LoadWith(apiOpts),
		Options:   opts,
		StubsOnly: m.Generate.StubsOnly,
	}
	if m.Generate.Format {
		cfg.Formatter = bindgen.NewFormatter(m.Generate.Formatter)
	}
	if m.Generate.CheckRuntime {
		cfg.RuntimeDir = m.Dir
	}
	return cfg, nil
}
