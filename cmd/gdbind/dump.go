package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/gdbind/extapi"
)

func newDumpCmd() *cobra.Command {
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Run the engine and write its raw API description",
		Args:  cobra.NoArgs,
		RunE:  dumpHandler,
	}
	dumpCmd.Flags().StringP("output", "o", "extension_api.json", "File to write")
	return dumpCmd
}

func dumpHandler(cmd *cobra.Command, args []string) error {
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	engine, err := extapi.LocateEngine(m.Engine.Binary)
	if err != nil {
		return err
	}
	data, err := engine.DumpAPI(cmd.Context())
	if err != nil {
		return err
	}

	// Refuse to write something generation would reject.
	api, err := extapi.Parse(engine.Path, data)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d classes, %d builtins\n",
		out, api.Header.FullName, len(api.Classes), len(api.Builtins))
	return nil
}
