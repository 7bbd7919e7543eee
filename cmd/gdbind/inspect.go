package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/chazu/gdbind/bindgen"
	"github.com/chazu/gdbind/extapi"
)

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect CLASS",
		Short: "Show how a class is generated",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectHandler,
	}
	inspectCmd.Flags().String("classes", "", "Class selection: minimal or all")
	return inspectCmd
}

func inspectHandler(cmd *cobra.Command, args []string) error {
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("classes") {
		m.Generate.Classes, _ = cmd.Flags().GetString("classes")
	}
	apiOpts, err := m.APIOptions()
	if err != nil {
		return err
	}
	opts, err := m.Options()
	if err != nil {
		return err
	}

	api, cfg, err := extapi.Load(cmd.Context(), apiOpts)
	if err != nil {
		return err
	}
	opts.Configuration = cfg
	ctx, err := bindgen.NewContext(api, opts)
	if err != nil {
		return err
	}

	name := args[0]
	if _, ok := ctx.Class(name); !ok {
		return fmt.Errorf("class %q is not described by %s", name, api.Header.FullName)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "class:     %s\n", name)
	fmt.Fprintf(w, "chain:     %s\n", strings.Join(ctx.Chain(name), " -> "))
	fmt.Fprintf(w, "selected:  %v (%s)\n", ctx.IsSelected(name), opts.Selection)
	if base := ctx.Base(name); base != "" {
		fmt.Fprintf(w, "embeds:    %s\n", base)
	}
	if s, ok := ctx.Singleton(name); ok {
		fmt.Fprintf(w, "singleton: %s\n", s.Name)
	}
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"VIRTUAL", "DECLARED BY", "PARAMS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, vm := range ctx.Virtuals(name) {
		params := make([]string, 0, len(vm.Method.Params))
		for _, p := range vm.Method.Params {
			params = append(params, p.Name+" "+p.Type.String())
		}
		table.Append([]string{vm.Method.Name, vm.Class, strings.Join(params, ", ")})
	}
	table.Render()
	return nil
}
