// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/components"
	"github.com/ManuGH/nmrcfg/internal/config"
)

func (a *app) schemaCmd() *cobra.Command {
	var withComponents bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the document fields as a Markdown table",
		Long: `Schema prints every document field with its environment override, default
and status. --components lists the registered implementation names instead.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			if withComponents {
				return a.printComponents()
			}
			reg, err := config.GetRegistry()
			if err != nil {
				return err
			}
			return reg.RenderMarkdown(a.stdout)
		},
	}
	cmd.Flags().BoolVar(&withComponents, "components", false, "list registered components by kind")
	return cmd
}

func (a *app) printComponents() error {
	reg, err := components.GetRegistry()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tNAME\tDESCRIPTION")
	for _, kind := range reg.Kinds() {
		for _, name := range reg.Names(kind) {
			c, err := reg.Lookup(kind, name)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", kind, name, c.Description)
		}
	}
	return w.Flush()
}
