// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/config"
)

func (a *app) dumpCmd() *cobra.Command {
	var (
		opts   loadOptions
		format string
	)
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the effective document",
		Long: `Dump prints the document after defaults and NMRCFG_* overrides are applied,
in canonical key order. The document must validate.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := config.Format(format)
			if out != config.FormatYAML && out != config.FormatJSON {
				return usageError("--format must be yaml or json, got %q", format)
			}
			doc, err := a.loadValid(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			data, err := config.Encode(doc, out)
			if err != nil {
				return err
			}
			if _, err := a.stdout.Write(data); err != nil {
				return err
			}
			if out == config.FormatJSON {
				a.printf("\n")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&format, "format", "yaml", "output format: yaml or json")
	f.BoolVar(&opts.template, "template", false, "accept Populate placeholders")
	f.BoolVar(&opts.noEnv, "no-env", false, "ignore NMRCFG_* environment overrides")
	return cmd
}
