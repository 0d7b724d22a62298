// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/config"
)

func (a *app) diffCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two documents",
		Long: `Diff compares two documents field by field, ignoring formatting, comments and
the encoding. It lists the changed paths and exits 1 when they differ.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(_ *cobra.Command, args []string) error {
			oldDoc, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			newDoc, err := config.LoadFile(args[1])
			if err != nil {
				return err
			}

			changes := config.Diff(oldDoc, newDoc)
			if !changes.Changed() {
				if !quiet {
					a.okf("documents are equivalent\n")
				}
				return nil
			}
			if !quiet {
				a.headf("%d changed field(s):\n", len(changes.ChangedFields))
				for _, f := range changes.ChangedFields {
					a.printf("  %s\n", f)
				}
				a.printf("\n%s", changes.Text)
			}
			return &exitError{code: exitInvalid}
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only set the exit status")
	return cmd
}
