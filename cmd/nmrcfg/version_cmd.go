// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/version"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(_ *cobra.Command, _ []string) {
			a.printf("nmrcfg %s\n", version.String())
		},
	}
}
