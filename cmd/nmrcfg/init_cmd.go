// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/config"
	"github.com/ManuGH/nmrcfg/internal/fsutil"
)

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the document template",
		Long: `Init writes the annotated template with every site-specific value set to
Populate. The default path is config.yaml. A .json or .jsonc path gets the
template without comments.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			format, err := config.FormatFromPath(path)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}

			tmpl, err := config.Template()
			if err != nil {
				return err
			}
			data := config.TemplateBytes()
			if format != config.FormatYAML {
				if data, err = config.Encode(tmpl, format); err != nil {
					return err
				}
			}
			if err := fsutil.WriteBytesAtomic(path, 0o640, data); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			a.okf("wrote %s", path)
			a.warnf(" (%d placeholders to populate)\n", len(tmpl.Placeholders))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
