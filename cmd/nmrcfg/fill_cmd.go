// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/nmrcfg/internal/config"
	"github.com/ManuGH/nmrcfg/internal/fsutil"
	"github.com/ManuGH/nmrcfg/internal/log"
	"github.com/ManuGH/nmrcfg/internal/metrics"
	"github.com/ManuGH/nmrcfg/internal/telemetry"
)

func (a *app) fillCmd() *cobra.Command {
	var (
		sets       []string
		valuesFile string
		output     string
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "fill FILE",
		Short: "Replace placeholders with values",
		Long: `Fill replaces Populate placeholders with values given as path=value
assignments (--set) or in a values file mapping paths to values. Comments and
key order are kept. Values are YAML flow scalars, so "--set training.nepochs=50"
writes an integer and "--set 'data.spectra_file=[a.h5, b.h5]'" a list.

The result is written back to FILE unless -o is given; "-o -" prints it.`,
		Example: `  nmrcfg fill config.yaml --set 'data.spectra_file[0]=spectra.h5'
  nmrcfg fill config.yaml --values site.yaml -o run.yaml`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := telemetry.Tracer("nmrcfg/cli").Start(cmd.Context(), "config.fill")
			defer span.End()

			path := args[0]
			values := config.Values{}
			if valuesFile != "" {
				loaded, err := config.LoadValues(valuesFile)
				if err != nil {
					return err
				}
				values = loaded
			}
			if err := values.Merge(sets); err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			if len(values) == 0 {
				return usageError("nothing to fill: give --set or --values")
			}

			format, err := config.FormatFromPath(path)
			if err != nil {
				return err
			}
			if output == "" {
				if format != config.FormatYAML {
					return usageError("%s is %s; fill writes YAML, so name the output with -o", path, format)
				}
				output = path
			}

			data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- operator-supplied document
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			out, doc, res, err := config.FillDocument(data, format, values, config.FillOptions{Force: force})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "fill failed")
				return err
			}
			metrics.RecordFilled(len(res.Filled))
			span.SetAttributes(
				attribute.Int("fill.filled", len(res.Filled)),
				attribute.Int(telemetry.DocumentPlaceholdersKey, len(res.Unresolved)),
			)

			if output == "-" {
				_, err = a.stdout.Write(out)
				return err
			}
			if err := fsutil.WriteBytesAtomic(output, 0o640, out); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			logger := log.WithComponentFromContext(ctx, "cli")
			logger.Info().
				Str(log.FieldEvent, "config.filled").
				Str(log.FieldPath, output).
				Int(log.FieldCount, len(res.Filled)).
				Msg("document filled")

			for _, p := range res.Filled {
				a.okf("%s\n", p)
			}
			if len(res.Unresolved) > 0 {
				a.warnf("%d placeholders remain:\n", len(res.Unresolved))
				for _, p := range res.Unresolved {
					a.warnf("  %s\n", p)
				}
				return nil
			}
			if err := config.Validate(doc); err != nil {
				a.printReport(fileReport{Path: output, Errors: issuesFrom(err)})
				return &exitError{code: exitInvalid}
			}
			a.okf("%s is complete and valid\n", output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&sets, "set", nil, "path=value assignment (repeatable)")
	f.StringVar(&valuesFile, "values", "", "YAML or JSON file mapping paths to values")
	f.StringVarP(&output, "output", "o", "", "output file (default: FILE, - for stdout)")
	f.BoolVar(&force, "force", false, "allow overwriting values that are not placeholders")
	return cmd
}
