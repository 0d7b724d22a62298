// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/nmrcfg/internal/config"
	"github.com/ManuGH/nmrcfg/internal/log"
	"github.com/ManuGH/nmrcfg/internal/splits"
	"github.com/ManuGH/nmrcfg/internal/telemetry"
	"github.com/ManuGH/nmrcfg/internal/validate"
)

func sectionSplit(doc *config.Document, section string) (string, splits.Ratios, bool) {
	switch section {
	case "training":
		t := doc.Training
		return config.SplitPath(t.Splits), splits.Ratios{Train: t.TrainSize, Val: t.ValSize, Test: t.TestSize}, true
	case "inference":
		in := doc.Inference
		return config.SplitPath(in.Splits), splits.Ratios{Train: in.TrainSize, Val: in.ValSize, Test: in.TestSize}, true
	}
	return "", splits.Ratios{}, false
}

func (a *app) splitCmd() *cobra.Command {
	var (
		opts    loadOptions
		section string
		size    int
		seed    int
		output  string
	)
	cmd := &cobra.Command{
		Use:   "split FILE",
		Short: "Build or check the dataset split of a section",
		Long: `Split partitions a dataset of --n items for the training or inference section.
When the section names an index file, that file is checked against the
dataset instead. Otherwise a random partition is drawn from the section's
ratios with the document seed (or --seed) and written to -o, or printed.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 0 {
				return usageError("--n must not be negative")
			}
			ctx, span := telemetry.Tracer("nmrcfg/cli").Start(cmd.Context(), "splits.build")
			defer span.End()

			doc, err := a.loadValid(ctx, args[0], opts)
			if err != nil {
				return err
			}
			indexFile, ratios, ok := sectionSplit(doc, section)
			if !ok {
				return usageError("--section must be training or inference, got %q", section)
			}

			if indexFile != "" && !validate.IsPlaceholder(indexFile) {
				s, err := splits.ReadIndexFile(indexFile, size)
				if err != nil {
					span.SetStatus(codes.Error, "bad index file")
					return err
				}
				span.SetAttributes(telemetry.SplitAttributes(size, -1, len(s.Train), len(s.Val), len(s.Test))...)
				a.okf("%s: train %d, val %d, test %d\n", indexFile, len(s.Train), len(s.Val), len(s.Test))
				return nil
			}

			if size == 0 {
				return usageError("--n is required for a random split")
			}
			resolved := splits.ResolveSeed(doc.GlobalArgs.Seed)
			if cmd.Flags().Changed("seed") {
				resolved = seed
			}
			s, err := splits.Random(size, ratios, int64(resolved))
			if err != nil {
				return err
			}
			span.SetAttributes(telemetry.SplitAttributes(size, int64(resolved), len(s.Train), len(s.Val), len(s.Test))...)
			logger := log.WithComponentFromContext(ctx, "cli")
			logger.Info().
				Str(log.FieldEvent, "splits.random").
				Int("seed", resolved).
				Int(log.FieldCount, size).
				Msg("random split drawn")

			if output == "" {
				enc := yaml.NewEncoder(a.stdout)
				enc.SetIndent(2)
				if err := enc.Encode(s); err != nil {
					return err
				}
				return enc.Close()
			}
			if err := splits.WriteIndexFile(output, s); err != nil {
				return err
			}
			a.okf("wrote %s (seed %d): train %d, val %d, test %d\n",
				output, resolved, len(s.Train), len(s.Val), len(s.Test))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&section, "section", "training", "document section: training or inference")
	f.IntVar(&size, "n", 0, "number of items in the dataset")
	f.IntVar(&seed, "seed", 0, "seed overriding global_args.seed")
	f.StringVarP(&output, "output", "o", "", "index file to write (.json, .yaml)")
	f.BoolVar(&opts.noEnv, "no-env", false, "ignore NMRCFG_* environment overrides")
	return cmd
}
