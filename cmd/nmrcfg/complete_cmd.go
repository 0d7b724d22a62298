// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/checkpoint"
	"github.com/ManuGH/nmrcfg/internal/config"
	"github.com/ManuGH/nmrcfg/internal/log"
	"github.com/ManuGH/nmrcfg/internal/splits"
)

func (a *app) completeCmd() *cobra.Command {
	var (
		opts     loadOptions
		runID    string
		register bool
	)
	cmd := &cobra.Command{
		Use:   "complete FILE",
		Short: "Write the resolved document into savedir",
		Long: `Complete validates FILE, resolves a null seed and writes
<savedir>/full_config.yaml with the run id and fingerprint in its header, the
artifact the harness keeps next to its checkpoints. With --register the run is
also recorded in the checkpoint ledger.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := a.loadValid(ctx, args[0], opts)
			if err != nil {
				return err
			}
			if runID == "" {
				runID = uuid.NewString()
			}
			ctx = log.ContextWithRunID(ctx, runID)

			seed := splits.ResolveSeed(doc.GlobalArgs.Seed)
			path, err := config.SaveCompleted(doc, config.CompletedOptions{RunID: runID, Seed: &seed})
			if err != nil {
				return err
			}
			resolved := doc.Clone()
			resolved.GlobalArgs.Seed = &seed
			fp, err := config.Fingerprint(resolved)
			if err != nil {
				return err
			}

			if register {
				ledger, err := checkpoint.OpenLedger(ctx, doc.GlobalArgs.SaveDir)
				if err != nil {
					return err
				}
				defer func() { _ = ledger.Close() }()
				if _, err := ledger.CreateRun(ctx, checkpoint.RunSpec{
					ID:          runID,
					Metric:      doc.Training.CheckpointLossMetric,
					Capacity:    doc.Training.TopCheckpointsN,
					Fingerprint: fp,
				}); err != nil {
					return err
				}
			}

			logger := log.WithComponentFromContext(ctx, "cli")
			logger.Info().
				Str(log.FieldEvent, "config.completed").
				Str(log.FieldPath, path).
				Str(log.FieldFingerprint, fp).
				Msg("completed document written")

			a.okf("wrote %s\n", path)
			a.printf("  run_id:      %s\n", runID)
			a.printf("  seed:        %d\n", seed)
			a.printf("  fingerprint: %s\n", fp)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&runID, "run-id", "", "run id (default: a new UUID)")
	f.BoolVar(&register, "register", false, "record the run in the checkpoint ledger")
	f.BoolVar(&opts.noEnv, "no-env", false, "ignore NMRCFG_* environment overrides")
	return cmd
}
