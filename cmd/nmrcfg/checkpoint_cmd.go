// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/checkpoint"
	"github.com/ManuGH/nmrcfg/internal/config"
	"github.com/ManuGH/nmrcfg/internal/log"
	"github.com/ManuGH/nmrcfg/internal/persistence/sqlite"
)

// checkpointFlags locate the checkpoint directory through a document or
// directly.
type checkpointFlags struct {
	config string
	dir    string
	opts   loadOptions
}

func (f *checkpointFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "document naming savedir and the retention settings")
	cmd.Flags().StringVar(&f.dir, "dir", "", "checkpoint directory (default: the document's savedir)")
}

func (f *checkpointFlags) document(ctx context.Context, a *app) (*config.Document, error) {
	if f.config == "" {
		return nil, usageError("--config is required")
	}
	return a.loadValid(ctx, f.config, f.opts)
}

// directory returns --dir, or the savedir of --config.
func (f *checkpointFlags) directory(ctx context.Context, a *app) (string, error) {
	if f.dir != "" {
		return f.dir, nil
	}
	if f.config == "" {
		return "", usageError("give --config or --dir")
	}
	doc, err := f.document(ctx, a)
	if err != nil {
		return "", err
	}
	return doc.GlobalArgs.SaveDir, nil
}

func (a *app) checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage model checkpoints in savedir",
		Long: `Checkpoint keeps the training.top_checkpoints_n best checkpoints of a run by
training.checkpoint_loss_metric, lists and selects checkpoints for inference,
and checks the retention ledger.`,
		Args: usageArgs(cobra.NoArgs),
	}
	cmd.AddCommand(
		a.checkpointOfferCmd(),
		a.checkpointListCmd(),
		a.checkpointSelectCmd(),
		a.checkpointStatusCmd(),
		a.checkpointVerifyCmd(),
	)
	return cmd
}

type offerReport struct {
	RunID   string `json:"run_id"`
	Epoch   int    `json:"epoch"`
	Kept    bool   `json:"kept"`
	Path    string `json:"path,omitempty"`
	Evicted string `json:"evicted,omitempty"`
	Slot    int    `json:"slot"`
}

func (a *app) checkpointOfferCmd() *cobra.Command {
	var (
		loc       checkpointFlags
		runID     string
		epoch     int
		trainLoss float64
		valLoss   float64
		remove    bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "offer",
		Short: "Offer an epoch's loss for retention",
		Long: `Offer ranks an epoch against the run's retained checkpoints. When the loss
beats the worst slot it prints the path to save the checkpoint under and the
checkpoint it evicts. The ledger in savedir keeps the slots between calls.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("epoch") {
				return usageError("--epoch is required")
			}
			ctx := cmd.Context()
			doc, err := loc.document(ctx, a)
			if err != nil {
				return err
			}
			dir := doc.GlobalArgs.SaveDir
			if loc.dir != "" {
				dir = loc.dir
			}

			ledger, err := checkpoint.OpenLedger(ctx, dir)
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			run, err := ledger.GetRun(ctx, runID)
			if errors.Is(err, checkpoint.ErrRunNotFound) && runID == "" {
				run, err = ledger.CreateRun(ctx, checkpoint.RunSpec{
					Metric:   doc.Training.CheckpointLossMetric,
					Capacity: doc.Training.TopCheckpointsN,
				})
			}
			if err != nil {
				return err
			}
			ctx = log.ContextWithRunID(ctx, run.ID)

			flag := "val-loss"
			loss := valLoss
			if run.Metric == checkpoint.MetricTrain {
				flag, loss = "train-loss", trainLoss
			}
			if !cmd.Flags().Changed(flag) {
				return usageError("run %s ranks by %s loss: --%s is required", run.ID, run.Metric, flag)
			}

			d, err := ledger.Offer(ctx, run, epoch, loss)
			if err != nil {
				return err
			}
			if remove && d.Evicted != "" {
				if err := checkpoint.Remove(d.Evicted); err != nil {
					return err
				}
			}

			if asJSON {
				return a.writeJSON(offerReport{
					RunID: run.ID, Epoch: epoch, Kept: d.Kept, Path: d.Path, Evicted: d.Evicted, Slot: d.Slot,
				})
			}
			if !d.Kept {
				a.printf("rejected epoch %d (%s loss %g)\n", epoch, run.Metric, loss)
				return nil
			}
			a.okf("keep epoch %d in slot %d: %s\n", epoch, d.Slot, d.Path)
			if d.Evicted != "" {
				a.warnf("evict %s\n", d.Evicted)
			}
			return nil
		},
	}
	loc.register(cmd)
	f := cmd.Flags()
	f.StringVar(&runID, "run", "", "run id (default: latest run, created when the ledger is empty)")
	f.IntVar(&epoch, "epoch", 0, "epoch number")
	f.Float64Var(&trainLoss, "train-loss", 0, "training loss of the epoch")
	f.Float64Var(&valLoss, "val-loss", 0, "validation loss of the epoch")
	f.BoolVar(&remove, "remove", false, "delete the evicted checkpoint file")
	f.BoolVar(&asJSON, "json", false, "print the decision as JSON")
	return cmd
}

func (a *app) checkpointListCmd() *cobra.Command {
	var loc checkpointFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checkpoints by epoch",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := loc.directory(cmd.Context(), a)
			if err != nil {
				return err
			}
			all, err := checkpoint.List(dir)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				a.warnf("no checkpoints in %s\n", dir)
				return nil
			}
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, headColor.Sprint("EPOCH\tLOSS\tTAG\tFILE"))
			for _, c := range all {
				_, _ = fmt.Fprintf(w, "%d\t%.8f\t%s\t%s\n", c.Epoch, c.Loss, c.Tag, c.Name())
			}
			return w.Flush()
		},
	}
	loc.register(cmd)
	return cmd
}

func (a *app) checkpointSelectCmd() *cobra.Command {
	var (
		loc    checkpointFlags
		policy string
	)
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Print the checkpoint inference would load",
		Long: `Select applies inference.model_selection (or --policy): "lowest" picks the
lowest loss with ties going to the later epoch, "latest" the highest epoch,
and anything else names a checkpoint file in savedir. A set model.load_model
takes precedence over the selection.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := loc.document(cmd.Context(), a)
			if err != nil {
				return err
			}
			if doc.Model.LoadModel != nil && *doc.Model.LoadModel != "" && policy == "" {
				a.printf("%s\n", *doc.Model.LoadModel)
				return nil
			}
			dir := doc.GlobalArgs.SaveDir
			if loc.dir != "" {
				dir = loc.dir
			}
			if policy == "" {
				policy = doc.Inference.ModelSelection
			}
			c, err := checkpoint.Select(dir, policy)
			if err != nil {
				return err
			}
			a.printf("%s\n", c.Path)
			return nil
		},
	}
	loc.register(cmd)
	cmd.Flags().StringVar(&policy, "policy", "", "override inference.model_selection")
	return cmd
}

func (a *app) checkpointStatusCmd() *cobra.Command {
	var (
		loc   checkpointFlags
		runID string
		final bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the retained slots of a run",
		Long: `Status prints the ledger slots of a run. With --final it also checks that a
run of training.nepochs epochs filled every slot.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			doc, err := loc.document(ctx, a)
			if err != nil {
				return err
			}
			dir := doc.GlobalArgs.SaveDir
			if loc.dir != "" {
				dir = loc.dir
			}
			ledger, err := checkpoint.OpenLedger(ctx, dir)
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			run, err := ledger.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			k, err := ledger.Keeper(ctx, run)
			if err != nil {
				return err
			}

			a.headf("run %s: %d slots by %s loss\n", run.ID, run.Capacity, run.Metric)
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			for i, s := range k.Slots() {
				if s.Empty() {
					_, _ = fmt.Fprintf(w, "%d\t-\t-\t(empty)\n", i)
					continue
				}
				_, _ = fmt.Fprintf(w, "%d\t%d\t%.8f\t%s\n", i, s.Epoch, s.Loss, filepath.Base(s.Path))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if final {
				if err := k.Check(doc.Training.NEpochs); err != nil {
					return &exitError{code: exitInvalid, err: err}
				}
				a.okf("all slots filled\n")
			}
			return nil
		},
	}
	loc.register(cmd)
	cmd.Flags().StringVar(&runID, "run", "", "run id (default: latest run)")
	cmd.Flags().BoolVar(&final, "final", false, "check that every slot was filled")
	return cmd
}

func (a *app) checkpointVerifyCmd() *cobra.Command {
	var (
		loc  checkpointFlags
		full bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the ledger database for corruption",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := loc.directory(cmd.Context(), a)
			if err != nil {
				return err
			}
			mode := sqlite.VerifyQuick
			if full {
				mode = sqlite.VerifyFull
			}
			path := filepath.Join(dir, checkpoint.LedgerFile)
			issues, err := sqlite.VerifyIntegrity(path, mode)
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				a.failf("%s: %d integrity issue(s)\n", path, len(issues))
				for _, is := range issues {
					a.printf("  - %s\n", is)
				}
				return &exitError{code: exitInvalid}
			}
			a.okf("%s passed %s check\n", path, mode)
			return nil
		},
	}
	loc.register(cmd)
	cmd.Flags().BoolVar(&full, "full", false, "run integrity_check instead of quick_check")
	return cmd
}
