// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/log"
	"github.com/ManuGH/nmrcfg/internal/metrics"
	"github.com/ManuGH/nmrcfg/internal/telemetry"
	"github.com/ManuGH/nmrcfg/internal/validate"
	"github.com/ManuGH/nmrcfg/internal/version"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

// exitError carries a process exit code out of a command. A nil err exits
// quietly.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		return nil
	}
}

// app holds the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	logLevel        string
	logFormat       string
	noColor         bool
	metricsTextfile string

	provider *telemetry.Provider
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if ferr := a.finish(context.WithoutCancel(ctx)); ferr != nil && err == nil {
		err = ferr
	}
	return a.exitCode(err)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nmrcfg",
		Short: "Validate and manage substructure-to-SMILES training documents",
		Long: `nmrcfg checks the YAML documents consumed by the NMR substructure-to-SMILES
transformer harness. It reports Populate placeholders, unknown identifiers,
missing fields and inconsistent split ratios, fills templates, and manages the
checkpoints, dataset splits and result files a document describes.`,
		Args:              usageArgs(cobra.NoArgs),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error (env NMRCFG_LOG_LEVEL)")
	pf.StringVar(&a.logFormat, "log-format", "json", "log format: json or pretty")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.StringVar(&a.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(
		a.validateCmd(),
		a.initCmd(),
		a.fillCmd(),
		a.dumpCmd(),
		a.diffCmd(),
		a.completeCmd(),
		a.splitCmd(),
		a.checkpointCmd(),
		a.resultsCmd(),
		a.schemaCmd(),
		a.versionCmd(),
	)
	return root
}

// setup configures logging and tracing once flags are parsed.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := a.logLevel
	if !cmd.Flags().Changed("log-level") {
		if env := strings.TrimSpace(os.Getenv("NMRCFG_LOG_LEVEL")); env != "" {
			level = env
		}
	}
	if _, err := validate.ParseLogLevel(strings.ToLower(level)); err != nil {
		return &exitError{code: exitUsage, err: fmt.Errorf("--log-level: %w", err)}
	}
	if a.logFormat != "json" && a.logFormat != "pretty" {
		return usageError("--log-format must be json or pretty, got %q", a.logFormat)
	}
	log.Configure(log.Config{
		Level:   strings.ToLower(level),
		Output:  a.stderr,
		Service: "nmrcfg",
		Pretty:  a.logFormat == "pretty",
	})
	if a.noColor {
		color.NoColor = true
	}

	cfg, err := telemetry.ConfigFromEnv("nmrcfg", version.Version)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	provider, err := telemetry.NewProvider(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.provider = provider
	return nil
}

// finish flushes traces and writes the metrics textfile.
func (a *app) finish(ctx context.Context) error {
	var errs []error
	if a.provider != nil {
		if err := a.provider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}
	if a.metricsTextfile != "" {
		if err := metrics.WriteTextfile(a.metricsTextfile); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	code := exitInvalid
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		err = ee.err
	}
	if err != nil {
		a.errorf("Error: %v\n", err)
	}
	return code
}
