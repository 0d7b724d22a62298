// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/nmrcfg/internal/config"
	"github.com/ManuGH/nmrcfg/internal/validate"
)

type loadOptions struct {
	template bool
	noEnv    bool
}

func (o loadOptions) loader(path string) *config.Loader {
	l := config.NewLoader(path)
	if o.noEnv {
		l.WithEnv(nil)
	}
	return l
}

func (o loadOptions) load(ctx context.Context, path string) (*config.Document, error) {
	l := o.loader(path)
	if o.template {
		return l.LoadTemplate(ctx)
	}
	return l.Load(ctx)
}

// issue is one problem found in a document.
type issue struct {
	Field   string `json:"field,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// fileReport is the outcome of validating one document.
type fileReport struct {
	Path         string   `json:"path"`
	Valid        bool     `json:"valid"`
	Fingerprint  string   `json:"fingerprint,omitempty"`
	Placeholders []string `json:"placeholders,omitempty"`
	Errors       []issue  `json:"errors,omitempty"`
}

func issuesFrom(err error) []issue {
	if err == nil {
		return nil
	}
	var ve validate.ValidationError
	if errors.As(err, &ve) {
		out := make([]issue, 0, len(ve.Errors()))
		for _, e := range ve.Errors() {
			out = append(out, issue{Field: e.Field, Kind: string(e.Kind), Message: e.Message})
		}
		return out
	}
	kind := "parse"
	if errors.Is(err, config.ErrUnknownConfigField) {
		kind = string(validate.KindUnknown)
	}
	return []issue{{Kind: kind, Message: err.Error()}}
}

func validateFile(ctx context.Context, path string, opts loadOptions) fileReport {
	doc, err := opts.load(ctx, path)
	r := fileReport{Path: path, Valid: err == nil, Errors: issuesFrom(err)}
	if doc != nil {
		r.Placeholders = doc.Placeholders
		if err == nil {
			r.Fingerprint, _ = config.Fingerprint(doc)
		}
	}
	return r
}

func (a *app) printReport(r fileReport) {
	if r.Valid {
		a.okf("%s is valid", r.Path)
		if len(r.Placeholders) > 0 {
			a.warnf(" (%d placeholders to populate)", len(r.Placeholders))
		}
		a.printf("\n")
		return
	}
	a.failf("%s: %d problem(s)\n", r.Path, len(r.Errors))
	for _, e := range r.Errors {
		if e.Field != "" {
			a.printf("  - [%s] %s: %s\n", e.Kind, e.Field, e.Message)
		} else {
			a.printf("  - [%s] %s\n", e.Kind, e.Message)
		}
	}
}

func (a *app) validateCmd() *cobra.Command {
	var (
		opts     loadOptions
		asJSON   bool
		watch    bool
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate one or more documents",
		Long: `Validate parses each document strictly, applies NMRCFG_* overrides and runs
every check. Placeholders are errors unless --template is given.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && len(args) != 1 {
				return usageError("--watch takes exactly one file")
			}
			if parallel < 1 {
				parallel = 1
			}

			reports := make([]fileReport, len(args))
			g, gctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(parallel)
			for i, path := range args {
				g.Go(func() error {
					reports[i] = validateFile(gctx, path, opts)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			invalid := 0
			for _, r := range reports {
				if !r.Valid {
					invalid++
				}
			}
			if asJSON {
				if err := a.writeJSON(reports); err != nil {
					return err
				}
			} else {
				for _, r := range reports {
					a.printReport(r)
				}
			}

			if watch {
				return a.watch(cmd.Context(), args[0], opts)
			}
			if invalid > 0 {
				return &exitError{code: exitInvalid}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.template, "template", false, "accept Populate placeholders")
	f.BoolVar(&opts.noEnv, "no-env", false, "ignore NMRCFG_* environment overrides")
	f.BoolVar(&asJSON, "json", false, "print a JSON report")
	f.BoolVar(&watch, "watch", false, "keep watching the file and re-validate on change")
	f.IntVarP(&parallel, "parallel", "j", runtime.NumCPU(), "documents validated concurrently")
	return cmd
}

// watch re-validates path on every change until the context ends.
func (a *app) watch(ctx context.Context, path string, opts loadOptions) error {
	loader := opts.loader(path)
	var initial *config.Document
	if doc, err := opts.load(ctx, path); err == nil {
		initial = doc
	}

	w := config.NewWatcher(loader, initial)
	w.AllowPlaceholders(opts.template)
	outcomes := make(chan config.Outcome, 8)
	w.Subscribe(outcomes)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	a.headf("watching %s (Ctrl-C to stop)\n", path)
	for {
		select {
		case err := <-done:
			return err
		case out := <-outcomes:
			r := fileReport{Path: path, Valid: out.Err == nil, Errors: issuesFrom(out.Err)}
			if out.Doc != nil {
				r.Placeholders = out.Doc.Placeholders
			}
			a.printReport(r)
			for _, f := range out.Changes.ChangedFields {
				a.printf("  changed: %s\n", f)
			}
		}
	}
}

// loadValid loads path and turns a failure into a printed report.
func (a *app) loadValid(ctx context.Context, path string, opts loadOptions) (*config.Document, error) {
	doc, err := opts.load(ctx, path)
	if err != nil {
		a.printReport(fileReport{Path: path, Errors: issuesFrom(err)})
		return nil, &exitError{code: exitInvalid, err: fmt.Errorf("%s is not valid", path)}
	}
	return doc, nil
}
