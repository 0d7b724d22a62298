// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/nmrcfg/internal/analysis"
)

func (a *app) resultsCmd() *cobra.Command {
	var (
		opts   loadOptions
		dir    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "results FILE",
		Short: "List the prediction files analysis.pattern matches",
		Long: `Results walks savedir (or --dir) and lists every file whose base name matches
analysis.pattern, the files the post-processing step of analysis_type reads.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := a.loadValid(ctx, args[0], opts)
			if err != nil {
				return err
			}
			root := doc.GlobalArgs.SaveDir
			if dir != "" {
				root = dir
			}
			found, err := analysis.Discover(ctx, root, doc.Analysis.Pattern)
			if err != nil {
				return err
			}

			if asJSON {
				paths := make([]string, 0, len(found))
				for _, r := range found {
					paths = append(paths, r.Path)
				}
				return a.writeJSON(map[string]any{
					"analysis_type": doc.Analysis.AnalysisType,
					"dir":           root,
					"files":         paths,
				})
			}
			if len(found) == 0 {
				a.warnf("no files in %s match %s\n", root, doc.Analysis.Pattern)
				return nil
			}
			a.headf("%d %s result file(s) in %s\n", len(found), doc.Analysis.AnalysisType, root)
			for _, r := range found {
				a.printf("  %s\n", r.Path)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dir, "dir", "", "directory to search (default: savedir)")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	f.BoolVar(&opts.template, "template", false, "accept Populate placeholders")
	f.BoolVar(&opts.noEnv, "no-env", false, "ignore NMRCFG_* environment overrides")
	return cmd
}
