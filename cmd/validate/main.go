// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// validate checks one training document and exits. It is the minimal
// counterpart of "nmrcfg validate" for CI jobs and pre-commit hooks.
//
// Usage:
//
//	validate -f config.yaml
//	validate --file config.yaml --template
//
// Exit codes:
//   - 0: Document is valid
//   - 1: Document is invalid (parse or validation error)
//   - 2: Usage error (missing required flag)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/nmrcfg/internal/config"
	"github.com/ManuGH/nmrcfg/internal/validate"
	"github.com/ManuGH/nmrcfg/internal/version"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		file        string
		template    bool
		showVersion bool
	)
	fs.StringVar(&file, "file", "", "path to the YAML or JSON document")
	fs.StringVar(&file, "f", "", "path to the YAML or JSON document (shorthand)")
	fs.BoolVar(&template, "template", false, "accept Populate placeholders")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	}

	if file == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file is required")
		_, _ = fmt.Fprintln(stderr, "")
		_, _ = fmt.Fprintln(stderr, "Usage:")
		_, _ = fmt.Fprintln(stderr, "  validate -f config.yaml")
		_, _ = fmt.Fprintln(stderr, "  validate --file config.yaml")
		return 2
	}

	loader := config.NewLoader(file)
	var err error
	if template {
		_, err = loader.LoadTemplate(ctx)
	} else {
		_, err = loader.Load(ctx)
	}

	var ve validate.ValidationError
	switch {
	case errors.As(err, &ve):
		_, _ = fmt.Fprintf(stderr, "Validation error in %s:\n", file)
		for _, e := range ve.Errors() {
			_, _ = fmt.Fprintf(stderr, "  [%s] %s: %s\n", e.Kind, e.Field, e.Message)
		}
		return 1
	case err != nil:
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n", file)
		_, _ = fmt.Fprintf(stderr, "  %v\n", err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", file)
	return 0
}
