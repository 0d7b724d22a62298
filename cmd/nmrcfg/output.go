// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.FgCyan)
)

func (a *app) okf(format string, args ...any) {
	_, _ = okColor.Fprintf(a.stdout, "✓ "+format, args...)
}

func (a *app) failf(format string, args ...any) {
	_, _ = failColor.Fprintf(a.stdout, "✗ "+format, args...)
}

func (a *app) warnf(format string, args ...any) {
	_, _ = warnColor.Fprintf(a.stdout, format, args...)
}

func (a *app) headf(format string, args ...any) {
	_, _ = headColor.Fprintf(a.stdout, format, args...)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) errorf(format string, args ...any) {
	_, _ = failColor.Fprintf(a.stderr, format, args...)
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
