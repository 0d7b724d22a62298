// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// nmrcfg validates, fills and inspects the YAML documents that drive the
// substructure-to-SMILES training harness, and manages the checkpoints,
// splits and result files those documents describe.
//
// Exit codes:
//   - 0: success
//   - 1: invalid document or failed operation
//   - 2: usage error
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
