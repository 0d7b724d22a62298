// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/nmrcfg/internal/config"
)

const fixtures = "../../internal/config/testdata"

func TestMain(m *testing.M) {
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "NMRCFG_") {
			key, _, _ := strings.Cut(e, "=")
			_ = os.Unsetenv(key)
		}
	}
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

// runCLI executes the root command in-process.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// writeDoc writes the valid fixture with savedir under dir and the given
// assignments applied, and returns its path.
func writeDoc(t *testing.T, dir string, sets ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtures, "valid.yaml"))
	require.NoError(t, err)

	v := config.Values{}
	require.NoError(t, v.Merge(append([]string{"global_args.savedir=" + filepath.Join(dir, "run")}, sets...)))
	out, _, _, err := config.FillDocument(data, config.FormatYAML, v, config.FillOptions{Force: true})
	require.NoError(t, err)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))
	return path
}
