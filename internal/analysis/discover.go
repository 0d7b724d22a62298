// SPDX-License-Identifier: MIT

// Package analysis finds the prediction files a run left for post-processing.
package analysis

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/nmrcfg/internal/log"
	"github.com/ManuGH/nmrcfg/internal/telemetry"
)

// Result is one file whose base name matched the analysis pattern.
type Result struct {
	Path string
	// Groups holds the pattern's capture groups, empty for unmatched groups.
	Groups []string
}

// Name returns the base name of the result file.
func (r Result) Name() string { return filepath.Base(r.Path) }

// Discover walks dir and returns every regular file whose base name matches
// pattern, sorted by path.
func Discover(ctx context.Context, dir, pattern string) ([]Result, error) {
	_, span := telemetry.Tracer("nmrcfg/analysis").Start(ctx, "analysis.discover")
	defer span.End()
	span.SetAttributes(attribute.String("analysis.dir", dir), attribute.String("analysis.pattern", pattern))

	re, err := regexp.Compile(pattern)
	if err != nil {
		span.SetStatus(codes.Error, "bad pattern")
		return nil, fmt.Errorf("analysis: compile pattern: %w", err)
	}

	var out []Result
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		m := re.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		out = append(out, Result{Path: path, Groups: m[1:]})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "walk failed")
		return nil, fmt.Errorf("analysis: walk %s: %w", dir, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	span.SetAttributes(attribute.Int("analysis.results", len(out)))

	logger := log.WithComponentFromContext(ctx, "analysis")
	logger.Debug().
		Str(log.FieldEvent, "analysis.discovered").
		Str(log.FieldPath, dir).
		Int(log.FieldCount, len(out)).
		Msg("result files discovered")
	return out, nil
}
