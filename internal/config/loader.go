// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/nmrcfg/internal/log"
	"github.com/ManuGH/nmrcfg/internal/metrics"
	"github.com/ManuGH/nmrcfg/internal/telemetry"
	"github.com/ManuGH/nmrcfg/internal/validate"
)

const tracerName = "nmrcfg/config"

// Loader handles document loading with precedence ENV > file > defaults.
type Loader struct {
	configPath      string
	lookup          EnvLookup
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a loader for the document at configPath.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		lookup:          os.LookupEnv,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// WithEnv replaces the environment lookup. Nil disables env overrides.
func (l *Loader) WithEnv(lookup EnvLookup) *Loader {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	l.lookup = lookup
	return l
}

// Path returns the document path.
func (l *Loader) Path() string { return l.configPath }

// Load reads, parses, applies env overrides and validates the document.
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate.
// On a validation failure the document is returned together with the error.
func (l *Loader) Load(ctx context.Context) (*Document, error) {
	return l.load(ctx, ValidateOptions{})
}

// LoadTemplate is Load without the placeholder errors.
func (l *Loader) LoadTemplate(ctx context.Context) (*Document, error) {
	return l.load(ctx, ValidateOptions{AllowPlaceholders: true})
}

func (l *Loader) load(ctx context.Context, opts ValidateOptions) (doc *Document, err error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "config.load")
	defer span.End()

	logger := log.WithComponentFromContext(ctx, "config")
	logger.Debug().
		Str(log.FieldEvent, "config.load_start").
		Str(log.FieldPath, l.configPath).
		Msg("loading document")

	defer func() {
		metrics.RecordLoadResult(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load failed")
		}
	}()

	format, err := FormatFromPath(l.configPath)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.DocumentAttributes(l.configPath, string(format), "")...)

	doc, err = l.readFile(l.configPath, format)
	if err != nil {
		logger.Error().Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str(log.FieldPath, l.configPath).
			Msg("failed to load document")
		return nil, err
	}
	metrics.RecordPlaceholders(len(doc.Placeholders))
	span.SetAttributes(attribute.Int(telemetry.DocumentPlaceholdersKey, len(doc.Placeholders)))

	applied, err := ApplyEnv(doc, l.lookup)
	for _, key := range applied {
		l.ConsumedEnvKeys[key] = struct{}{}
	}
	if err != nil {
		return nil, err
	}

	if err := l.validate(ctx, doc, opts); err != nil {
		return doc, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Info().
		Str(log.FieldEvent, "config.load_success").
		Str(log.FieldPath, l.configPath).
		Int(log.FieldCount, len(doc.Placeholders)).
		Msg("document loaded")
	return doc, nil
}

func (l *Loader) validate(ctx context.Context, doc *Document, opts ValidateOptions) error {
	_, span := telemetry.Tracer(tracerName).Start(ctx, "config.validate")
	defer span.End()

	err := ValidateWith(doc, opts)
	var ve validate.ValidationError
	if errors.As(err, &ve) {
		counts := ve.Count()
		span.SetAttributes(telemetry.ValidationAttributes(len(ve.Errors()),
			counts[validate.KindMissing], counts[validate.KindUnknown], counts[validate.KindPartition])...)
		span.SetStatus(codes.Error, "invalid document")

		logger := log.WithComponentFromContext(ctx, "config")
		for _, e := range ve.Errors() {
			logger.Debug().
				Str(log.FieldEvent, "config.validation_error").
				Str(log.FieldField, e.Field).
				Str(log.FieldKind, string(e.Kind)).
				Msg(e.Message)
		}
		logger.Warn().
			Str(log.FieldEvent, "config.validation_failed").
			Int(log.FieldCount, len(ve.Errors())).
			Msg("document failed validation")
	} else if err == nil {
		span.SetAttributes(telemetry.ValidationAttributes(0, 0, 0, 0)...)
	}
	return err
}

// readFile loads a document with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) readFile(path string, format Format) (*Document, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path) // #nosec G304 -- path is an operator-supplied document
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
