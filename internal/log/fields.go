// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID       = "run_id"
	FieldCorrelation = "correlation_id"
	FieldTraceID     = "trace_id"
	FieldSpanID      = "span_id"
	FieldFingerprint = "fingerprint"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldDuration  = "duration_ms"

	// Document fields
	FieldPath   = "path"
	FieldFormat = "format"
	FieldField  = "field"
	FieldKind   = "kind"
	FieldCount  = "count"

	// Checkpoint fields
	FieldEpoch   = "epoch"
	FieldLoss    = "loss"
	FieldEvicted = "evicted"
)
