// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics provides Prometheus metrics for nmrcfg document handling.
package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/nmrcfg/internal/validate"
)

// Load outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// No document paths in labels: one series per outcome or kind only.
var (
	// DocumentsLoadedTotal counts document loads by outcome.
	DocumentsLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmrcfg_documents_loaded_total",
		Help: "Total number of documents loaded, by outcome (ok/invalid/error).",
	}, []string{"outcome"})

	// ValidationErrorsTotal counts validation errors by kind.
	ValidationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmrcfg_validation_errors_total",
		Help: "Total number of validation errors, by kind.",
	}, []string{"kind"})

	// PlaceholdersDetectedTotal counts placeholder values seen in loaded documents.
	PlaceholdersDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nmrcfg_placeholders_detected_total",
		Help: "Total number of unresolved placeholder values detected.",
	})

	// FilledValuesTotal counts values written by fill.
	FilledValuesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nmrcfg_filled_values_total",
		Help: "Total number of document values written by fill.",
	})
)

// RecordLoad increments the load counter for outcome.
func RecordLoad(outcome string) {
	DocumentsLoadedTotal.WithLabelValues(normalizeOutcome(outcome)).Inc()
}

// RecordLoadResult classifies err and records the outcome. Validation
// failures also count every error by kind.
func RecordLoadResult(err error) {
	if err == nil {
		RecordLoad(OutcomeOK)
		return
	}
	var ve validate.ValidationError
	if errors.As(err, &ve) {
		RecordLoad(OutcomeInvalid)
		RecordValidation(ve)
		return
	}
	RecordLoad(OutcomeError)
}

// RecordValidation counts the errors of ve by kind.
func RecordValidation(ve validate.ValidationError) {
	for kind, n := range ve.Count() {
		ValidationErrorsTotal.WithLabelValues(string(kind)).Add(float64(n))
	}
}

// RecordPlaceholders adds n detected placeholders.
func RecordPlaceholders(n int) {
	if n > 0 {
		PlaceholdersDetectedTotal.Add(float64(n))
	}
}

// RecordFilled adds n filled values.
func RecordFilled(n int) {
	if n > 0 {
		FilledValuesTotal.Add(float64(n))
	}
}

func normalizeOutcome(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case OutcomeOK:
		return OutcomeOK
	case OutcomeInvalid:
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
