// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Document attributes
	DocumentPathKey         = "document.path"
	DocumentFormatKey       = "document.format"
	DocumentFingerprintKey  = "document.fingerprint"
	DocumentPlaceholdersKey = "document.placeholders"

	// Validation attributes
	ValidationErrorsKey    = "validation.errors"
	ValidationMissingKey   = "validation.missing"
	ValidationUnknownKey   = "validation.unknown"
	ValidationPartitionKey = "validation.partition"

	// Checkpoint attributes
	CheckpointEpochKey   = "checkpoint.epoch"
	CheckpointLossKey    = "checkpoint.loss"
	CheckpointKeptKey    = "checkpoint.kept"
	CheckpointEvictedKey = "checkpoint.evicted"
	CheckpointPolicyKey  = "checkpoint.policy"

	// Split attributes
	SplitSizeKey  = "split.size"
	SplitSeedKey  = "split.seed"
	SplitTrainKey = "split.train"
	SplitValKey   = "split.val"
	SplitTestKey  = "split.test"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// DocumentAttributes creates document-related span attributes. Empty values
// are left out.
func DocumentAttributes(path, format, fingerprint string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if path != "" {
		attrs = append(attrs, attribute.String(DocumentPathKey, path))
	}
	if format != "" {
		attrs = append(attrs, attribute.String(DocumentFormatKey, format))
	}
	if fingerprint != "" {
		attrs = append(attrs, attribute.String(DocumentFingerprintKey, fingerprint))
	}
	return attrs
}

// ValidationAttributes creates validation outcome attributes.
func ValidationAttributes(total, missing, unknown, partition int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(ValidationErrorsKey, total),
		attribute.Int(ValidationMissingKey, missing),
		attribute.Int(ValidationUnknownKey, unknown),
		attribute.Int(ValidationPartitionKey, partition),
	}
}

// CheckpointAttributes creates checkpoint decision attributes.
func CheckpointAttributes(epoch int, loss float64, kept bool, evicted string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(CheckpointEpochKey, epoch),
		attribute.Float64(CheckpointLossKey, loss),
		attribute.Bool(CheckpointKeptKey, kept),
	}
	if evicted != "" {
		attrs = append(attrs, attribute.String(CheckpointEvictedKey, evicted))
	}
	return attrs
}

// SplitAttributes creates dataset split attributes.
func SplitAttributes(size int, seed int64, train, val, test int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(SplitSizeKey, size),
		attribute.Int64(SplitSeedKey, seed),
		attribute.Int(SplitTrainKey, train),
		attribute.Int(SplitValKey, val),
		attribute.Int(SplitTestKey, test),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
