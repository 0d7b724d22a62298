// SPDX-License-Identifier: MIT

// Package validate provides configuration validation utilities for nmrcfg.
package validate

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindMissing   Kind = "missing"
	KindUnknown   Kind = "unknown"
	KindPartition Kind = "partition"
	KindRange     Kind = "range"
	KindType      Kind = "type"
	KindPattern   Kind = "pattern"
)

// Sentinels matched by errors.Is against any Error or ValidationError.
var (
	ErrMissingField          = errors.New("missing required field")
	ErrUnknownIdentifier     = errors.New("unknown identifier")
	ErrInconsistentPartition = errors.New("inconsistent partition")
	ErrOutOfRange            = errors.New("value out of range")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrInvalidPattern        = errors.New("invalid pattern")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMissing:
		return ErrMissingField
	case KindUnknown:
		return ErrUnknownIdentifier
	case KindPartition:
		return ErrInconsistentPartition
	case KindRange:
		return ErrOutOfRange
	case KindType:
		return ErrTypeMismatch
	case KindPattern:
		return ErrInvalidPattern
	default:
		return nil
	}
}

// Error represents a validation error
type Error struct {
	Field   string      // Document path that failed validation
	Kind    Kind        // Failure class
	Value   interface{} // The invalid value
	Message string      // Human-readable error message
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel for e.Kind.
func (e Error) Unwrap() error {
	return e.Kind.sentinel()
}

// Validator accumulates validation errors and can produce a ValidationError when invalid.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator
func New() *Validator {
	return &Validator{
		errors: make([]Error, 0),
	}
}

// Add records a validation error of the given kind.
func (v *Validator) Add(kind Kind, field, message string, value interface{}) {
	v.errors = append(v.errors, Error{
		Field:   field,
		Kind:    kind,
		Value:   value,
		Message: message,
	})
}

// Merge appends the errors carried by err. A ValidationError contributes
// each of its entries; an Error is appended as is; anything else is recorded
// as a type error on field.
func (v *Validator) Merge(field string, err error) {
	if err == nil {
		return
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		v.errors = append(v.errors, ve.errors...)
		return
	}
	var single Error
	if errors.As(err, &single) {
		v.errors = append(v.errors, single)
		return
	}
	v.Add(KindType, field, err.Error(), nil)
}

// IsValid returns true if no errors have been accumulated
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns all accumulated validation errors
func (v *Validator) Errors() []Error {
	return v.errors
}

// Err converts the accumulated validation errors into an error value.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}

	copied := make([]Error, len(v.errors))
	copy(copied, v.errors)

	return ValidationError{errors: copied}
}

// Errors returns the individual validation errors making up the validation failure.
func (e ValidationError) Errors() []Error {
	return e.errors
}

// Unwrap lets errors.Is and errors.As see every individual failure.
func (e ValidationError) Unwrap() []error {
	out := make([]error, len(e.errors))
	for i, err := range e.errors {
		out[i] = err
	}
	return out
}

// Fields returns the sorted, de-duplicated fields that failed with kind.
func (e ValidationError) Fields(kind Kind) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, err := range e.errors {
		if err.Kind != kind {
			continue
		}
		if _, ok := seen[err.Field]; ok {
			continue
		}
		seen[err.Field] = struct{}{}
		out = append(out, err.Field)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of errors per kind.
func (e ValidationError) Count() map[Kind]int {
	counts := make(map[Kind]int)
	for _, err := range e.errors {
		counts[err.Kind]++
	}
	return counts
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	if len(e.errors) == 0 {
		return ""
	}

	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}

	// Multiple errors - format as list
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// PlaceholderToken marks a template value that a later templating step must fill.
const PlaceholderToken = "Populate"

// IsPlaceholder reports whether value is the placeholder token. Matching
// ignores case and surrounding whitespace.
func IsPlaceholder(value interface{}) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s), PlaceholderToken)
}

// Placeholder records a field that still carries a template placeholder.
func (v *Validator) Placeholder(field string, value interface{}) {
	v.Add(KindMissing, field, "placeholder must be populated before use", value)
}

// NotEmpty validates that a string is not empty or whitespace-only
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(KindMissing, field, "value cannot be empty", value)
	}
}

// NotEmptyList validates that a list has at least one entry.
func (v *Validator) NotEmptyList(field string, values []string) {
	if len(values) == 0 {
		v.Add(KindMissing, field, "list cannot be empty", values)
	}
}

// Range validates that an integer is within a specified range (inclusive)
func (v *Validator) Range(field string, value, minVal, maxVal int) {
	if value < minVal || value > maxVal {
		v.Add(KindRange, field,
			fmt.Sprintf("value must be between %d and %d, got %d", minVal, maxVal, value),
			value)
	}
}

// Positive validates that a number is positive (> 0)
func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.Add(KindRange, field, fmt.Sprintf("value must be positive, got %d", value), value)
	}
}

// NonNegative validates that a number is non-negative (>= 0)
func (v *Validator) NonNegative(field string, value int) {
	if value < 0 {
		v.Add(KindRange, field, fmt.Sprintf("value cannot be negative, got %d", value), value)
	}
}

// NonNegativeFloat validates that a float is non-negative (>= 0)
func (v *Validator) NonNegativeFloat(field string, value float64) {
	if math.IsNaN(value) || value < 0 {
		v.Add(KindRange, field, fmt.Sprintf("value cannot be negative, got %g", value), value)
	}
}

// OneOf validates that a value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(KindUnknown, field,
		fmt.Sprintf("value must be one of %v, got %q", allowed, value),
		value)
}

// Partition validates that parts are each in [0, 1] and sum to 1 within tol.
// names label the parts in the error message.
func (v *Validator) Partition(field string, names []string, parts []float64, tol float64) {
	sum := 0.0
	for i, p := range parts {
		if math.IsNaN(p) || p < 0 || p > 1 {
			v.Add(KindPartition, field,
				fmt.Sprintf("%s must be between 0 and 1, got %g", names[i], p), p)
			return
		}
		sum += p
	}
	if math.Abs(sum-1) > tol {
		v.Add(KindPartition, field,
			fmt.Sprintf("%s must sum to 1, got %g", strings.Join(names, "+"), sum), sum)
	}
}

// Pattern validates that expr compiles as a regular expression.
func (v *Validator) Pattern(field, expr string) {
	if _, err := regexp.Compile(expr); err != nil {
		v.Add(KindPattern, field, fmt.Sprintf("invalid regular expression: %v", err), expr)
	}
}
