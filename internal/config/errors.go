// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrUnknownConfigField classifies strict parse failures caused by unknown keys.
	// Use errors.Is(err, ErrUnknownConfigField) instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrMultipleDocuments is returned when a file holds more than one YAML document.
	ErrMultipleDocuments = errors.New("config file contains multiple documents or trailing content")

	// ErrUnsupportedFormat is returned for file extensions with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrUnknownPath classifies fill targets that do not exist in the document.
	ErrUnknownPath = errors.New("unknown document path")

	// ErrNotPlaceholder is returned when fill targets a populated value without Force.
	ErrNotPlaceholder = errors.New("value is not a placeholder")

	// ErrInvalidEnv classifies malformed environment overrides.
	ErrInvalidEnv = errors.New("invalid environment override")
)
