// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates, templates and persists training run
// documents.
//
// Loading is strict: unknown keys and trailing documents are rejected, registry
// defaults are applied before the file is decoded and NMRCFG_* environment
// overrides are applied after. Validation reports every problem at once as a
// validate.ValidationError.
package config
