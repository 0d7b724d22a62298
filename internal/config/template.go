// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	_ "embed"
)

// templateYAML is the starter document written by "nmrcfg init".
//
//go:embed template.yaml
var templateYAML []byte

// TemplateBytes returns a copy of the embedded template.
func TemplateBytes() []byte {
	out := make([]byte, len(templateYAML))
	copy(out, templateYAML)
	return out
}

// Template parses the embedded template. Its placeholders are recorded on
// the document.
func Template() (*Document, error) {
	return Parse(templateYAML, FormatYAML)
}
