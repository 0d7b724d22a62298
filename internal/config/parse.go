// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/nmrcfg/internal/validate"
)

// Format is a document encoding.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
)

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	default:
		return "", fmt.Errorf("%w: %s (supported: .yaml, .yml, .json, .jsonc)", ErrUnsupportedFormat, ext)
	}
}

// normalize returns YAML-decodable bytes. JSON is a YAML subset, so JSON and
// JSONC only need comments and trailing commas stripped.
func normalize(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatYAML, "":
		return data, nil
	case FormatJSON, FormatJSONC:
		return jsonc.ToJSON(data), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Parse decodes a document strictly. Registry defaults are applied first so
// absent keys keep their defaults. Placeholder paths are recorded on the
// returned document; they are not an error here.
func Parse(data []byte, format Format) (*Document, error) {
	data, err := normalize(data, format)
	if err != nil {
		return nil, err
	}

	root, err := parseNode(data)
	if err != nil {
		return nil, err
	}
	if err := checkSections(root); err != nil {
		return nil, err
	}

	reg, err := GetRegistry()
	if err != nil {
		return nil, fmt.Errorf("config registry: %w", err)
	}
	doc := &Document{}
	if err := reg.ApplyDefaults(doc); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	placeholders := FindPlaceholders(root)
	// A placeholder in a numeric field is a missing value, not a type error.
	if clearTypedPlaceholders(root, reflect.TypeOf(Document{})) {
		if data, err = encodeNode(root); err != nil {
			return nil, err
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(doc); err != nil {
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: strict config parse error: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	doc.Placeholders = placeholders
	return doc, nil
}

// ParseNode decodes data into a YAML node tree without binding it to Document.
func ParseNode(data []byte, format Format) (*yaml.Node, error) {
	data, err := normalize(data, format)
	if err != nil {
		return nil, err
	}
	return parseNode(data)
}

func parseNode(data []byte) (*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config: empty document")
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Strict: Ensure no multiple documents or trailing content
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, ErrMultipleDocuments
	}
	return &root, nil
}

// checkSections reports every required top-level section that is absent.
func checkSections(root *yaml.Node) error {
	m := root
	if m.Kind == yaml.DocumentNode && len(m.Content) > 0 {
		m = m.Content[0]
	}
	if m.Kind != yaml.MappingNode {
		return fmt.Errorf("parse config: top level must be a mapping")
	}
	present := make(map[string]bool, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		present[m.Content[i].Value] = true
	}
	v := validate.New()
	for _, s := range RequiredSections {
		if !present[s] {
			v.Add(validate.KindMissing, s, "required section is missing", nil)
		}
	}
	return v.Err()
}
