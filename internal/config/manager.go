// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	jsonyaml "github.com/oasdiff/yaml"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/nmrcfg/internal/fsutil"
)

// CompletedFileName is the artifact the harness reads back from savedir.
const CompletedFileName = "full_config.yaml"

// Marshal encodes doc as YAML with 2-space indentation.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeYAML(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode renders doc in format. JSON output is derived from the YAML
// encoding, so both carry the same keys.
func Encode(doc *Document, format Format) ([]byte, error) {
	data, err := Marshal(doc)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatYAML, "":
		return data, nil
	case FormatJSON, FormatJSONC:
		out, err := jsonyaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}
	return nil
}

// Manager handles document persistence.
type Manager struct {
	configPath string
}

// NewManager creates a new document manager writing to configPath.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
	}
}

// Path returns the managed file path.
func (m *Manager) Path() string { return m.configPath }

// Save writes the document to disk atomically in the format implied by the
// file extension.
func (m *Manager) Save(doc *Document) error {
	format, err := FormatFromPath(m.configPath)
	if err != nil {
		return err
	}
	data, err := Encode(doc, format)
	if err != nil {
		return err
	}
	if err := fsutil.WriteBytesAtomic(m.configPath, 0o640, data); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Save writes doc to path.
func Save(doc *Document, path string) error {
	return NewManager(path).Save(doc)
}

// CompletedOptions tunes SaveCompleted.
type CompletedOptions struct {
	RunID string
	// Seed is the seed the run actually uses; it replaces a null seed.
	Seed *int
}

// SaveCompleted writes the resolved document to <savedir>/full_config.yaml
// with a head comment naming the run and fingerprint. It returns the path.
func SaveCompleted(doc *Document, opts CompletedOptions) (string, error) {
	resolved := doc.Clone()
	if opts.Seed != nil {
		seed := *opts.Seed
		resolved.GlobalArgs.Seed = &seed
	}

	fp, err := Fingerprint(resolved)
	if err != nil {
		return "", err
	}

	var node yaml.Node
	if err := node.Encode(resolved); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	node.HeadComment = fmt.Sprintf("run_id: %s\nfingerprint: %s", opts.RunID, fp)

	var buf bytes.Buffer
	if err := encodeYAML(&buf, &node); err != nil {
		return "", err
	}

	path := filepath.Join(resolved.GlobalArgs.SaveDir, CompletedFileName)
	if err := fsutil.WriteBytesAtomic(path, 0o640, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save completed config: %w", err)
	}
	return path, nil
}
