// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FillOptions tunes Fill.
type FillOptions struct {
	// Force allows replacing values that are not placeholders.
	Force bool
}

// FillResult reports what a fill changed.
type FillResult struct {
	Filled     []string // paths that were replaced, sorted
	Unresolved []string // placeholders left after the fill, in document order
}

// Values maps document paths to replacement nodes.
type Values map[string]*yaml.Node

// ParseSet parses a "path=value" assignment. The value is read as a YAML
// flow value, so "3", "true", "[a, b]" and "{k: v}" keep their types. Quote
// the value to force a string.
func ParseSet(assignment string) (string, *yaml.Node, error) {
	path, raw, ok := strings.Cut(assignment, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", nil, fmt.Errorf("invalid assignment %q (want path=value)", assignment)
	}
	node, err := valueNode([]byte(raw))
	if err != nil {
		return "", nil, fmt.Errorf("parse value for %s: %w", path, err)
	}
	return path, node, nil
}

// Merge parses assignments into v.
func (v Values) Merge(assignments []string) error {
	for _, a := range assignments {
		path, node, err := ParseSet(a)
		if err != nil {
			return err
		}
		v[path] = node
	}
	return nil
}

// LoadValues reads a values file: a mapping from document path to value.
func LoadValues(path string) (Values, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- values file paths are provided by the operator via CLI
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read values file: %w", err)
	}
	root, err := ParseNode(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse values file: %w", err)
	}
	m := root
	if m.Kind == yaml.DocumentNode && len(m.Content) > 0 {
		m = m.Content[0]
	}
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("values file must be a mapping of path to value")
	}
	out := make(Values, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		out[m.Content[i].Value] = m.Content[i+1]
	}
	return out, nil
}

func valueNode(raw []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		// An empty value is an explicit null.
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	return doc.Content[0], nil
}

type pathStep struct {
	key   string
	index int // -1 for mapping keys
}

func parsePath(path string) ([]pathStep, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnknownPath)
	}
	var steps []pathStep
	for _, seg := range strings.Split(path, ".") {
		name := seg
		var idx []int
		if open := strings.IndexByte(seg, '['); open >= 0 {
			name = seg[:open]
			rest := seg[open:]
			for rest != "" {
				closeAt := strings.IndexByte(rest, ']')
				if rest[0] != '[' || closeAt < 0 {
					return nil, fmt.Errorf("%w: malformed index in %q", ErrUnknownPath, path)
				}
				n, err := strconv.Atoi(rest[1:closeAt])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w: malformed index in %q", ErrUnknownPath, path)
				}
				idx = append(idx, n)
				rest = rest[closeAt+1:]
			}
		}
		if name == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrUnknownPath, path)
		}
		steps = append(steps, pathStep{key: name, index: -1})
		for _, n := range idx {
			steps = append(steps, pathStep{index: n})
		}
	}
	return steps, nil
}

// Lookup returns the node at path, or ErrUnknownPath.
func Lookup(root *yaml.Node, path string) (*yaml.Node, error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	n := root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, s := range steps {
		if n.Kind == yaml.AliasNode {
			n = n.Alias
		}
		switch {
		case s.index >= 0:
			if n.Kind != yaml.SequenceNode || s.index >= len(n.Content) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
			}
			n = n.Content[s.index]
		default:
			if n.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
			}
			var next *yaml.Node
			for i := 0; i+1 < len(n.Content); i += 2 {
				if n.Content[i].Value == s.key {
					next = n.Content[i+1]
					break
				}
			}
			if next == nil {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
			}
			n = next
		}
	}
	return n, nil
}

// Fill replaces the values at the given paths in root. Targets must exist
// and, unless opts.Force is set, must still hold a placeholder: a list such
// as ["Populate"] can be replaced as a whole. All failures are
// reported together and root is left untouched when any path fails.
func Fill(root *yaml.Node, values Values, opts FillOptions) (FillResult, error) {
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	targets := make(map[string]*yaml.Node, len(paths))
	var errs []error
	for _, p := range paths {
		n, err := Lookup(root, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !opts.Force && !holdsPlaceholder(n) {
			errs = append(errs, fmt.Errorf("%w: %s (use force to overwrite)", ErrNotPlaceholder, p))
			continue
		}
		targets[p] = n
	}
	if len(errs) > 0 {
		return FillResult{}, errors.Join(errs...)
	}

	for _, p := range paths {
		n := targets[p]
		repl := *values[p]
		repl.HeadComment = n.HeadComment
		repl.LineComment = n.LineComment
		repl.FootComment = n.FootComment
		*n = repl
	}

	return FillResult{Filled: paths, Unresolved: FindPlaceholders(root)}, nil
}

// holdsPlaceholder reports whether any scalar under n is a placeholder.
func holdsPlaceholder(n *yaml.Node) bool {
	return len(FindPlaceholders(n)) > 0
}

// FillDocument fills data and re-parses the result strictly, so filled values
// must match the field types. The output is always YAML.
func FillDocument(data []byte, format Format, values Values, opts FillOptions) ([]byte, *Document, FillResult, error) {
	root, err := ParseNode(data, format)
	if err != nil {
		return nil, nil, FillResult{}, err
	}
	res, err := Fill(root, values, opts)
	if err != nil {
		return nil, nil, FillResult{}, err
	}
	out, err := encodeNode(root)
	if err != nil {
		return nil, nil, FillResult{}, err
	}
	doc, err := Parse(out, FormatYAML)
	if err != nil {
		return nil, nil, FillResult{}, fmt.Errorf("filled document: %w", err)
	}
	return out, doc, res, nil
}

func encodeNode(root *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}
