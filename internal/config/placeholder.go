// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/nmrcfg/internal/validate"
)

// FindPlaceholders walks a node tree and returns the paths of every scalar
// still equal to the placeholder token, in document order. Mapping keys are
// joined with "." and sequence items are written as "[i]", for example
// "data.spectra_file[0]".
func FindPlaceholders(root *yaml.Node) []string {
	var out []string
	walkScalars(root, "", func(path string, n *yaml.Node) {
		if n.ShortTag() == "!!str" && validate.IsPlaceholder(n.Value) {
			out = append(out, path)
		}
	})
	return out
}

// walkScalars calls fn for every scalar leaf under n with its document path.
func walkScalars(n *yaml.Node, path string, fn func(string, *yaml.Node)) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			walkScalars(c, path, fn)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			walkScalars(n.Content[i+1], joinKey(path, n.Content[i].Value), fn)
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			walkScalars(c, joinIndex(path, i), fn)
		}
	case yaml.AliasNode:
		walkScalars(n.Alias, path, fn)
	case yaml.ScalarNode:
		fn(path, n)
	}
}

// clearTypedPlaceholders nulls every placeholder scalar that sits in a field
// the token cannot decode into (an int, float or bool), so the strict decode
// binds the rest of the document and the field keeps its default. It reports
// whether any node changed.
func clearTypedPlaceholders(n *yaml.Node, t reflect.Type) bool {
	if n == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	changed := false
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			changed = clearTypedPlaceholders(c, t) || changed
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			var ft reflect.Type
			switch t.Kind() {
			case reflect.Struct:
				f, ok := fieldByKey(t, n.Content[i].Value)
				if !ok {
					continue // unknown keys are reported by the decoder
				}
				ft = f
			case reflect.Map:
				ft = t.Elem()
			default:
				return changed
			}
			changed = clearTypedPlaceholders(n.Content[i+1], ft) || changed
		}
	case yaml.SequenceNode:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return false
		}
		for _, c := range n.Content {
			changed = clearTypedPlaceholders(c, t.Elem()) || changed
		}
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" || !validate.IsPlaceholder(n.Value) {
			return false
		}
		switch t.Kind() {
		case reflect.String, reflect.Interface:
			return false
		}
		n.Tag, n.Value, n.Style = "!!null", "null", 0
		return true
	}
	return changed
}

// fieldByKey returns the type of the struct field decoded from key.
func fieldByKey(t reflect.Type, key string) (reflect.Type, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		if name == key {
			return f.Type, true
		}
	}
	return nil, false
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func joinIndex(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}
