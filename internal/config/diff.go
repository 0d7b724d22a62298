// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ChangeSummary describes the result of comparing two Documents.
type ChangeSummary struct {
	ChangedFields []string // Document paths that changed, in field order
	Text          string   // Human-readable diff (- old, + new)
}

// Changed reports whether any field differs.
func (s ChangeSummary) Changed() bool { return len(s.ChangedFields) > 0 }

// compareOptions treats nil and empty collections as equal, ignores derived
// fields and compares numbers in argument maps by value, since YAML writes a
// whole float such as 1.0 as "1".
func compareOptions() []cmp.Option {
	return []cmp.Option{
		cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(Document{}, "Placeholders"),
		cmp.FilterValues(func(x, y any) bool {
			_, okx := asNumber(x)
			_, oky := asNumber(y)
			return okx && oky
		}, cmp.Comparer(func(x, y any) bool {
			a, _ := asNumber(x)
			b, _ := asNumber(y)
			return a == b
		})),
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Equal reports whether a and b describe the same run.
func Equal(a, b *Document) bool {
	return cmp.Equal(a, b, compareOptions()...)
}

// Diff compares two documents and returns a summary of changes.
func Diff(old, next *Document) ChangeSummary {
	r := &pathReporter{}
	opts := append(compareOptions(), cmp.Reporter(r))
	if cmp.Equal(old, next, opts...) {
		return ChangeSummary{}
	}
	return ChangeSummary{
		ChangedFields: r.changed,
		Text:          cmp.Diff(old, next, compareOptions()...),
	}
}

// pathReporter records the document path of every unequal leaf.
type pathReporter struct {
	path    cmp.Path
	seen    map[string]struct{}
	changed []string
}

func (r *pathReporter) PushStep(ps cmp.PathStep) { r.path = append(r.path, ps) }

func (r *pathReporter) PopStep() { r.path = r.path[:len(r.path)-1] }

func (r *pathReporter) Report(rs cmp.Result) {
	if rs.Equal() {
		return
	}
	p := documentPath(r.path)
	if p == "" {
		return
	}
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, ok := r.seen[p]; ok {
		return
	}
	r.seen[p] = struct{}{}
	r.changed = append(r.changed, p)
}

// documentPath renders a cmp path with YAML keys, e.g. "training.optimizer_args.lr".
func documentPath(path cmp.Path) string {
	var b strings.Builder
	for i, step := range path {
		switch s := step.(type) {
		case cmp.StructField:
			if i == 0 {
				continue
			}
			name := yamlKey(path[i-1].Type(), s.Name())
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(name)
		case cmp.MapIndex:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(keyString(s.Key()))
		case cmp.SliceIndex:
			ix, iy := s.SplitKeys()
			idx := ix
			if idx < 0 {
				idx = iy
			}
			b.WriteString("[" + strconv.Itoa(idx) + "]")
		}
	}
	return b.String()
}

func yamlKey(parent reflect.Type, field string) string {
	for parent != nil && parent.Kind() == reflect.Ptr {
		parent = parent.Elem()
	}
	if parent == nil || parent.Kind() != reflect.Struct {
		return field
	}
	f, ok := parent.FieldByName(field)
	if !ok {
		return field
	}
	tag := strings.Split(f.Tag.Get("yaml"), ",")[0]
	if tag == "" || tag == "-" {
		return field
	}
	return tag
}

func keyString(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	if v.CanInterface() {
		return fmt.Sprint(v.Interface())
	}
	return "?"
}
