// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package components

import (
	"fmt"
	"math"
	"sort"

	"github.com/ManuGH/nmrcfg/internal/validate"
)

// ParamKind is the value shape a component argument must have.
type ParamKind string

const (
	ParamInt    ParamKind = "int"
	ParamFloat  ParamKind = "float"
	ParamString ParamKind = "string"
	ParamBool   ParamKind = "bool"
	ParamList   ParamKind = "list"
	ParamMap    ParamKind = "map"
	ParamAny    ParamKind = "any"
)

// Param describes one accepted argument.
type Param struct {
	Name     string
	Kind     ParamKind
	Required bool
	// Ref names the component kind a string value must resolve in.
	Ref Kind
	// Positive requires numeric values greater than zero.
	Positive bool
	Doc      string
}

// Check is a cross-field rule run after the per-param checks. field is the
// document path of the argument mapping.
type Check func(field string, args map[string]any, v *validate.Validator)

// Schema is the argument contract of a component.
type Schema struct {
	Params []Param
	// Open schemas accept keys that are not listed in Params.
	Open   bool
	Checks []Check
}

func (s *Schema) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Validate checks args against the schema and records failures on v under
// field. Placeholder values are left to the placeholder scan and are not
// type-checked here.
func (s *Schema) Validate(reg *Registry, field string, args map[string]any, v *validate.Validator) {
	if s == nil {
		return
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := field + "." + k
		p, ok := s.param(k)
		if !ok {
			if !s.Open {
				v.Add(validate.KindUnknown, path, fmt.Sprintf("unknown argument %q", k), args[k])
			}
			continue
		}
		val := args[k]
		if validate.IsPlaceholder(val) {
			continue
		}
		if !matchesKind(p.Kind, val) {
			v.Add(validate.KindType, path, fmt.Sprintf("expected %s, got %T", p.Kind, val), val)
			continue
		}
		if p.Ref != "" && reg != nil {
			name, _ := val.(string)
			if !reg.Has(p.Ref, name) {
				v.Add(validate.KindUnknown, path,
					fmt.Sprintf("unknown %s %q (known: %v)", p.Ref, name, reg.Names(p.Ref)), val)
				continue
			}
		}
		if p.Positive {
			if f, ok := toFloat(val); ok && f <= 0 {
				v.Add(validate.KindRange, path, fmt.Sprintf("value must be positive, got %v", val), val)
			}
		}
	}

	for _, p := range s.Params {
		if !p.Required {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			v.Add(validate.KindMissing, field+"."+p.Name, "required argument is not set", nil)
		}
	}

	for _, check := range s.Checks {
		check(field, args, v)
	}
}

func matchesKind(kind ParamKind, val any) bool {
	switch kind {
	case ParamAny, "":
		return true
	case ParamInt:
		_, ok := toInt(val)
		return ok
	case ParamFloat:
		_, ok := toFloat(val)
		return ok
	case ParamString:
		_, ok := val.(string)
		return ok
	case ParamBool:
		_, ok := val.(bool)
		return ok
	case ParamList:
		_, ok := val.([]any)
		return ok
	case ParamMap:
		_, ok := val.(map[string]any)
		return ok
	default:
		return false
	}
}

// toInt accepts the integer shapes produced by the YAML and JSON decoders.
// Floats with no fractional part are not accepted: the harness requires ints.
func toInt(val any) (int64, bool) {
	switch n := val.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat(val any) (float64, bool) {
	switch n := val.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		if i, ok := toInt(val); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// IntArg returns args[name] as an int when it is present and integral.
func IntArg(args map[string]any, name string) (int64, bool) {
	val, ok := args[name]
	if !ok {
		return 0, false
	}
	return toInt(val)
}

// divisible returns a Check requiring args[num] % args[den] == 0 when both are
// integers. Missing or placeholder values are reported elsewhere.
func divisible(num, den string) Check {
	return func(field string, args map[string]any, v *validate.Validator) {
		n, ok1 := IntArg(args, num)
		d, ok2 := IntArg(args, den)
		if !ok1 || !ok2 || d <= 0 {
			return
		}
		if n%d != 0 {
			v.Add(validate.KindRange, field+"."+num,
				fmt.Sprintf("%s (%d) must be divisible by %s (%d)", num, n, den, d), n)
		}
	}
}

// equals returns a Check requiring args[name] == want when set.
func equals(name, want string) Check {
	return func(field string, args map[string]any, v *validate.Validator) {
		val, ok := args[name]
		if !ok || validate.IsPlaceholder(val) {
			return
		}
		if s, _ := val.(string); s != want {
			v.Add(validate.KindUnknown, field+"."+name,
				fmt.Sprintf("%s must be %q for this model, got %v", name, want, val), val)
		}
	}
}
