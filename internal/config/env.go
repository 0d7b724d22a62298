// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/nmrcfg/internal/log"
)

// EnvLookup resolves an environment variable. os.LookupEnv satisfies it.
type EnvLookup func(key string) (string, bool)

// ApplyEnv overrides document fields from the registry's environment keys.
// Empty variables are ignored. Malformed values are reported, not skipped.
// It returns the keys that were applied.
func ApplyEnv(doc *Document, lookup EnvLookup) ([]string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	reg, err := GetRegistry()
	if err != nil {
		return nil, err
	}
	logger := log.WithComponent("config")

	v := reflect.ValueOf(doc).Elem()
	var applied []string
	for _, key := range reg.EnvKeys() {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		entry := reg.ByEnv[key]
		if err := setFieldFromString(v, entry.FieldPath, strings.TrimSpace(raw)); err != nil {
			return applied, fmt.Errorf("%w: %s=%q: %w", ErrInvalidEnv, key, raw, err)
		}
		logEnv(logger, key, entry.Path, raw)
		applied = append(applied, key)
		doc.Placeholders = slices.DeleteFunc(doc.Placeholders, func(p string) bool { return p == entry.Path })
	}
	return applied, nil
}

func logEnv(logger zerolog.Logger, key, path, value string) {
	logger.Debug().
		Str("key", key).
		Str(log.FieldField, path).
		Str("value", value).
		Str("source", "environment").
		Msg("using environment variable")
}

func setFieldFromString(v reflect.Value, fieldPath, raw string) error {
	f, err := lookupField(v, fieldPath)
	if err != nil {
		return err
	}
	target := f
	if f.Kind() == reflect.Ptr {
		target = reflect.New(f.Type().Elem()).Elem()
	}

	switch target.Kind() {
	case reflect.String:
		target.SetString(raw)
	case reflect.Int, reflect.Int64, reflect.Int32:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("expected an integer")
		}
		target.SetInt(n)
	case reflect.Float64, reflect.Float32:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("expected a number")
		}
		target.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("expected a boolean")
		}
		target.SetBool(b)
	default:
		return fmt.Errorf("field %s cannot be set from the environment", fieldPath)
	}

	if f.Kind() == reflect.Ptr {
		p := reflect.New(f.Type().Elem())
		p.Elem().Set(target)
		f.Set(p)
	}
	return nil
}
