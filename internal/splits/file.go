// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package splits

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/nmrcfg/internal/fsutil"
)

func isJSON(path string) (bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return true, nil
	case ".yaml", ".yml":
		return false, nil
	default:
		return false, fmt.Errorf("splits: unsupported index file extension %q", filepath.Ext(path))
	}
}

// ReadIndexFile reads a {train, val, test} index file in JSON or YAML and
// validates it against a dataset of n items (n <= 0 skips the bound check).
func ReadIndexFile(path string, n int) (Split, error) {
	asJSON, err := isJSON(path)
	if err != nil {
		return Split{}, err
	}
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path comes from the document
	if err != nil {
		return Split{}, fmt.Errorf("read index file: %w", err)
	}

	var s Split
	if asJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&s)
		if err == io.EOF {
			err = fmt.Errorf("empty index file")
		}
	}
	if err != nil {
		return Split{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(n); err != nil {
		return Split{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteIndexFile atomically writes s to path, in JSON or YAML by extension.
func WriteIndexFile(path string, s Split) error {
	asJSON, err := isJSON(path)
	if err != nil {
		return err
	}
	if err := s.Validate(0); err != nil {
		return err
	}
	// Keep empty subsets as [] rather than null
	for _, p := range []*[]int{&s.Train, &s.Val, &s.Test} {
		if *p == nil {
			*p = []int{}
		}
	}
	return fsutil.WriteFileAtomic(path, 0o640, func(w io.Writer) error {
		if asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	})
}
