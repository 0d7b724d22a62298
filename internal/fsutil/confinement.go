// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package fsutil holds the file system helpers shared by the document,
// checkpoint and split writers.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a relative name resolves outside its root.
var ErrOutsideRoot = errors.New("path escapes root")

// ConfineRelPath joins root and rel and returns the resolved path, provided it
// stays underneath the resolved root after symlinks are followed. rel must be
// relative. Checkpoint names taken from a document go through here before
// they are opened.
func ConfineRelPath(root, rel string) (string, error) {
	if strings.Contains(rel, `\`) {
		return "", fmt.Errorf("path contains backslash: %s", rel)
	}
	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("target path must be relative: %s", rel)
	}
	if escapes(clean) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	switch {
	case os.IsNotExist(err):
		return "", err
	case err != nil:
		realRoot = absRoot
	}

	real, err := resolve(filepath.Join(realRoot, clean))
	if err != nil {
		return "", err
	}
	inside, err := filepath.Rel(realRoot, real)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if escapes(inside) {
		return "", fmt.Errorf("%w via symlinks: %s", ErrOutsideRoot, real)
	}
	return real, nil
}

// escapes reports whether a cleaned relative path climbs above its base.
// Names that merely contain ".." are fine.
func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolve follows symlinks in full. A missing path is resolved through its
// parent; anything that exists but cannot be resolved is refused.
func resolve(full string) (string, error) {
	if _, err := os.Lstat(full); err == nil {
		real, err := filepath.EvalSymlinks(full)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return real, nil
	}

	dir := filepath.Dir(full)
	real, err := filepath.EvalSymlinks(dir)
	if err == nil {
		return filepath.Join(real, filepath.Base(full)), nil
	}
	if _, statErr := os.Stat(dir); statErr == nil {
		return "", fmt.Errorf("failed to resolve parent path: %w", err)
	}
	// nothing exists yet; the Rel check in the caller still applies
	return full, nil
}

// IsRegularFile returns nil when path exists and is a regular file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}
