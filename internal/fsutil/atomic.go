// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteFileAtomic writes path through write with full durability guarantees:
// the data goes to a temp file in the same directory, is fsynced and then
// renamed over path. Parent directories are created with 0750.
func WriteFileAtomic(path string, perm os.FileMode, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		// Cleanup is a no-op once the file was committed
		if cerr := pendingFile.Cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("cleanup pending file: %w", cerr)
		}
	}()

	if err := write(pendingFile); err != nil {
		return err
	}

	// CloseAtomicallyReplace: fsync + rename (durable + atomic)
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// WriteBytesAtomic is WriteFileAtomic for an in-memory payload.
func WriteBytesAtomic(path string, perm os.FileMode, data []byte) error {
	return WriteFileAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
