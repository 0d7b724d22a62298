// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package checkpoint

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/ManuGH/nmrcfg/internal/fsutil"
)

// Selection policies for inference.model_selection.
const (
	PolicyLowest = "lowest"
	PolicyLatest = "latest"
)

// ErrNoCheckpoints is returned when a directory holds no checkpoint to select.
var ErrNoCheckpoints = errors.New("no checkpoints found")

// List returns the checkpoints in dir ordered by epoch, then name. Files that
// do not follow the checkpoint naming are skipped.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		info, err := ParseName(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Epoch != out[j].Epoch {
			return out[i].Epoch < out[j].Epoch
		}
		return out[i].Name() < out[j].Name()
	})
	return out, nil
}

// Select picks the checkpoint in dir named by policy. "lowest" takes the
// minimum loss with ties going to the later epoch, "latest" the highest
// epoch. Any other policy is a checkpoint file name relative to dir.
func Select(dir, policy string) (Info, error) {
	switch policy {
	case PolicyLowest, PolicyLatest:
	default:
		return selectFile(dir, policy)
	}

	all, err := List(dir)
	if err != nil {
		return Info{}, err
	}
	if len(all) == 0 {
		return Info{}, fmt.Errorf("%w in %s", ErrNoCheckpoints, dir)
	}

	if policy == PolicyLatest {
		return all[len(all)-1], nil
	}

	best := -1
	for i, c := range all {
		if math.IsNaN(c.Loss) {
			continue
		}
		// all is ordered by epoch, so <= hands ties to the later one
		if best < 0 || c.Loss <= all[best].Loss {
			best = i
		}
	}
	if best < 0 {
		return Info{}, fmt.Errorf("%w with a finite loss in %s", ErrNoCheckpoints, dir)
	}
	return all[best], nil
}

func selectFile(dir, name string) (Info, error) {
	if filepath.Ext(name) != Extension {
		return Info{}, fmt.Errorf("checkpoint: unknown selection %q", name)
	}
	path, err := fsutil.ConfineRelPath(dir, name)
	if err != nil {
		return Info{}, fmt.Errorf("checkpoint: %w", err)
	}
	if err := fsutil.IsRegularFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, fmt.Errorf("%w: %s", ErrNoCheckpoints, name)
		}
		return Info{}, fmt.Errorf("checkpoint: %w", err)
	}
	if info, err := ParseName(path); err == nil {
		return info, nil
	}
	return Info{Path: path, Epoch: -1, Loss: math.NaN()}, nil
}
