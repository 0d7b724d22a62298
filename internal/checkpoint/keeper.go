// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/nmrcfg/internal/log"
	"github.com/ManuGH/nmrcfg/internal/metrics"
	"github.com/ManuGH/nmrcfg/internal/telemetry"
)

const tracerName = "nmrcfg/checkpoint"

// Loss metrics accepted by the keeper.
const (
	MetricTrain = "train"
	MetricVal   = "val"
)

// ErrIncomplete is returned by Keeper.Check when a run long enough to fill
// every slot left some of them empty.
var ErrIncomplete = errors.New("checkpoint slots not filled")

// Slot is one retained checkpoint. An empty slot has Loss +Inf and no Path.
type Slot struct {
	Epoch int
	Loss  float64
	Path  string
}

// Empty reports whether the slot holds no checkpoint.
func (s Slot) Empty() bool { return s.Path == "" }

// Decision is the result of offering one epoch to the keeper.
type Decision struct {
	Kept bool
	// Path is where the new checkpoint must be written when Kept.
	Path string
	// Evicted is the checkpoint that lost its slot and should be deleted.
	Evicted string
	// Slot is the index that received the checkpoint, -1 when rejected.
	Slot int
}

// Keeper retains the n checkpoints with the lowest loss.
type Keeper struct {
	mu     sync.Mutex
	dir    string
	tag    string
	metric string
	slots  []Slot
}

// NewKeeper creates a keeper for n slots ranked by metric ("train" or "val")
// whose checkpoints live in dir.
func NewKeeper(dir string, n int, metric string) (*Keeper, error) {
	if n < 1 {
		return nil, fmt.Errorf("checkpoint: slot count must be positive, got %d", n)
	}
	if metric != MetricTrain && metric != MetricVal {
		return nil, fmt.Errorf("checkpoint: unknown loss metric %q", metric)
	}
	k := &Keeper{dir: dir, metric: metric, slots: make([]Slot, n)}
	for i := range k.slots {
		k.slots[i] = Slot{Loss: math.Inf(1)}
	}
	return k, nil
}

// SetTag sets the suffix appended to new checkpoint names.
func (k *Keeper) SetTag(tag string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tag = tag
}

// Metric returns the loss metric the keeper ranks by.
func (k *Keeper) Metric() string { return k.metric }

// Restore replaces the slots, for example from a ledger. Extra slots are
// an error; missing ones stay empty.
func (k *Keeper) Restore(slots []Slot) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(slots) > len(k.slots) {
		return fmt.Errorf("checkpoint: %d slots restored into keeper of %d", len(slots), len(k.slots))
	}
	for i := range k.slots {
		k.slots[i] = Slot{Loss: math.Inf(1)}
	}
	copy(k.slots, slots)
	return nil
}

// Slots returns a copy of the slots in slot order.
func (k *Keeper) Slots() []Slot {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]Slot, len(k.slots))
	copy(out, k.slots)
	return out
}

// Offer ranks the loss of epoch against the retained checkpoints. The worst
// slot (the first one holding the maximum loss) is replaced when loss is
// strictly lower. NaN losses are never kept.
func (k *Keeper) Offer(ctx context.Context, epoch int, loss float64) Decision {
	_, span := telemetry.Tracer(tracerName).Start(ctx, "checkpoint.offer")
	defer span.End()

	k.mu.Lock()
	worst := 0
	for i, s := range k.slots {
		if s.Loss > k.slots[worst].Loss {
			worst = i
		}
	}

	d := Decision{Slot: -1}
	if loss < k.slots[worst].Loss {
		d.Kept = true
		d.Slot = worst
		d.Evicted = k.slots[worst].Path
		d.Path = FormatName(k.dir, epoch, loss, k.tag)
		k.slots[worst] = Slot{Epoch: epoch, Loss: loss, Path: d.Path}
	}
	k.mu.Unlock()

	metrics.RecordCheckpoint(k.metric, d.Kept, d.Evicted != "")
	span.SetAttributes(telemetry.CheckpointAttributes(epoch, loss, d.Kept, d.Evicted)...)
	span.SetAttributes(attribute.String(telemetry.CheckpointPolicyKey, k.metric))

	logger := log.WithComponentFromContext(ctx, "checkpoint")
	ev := logger.Debug()
	if d.Kept {
		ev = logger.Info()
	}
	ev.Str(log.FieldEvent, "checkpoint.offer").
		Int(log.FieldEpoch, epoch).
		Float64(log.FieldLoss, loss).
		Bool("kept", d.Kept).
		Str(log.FieldEvicted, d.Evicted).
		Msg("checkpoint offered")
	return d
}

// Full reports whether every slot holds a checkpoint.
func (k *Keeper) Full() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, s := range k.slots {
		if s.Empty() || math.IsInf(s.Loss, 1) {
			return false
		}
	}
	return true
}

// Check verifies the end-of-training condition: a run of at least as many
// epochs as slots must have filled every slot.
func (k *Keeper) Check(nepochs int) error {
	if nepochs < len(k.slots) || k.Full() {
		return nil
	}
	return fmt.Errorf("%w: %d epochs for %d slots", ErrIncomplete, nepochs, len(k.slots))
}

// Remove deletes an evicted checkpoint. A file that is already gone is not an
// error.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}
