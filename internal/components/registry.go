// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package components is the registry of implementations a configuration
// document may name: optimizers, losses, model types, representation
// generators, embeddings, forward functions and the other selectable parts of
// the external training harness.
package components

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknown classifies lookups of names that have no registered implementation.
var ErrUnknown = errors.New("unknown component")

// Kind groups components that are interchangeable at one document position.
type Kind string

const (
	KindDType           Kind = "dtype"
	KindInputGenerator  Kind = "input_generator"
	KindTargetGenerator Kind = "target_generator"
	KindModel           Kind = "model"
	KindEmbedding       Kind = "embedding"
	KindForwardFunction Kind = "forward_function"
	KindActivation      Kind = "activation"
	KindOptimizer       Kind = "optimizer"
	KindScheduler       Kind = "scheduler"
	KindLoss            Kind = "loss"
	KindLossMetric      Kind = "loss_metric"
	KindAnalysis        Kind = "analysis"
	KindModelSelection  Kind = "model_selection"
	KindPredGenFn       Kind = "pred_gen_fn"
	KindDatasetSplit    Kind = "dataset_split"
	KindDataLoader      Kind = "dataloader"
)

// Component is one registered implementation.
type Component struct {
	Kind        Kind
	Name        string
	Description string
	// Schema describes the argument mapping the component accepts. A nil
	// schema accepts any arguments.
	Schema *Schema
}

// Registry indexes components by kind and name.
type Registry struct {
	mu     sync.RWMutex
	byKind map[Kind]map[string]Component
}

var (
	globalRegistry    *Registry
	globalRegistryErr error
	registryOnce      sync.Once
)

// GetRegistry returns the registry of built-in components.
// It returns an error if the built-in table contains duplicates.
// Thread-safe via sync.Once.
func GetRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		globalRegistry, globalRegistryErr = buildRegistry()
	})
	return globalRegistry, globalRegistryErr
}

func buildRegistry() (*Registry, error) {
	r := New()
	for _, c := range builtins() {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byKind: make(map[Kind]map[string]Component)}
}

// Register adds c. Registering the same kind and name twice is an error.
func (r *Registry) Register(c Component) error {
	if c.Kind == "" || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("register component: kind and name are required (kind=%q name=%q)", c.Kind, c.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	names, ok := r.byKind[c.Kind]
	if !ok {
		names = make(map[string]Component)
		r.byKind[c.Kind] = names
	}
	if _, dup := names[c.Name]; dup {
		return fmt.Errorf("duplicate component %s %q", c.Kind, c.Name)
	}
	names[c.Name] = c
	return nil
}

// Lookup resolves name within kind. Names are case-sensitive, matching the
// identifiers the harness resolves them to.
func (r *Registry) Lookup(kind Kind, name string) (Component, error) {
	r.mu.RLock()
	c, ok := r.byKind[kind][name]
	r.mu.RUnlock()
	if !ok {
		return Component{}, fmt.Errorf("%w: %s %q (known: %s)", ErrUnknown, kind, name, strings.Join(r.Names(kind), ", "))
	}
	return c, nil
}

// Has reports whether name is registered within kind.
func (r *Registry) Has(kind Kind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKind[kind][name]
	return ok
}

// Names returns the sorted names registered within kind.
func (r *Registry) Names(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byKind[kind]))
	for name := range r.byKind[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kinds returns the sorted kinds that have at least one component.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Clone returns an independent copy, so callers can extend the built-ins
// without touching the shared registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := New()
	for kind, names := range r.byKind {
		cp := make(map[string]Component, len(names))
		for name, c := range names {
			cp[name] = c
		}
		out.byKind[kind] = cp
	}
	return out
}
