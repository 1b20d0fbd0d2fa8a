// Package generation defines the engine interface the scenario resolver
// delegates to when a requested derived artifact has to be computed, plus a
// registry of named generator functions.
//
// The heavy signal-processing lives in the generators themselves; the
// resolver only knows the Engine contract. Generators must honor context
// cancellation: the resolver records no manifest entry for a cancelled or
// failed generation.
package generation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"satkit/internal/hierarchy"
)

// Engine produces a derived modality for a generation request.
type Engine interface {
	Generate(ctx context.Context, kind string, params map[string]any, source *hierarchy.Source) (hierarchy.Modality, error)
}

// GeneratorFunc computes one derived-data kind from a source.
type GeneratorFunc func(ctx context.Context, params map[string]any, source *hierarchy.Source) (hierarchy.Modality, error)

// UnknownKindError reports a generation request for a kind no generator is
// registered for.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("no generator registered for kind %q", e.Kind)
}

// Registry maps derived-data kinds to generator functions and implements
// Engine.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]GeneratorFunc
}

// NewRegistry returns a registry with the built-in generators installed.
func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]GeneratorFunc)}
	r.Register(KindPixelDifference, GeneratePixelDifference)
	return r
}

// Register installs or replaces the generator for a kind.
func (r *Registry) Register(kind string, fn GeneratorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[kind] = fn
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.generators))
	for kind := range r.generators {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Generate dispatches to the registered generator for the kind.
func (r *Registry) Generate(ctx context.Context, kind string, params map[string]any, source *hierarchy.Source) (hierarchy.Modality, error) {
	r.mu.RLock()
	fn, ok := r.generators[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fn(ctx, params, source)
}
