// Package synth implements the typed serialization dispatch that converts
// arbitrary in-memory values to and from a JSON-safe wire representation.
//
// A Synthesizer is a registered strategy for one value shape: it declares a
// wire discriminator key, a Match predicate used when dehydrating, and the
// dehydrate/hydrate pair itself. The Registry walks values recursively,
// dispatching to the first synthesizer whose Match accepts the value.
// Primitives pass through untouched; values that need a discriminator on the
// wire are wrapped as a synthetic tuple (see Tuple).
package synth

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for dispatch failures.
var (
	ErrUnknownSynthesizer = errors.New("synth: unknown synthesizer")
	ErrUnregisteredClass  = errors.New("synth: unregistered class")
	ErrCycleDetected      = errors.New("synth: reference cycle detected")
)

// DehydrateFunc recursively dehydrates a child value at the given dotted
// path. Passed to synthesizers so composite shapes can delegate per-child
// dispatch back to the registry.
type DehydrateFunc func(ctx context.Context, value any, path string) (any, error)

// HydrateFunc recursively hydrates a child wire value.
type HydrateFunc func(ctx context.Context, value any) (any, error)

// Synthesizer converts one value shape to and from its wire representation.
//
// Dehydrate returns the JSON-safe payload plus metadata. A nil meta means
// the payload needs no discriminator and is emitted unwrapped; a non-nil
// meta (even empty) makes the registry wrap the result as a Tuple with the
// synthesizer's key under "s". This asymmetry is load-bearing: consumers
// such as the form synthesizer inspect whether a child came back as a tuple
// to decide whether to record child metadata.
type Synthesizer interface {
	// Key is the wire discriminator written under meta "s".
	Key() string
	// Match reports whether this synthesizer dehydrates the value.
	Match(value any) bool
	// MatchWireKey reports whether this synthesizer hydrates tuples whose
	// discriminator differs from Key (aliases, versioned keys). Most
	// implementations return false; exact Key matches are checked first.
	MatchWireKey(key string) bool
	Dehydrate(ctx context.Context, value any, path string, child DehydrateFunc) (payload any, meta map[string]any, err error)
	Hydrate(ctx context.Context, payload any, meta map[string]any, child HydrateFunc) (any, error)
}

// Registry holds the ordered synthesizer list. It is written once at
// startup and read-only during request processing; Register must not be
// called concurrently with Dehydrate or Hydrate.
type Registry struct {
	synths []Synthesizer
}

// NewRegistry creates a registry with the given synthesizers, dispatched in
// argument order.
func NewRegistry(synths ...Synthesizer) *Registry {
	return &Registry{synths: synths}
}

// Register appends synthesizers to the dispatch order.
func (r *Registry) Register(synths ...Synthesizer) {
	r.synths = append(r.synths, synths...)
}

// RegisterFront prepends synthesizers, letting them win dispatch over
// already-registered ones.
func (r *Registry) RegisterFront(synths ...Synthesizer) {
	r.synths = append(append([]Synthesizer(nil), synths...), r.synths...)
}

// Dehydrate converts a live value into its wire representation, threading
// the dotted path for nested error reporting. Unmatched JSON-safe
// primitives pass through unchanged; unmatched composite values fail with
// ErrUnknownSynthesizer. Values containing themselves transitively fail
// with ErrCycleDetected.
func (r *Registry) Dehydrate(ctx context.Context, value any, path string) (any, error) {
	return r.dehydrate(ctx, value, path, make(map[uintptr]struct{}))
}

func (r *Registry) dehydrate(ctx context.Context, value any, path string, seen map[uintptr]struct{}) (any, error) {
	if value == nil {
		return nil, nil
	}
	if id, ok := containerID(value); ok {
		if _, visiting := seen[id]; visiting {
			return nil, fmt.Errorf("%w at %q", ErrCycleDetected, path)
		}
		seen[id] = struct{}{}
		defer delete(seen, id)
	}

	child := func(ctx context.Context, v any, p string) (any, error) {
		return r.dehydrate(ctx, v, p, seen)
	}

	for _, s := range r.synths {
		if !s.Match(value) {
			continue
		}
		payload, meta, err := s.Dehydrate(ctx, value, path, child)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			return payload, nil
		}
		m := make(map[string]any, len(meta)+1)
		for k, v := range meta {
			m[k] = v
		}
		m["s"] = s.Key()
		return Tuple{Payload: payload, Meta: m}, nil
	}

	if isPrimitive(value) {
		return value, nil
	}
	return nil, fmt.Errorf("%w: no synthesizer for %T at %q", ErrUnknownSynthesizer, value, path)
}

// Hydrate reconstructs a live value from its wire representation. Tuples
// dispatch on their "s" discriminator; plain containers recurse per child;
// primitives return as-is. An unrecognized discriminator fails with
// ErrUnknownSynthesizer.
func (r *Registry) Hydrate(ctx context.Context, value any) (any, error) {
	if tup, ok := AsTuple(value); ok {
		key, _ := tup.Meta["s"].(string)
		for _, s := range r.synths {
			if s.Key() == key || s.MatchWireKey(key) {
				return s.Hydrate(ctx, tup.Payload, tup.Meta, r.Hydrate)
			}
		}
		return nil, fmt.Errorf("%w: discriminator %v", ErrUnknownSynthesizer, tup.Meta["s"])
	}

	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			hydrated, err := r.Hydrate(ctx, elem)
			if err != nil {
				return nil, err
			}
			out[i] = hydrated
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			hydrated, err := r.Hydrate(ctx, elem)
			if err != nil {
				return nil, err
			}
			out[k] = hydrated
		}
		return out, nil
	}
	return value, nil
}

// containerID returns a stable identity for cyclic container kinds.
func containerID(value any) (uintptr, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Map, reflect.Pointer:
		if p := v.Pointer(); p != 0 {
			return p, true
		}
	case reflect.Slice:
		if v.Len() > 0 {
			return v.Pointer(), true
		}
	}
	return 0, false
}

func isPrimitive(value any) bool {
	switch value.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}
