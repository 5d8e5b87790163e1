package synth

import (
	"context"
	"fmt"

	"github.com/pthm/wirecmp/records"
)

// ModelSynth dehydrates domain records down to a lookup key plus class
// metadata, and re-fetches them through a per-class record store on
// hydration. Record contents never travel over the wire; only the key does.
type ModelSynth struct {
	stores map[string]records.Store
}

// NewModelSynth creates a model synthesizer with no registered classes.
func NewModelSynth() *ModelSynth {
	return &ModelSynth{stores: make(map[string]records.Store)}
}

// RegisterClass binds a record class name to the store that can re-fetch
// its records by key. Called once at startup.
func (m *ModelSynth) RegisterClass(class string, store records.Store) {
	m.stores[class] = store
}

func (m *ModelSynth) Key() string { return "model" }

func (m *ModelSynth) MatchWireKey(string) bool { return false }

func (m *ModelSynth) Match(value any) bool {
	_, ok := value.(records.Record)
	return ok
}

func (m *ModelSynth) Dehydrate(_ context.Context, value any, path string, _ DehydrateFunc) (any, map[string]any, error) {
	rec, ok := value.(records.Record)
	if !ok {
		return nil, nil, fmt.Errorf("%w: model synthesizer matched %T at %q", ErrUnknownSynthesizer, value, path)
	}
	payload := map[string]any{"key": rec.RecordKey()}
	return payload, map[string]any{"class": rec.RecordClass()}, nil
}

func (m *ModelSynth) Hydrate(ctx context.Context, payload any, meta map[string]any, _ HydrateFunc) (any, error) {
	class, _ := meta["class"].(string)
	store, ok := m.stores[class]
	if !ok {
		return nil, fmt.Errorf("%w: model class %q", ErrUnregisteredClass, class)
	}
	body, _ := payload.(map[string]any)
	rec, err := store.FindByKey(ctx, body["key"])
	if err != nil {
		return nil, fmt.Errorf("hydrate model %q: %w", class, err)
	}
	return rec, nil
}
