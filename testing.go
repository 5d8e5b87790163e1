package wirecmp

import (
	"context"
	"encoding/json"
)

// Test harness for exercising the engine without HTTP. Exported so
// downstream applications can drive their components through full
// mount/update cycles in their own tests.

// TestEngine wraps a registry and processor with a deterministic secret.
type TestEngine struct {
	Registry  *Registry
	Processor *Processor
}

// NewTestEngine creates an engine over the given registry with test
// defaults. Pass a zero Config for the defaults.
func NewTestEngine(reg *Registry, cfg Config) *TestEngine {
	if cfg.SecretKey == "" {
		cfg.SecretKey = "wirecmp-test-secret"
	}
	return &TestEngine{
		Registry:  reg,
		Processor: NewProcessor(reg, cfg),
	}
}

// Mount mounts a component and returns its first snapshot and effects.
func (e *TestEngine) Mount(name string, params map[string]any) (*ComponentResponse, error) {
	return e.Processor.Mount(context.Background(), name, params)
}

// Update processes a single-component batch.
func (e *TestEngine) Update(snapshot Snapshot, updates UpdateSet, calls ...MethodCall) (*UpdateResponse, error) {
	req := UpdateRequest{Components: []ComponentRequest{{
		Snapshot: snapshot,
		Updates:  updates,
		Calls:    calls,
	}}}
	return e.Processor.Process(context.Background(), req, nil)
}

// UpdateWithFlash processes a single-component batch against a flash
// store, for asserting the redirect/flash interplay.
func (e *TestEngine) UpdateWithFlash(snapshot Snapshot, flash FlashStore, updates UpdateSet, calls ...MethodCall) (*UpdateResponse, error) {
	req := UpdateRequest{Components: []ComponentRequest{{
		Snapshot: snapshot,
		Updates:  updates,
		Calls:    calls,
	}}}
	return e.Processor.Process(context.Background(), req, flash)
}

// Sign builds a signed snapshot directly from data and memo, bypassing
// mount. Useful for corrupting-input tests.
func (e *TestEngine) Sign(data, memo map[string]any) (Snapshot, error) {
	checksum, err := e.Processor.Checksum().Generate(data, memo)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Data: data, Memo: memo, Checksum: checksum}, nil
}

// WireRoundTrip pushes a snapshot through JSON the way a real client echo
// would, so hydration sees decoded wire shapes rather than live Go values.
func WireRoundTrip(s Snapshot) (Snapshot, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return Snapshot{}, err
	}
	var out Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}

// RecordingFlashStore counts buffer clears for assertions.
type RecordingFlashStore struct {
	Messages      []Flash
	PendingClears int
	ShownClears   int
}

func (s *RecordingFlashStore) Add(level, message string) {
	s.Messages = append(s.Messages, Flash{Level: level, Message: message})
}

func (s *RecordingFlashStore) Pending() []Flash { return s.Messages }

func (s *RecordingFlashStore) ClearPending() { s.PendingClears++ }

func (s *RecordingFlashStore) ClearShown() { s.ShownClears++ }
