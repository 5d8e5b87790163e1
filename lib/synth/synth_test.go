package synth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pthm/wirecmp/records"
)

func newTestRegistry() *Registry {
	return NewRegistry(DateSynth{}, ArraySynth{})
}

func TestTuplePredicate(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"payload with s string", []any{"x", map[string]any{"s": "date"}}, true},
		{"s may be empty string", []any{"x", map[string]any{"s": ""}}, true},
		{"s may be zero", []any{"x", map[string]any{"s": 0}}, true},
		{"s may be false", []any{"x", map[string]any{"s": false}}, true},
		{"s may be nil", []any{"x", map[string]any{"s": nil}}, true},
		{"meta without s", []any{"x", map[string]any{"class": "post"}}, false},
		{"empty meta", []any{"x", map[string]any{}}, false},
		{"second element not a map", []any{"x", "y"}, false},
		{"one element", []any{"x"}, false},
		{"three elements", []any{"x", map[string]any{"s": "date"}, "z"}, false},
		{"plain string", "x", false},
		{"plain map", map[string]any{"s": "date"}, false},
		{"nil", nil, false},
		{"typed tuple with s", Tuple{Payload: "x", Meta: map[string]any{"s": "date"}}, true},
		{"typed tuple without s", Tuple{Payload: "x", Meta: map[string]any{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSyntheticTuple(tt.value); got != tt.want {
				t.Errorf("IsSyntheticTuple(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestTupleWireShape(t *testing.T) {
	tup := Tuple{Payload: "2024-01-01", Meta: map[string]any{"s": "date"}}
	raw, err := json.Marshal(tup)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// A tuple must serialize as a 2-element array, not an object.
	var decoded []any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal as array failed: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("wire shape has %d elements, want 2", len(decoded))
	}
	if !IsSyntheticTuple(decoded) {
		t.Error("decoded wire shape should satisfy the tuple predicate")
	}
}

func TestTupleDecodeRejectsWrongLength(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"one element", `["x"]`},
		{"three elements", `["x", {"s": "date"}, "z"]`},
		{"empty array", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tup Tuple
			if err := json.Unmarshal([]byte(tt.raw), &tup); err == nil {
				t.Errorf("Unmarshal(%s) = %+v, want error", tt.raw, tup)
			}
		})
	}

	var tup Tuple
	if err := json.Unmarshal([]byte(`["x", {"s": "date"}]`), &tup); err != nil {
		t.Fatalf("Unmarshal of 2-element array failed: %v", err)
	}
	if tup.Payload != "x" || tup.Meta["s"] != "date" {
		t.Errorf("decoded tuple = %+v, want payload x with s=date", tup)
	}
}

func TestPrimitivesPassThrough(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	for _, value := range []any{nil, true, "hello", 42, int64(7), 3.14} {
		wire, err := r.Dehydrate(ctx, value, "p")
		if err != nil {
			t.Fatalf("Dehydrate(%v) failed: %v", value, err)
		}
		if wire != value {
			t.Errorf("Dehydrate(%v) = %v, want unchanged", value, wire)
		}
		back, err := r.Hydrate(ctx, wire)
		if err != nil {
			t.Fatalf("Hydrate(%v) failed: %v", wire, err)
		}
		if back != value {
			t.Errorf("Hydrate(%v) = %v, want unchanged", wire, back)
		}
	}
}

func TestUnmatchedCompositeFails(t *testing.T) {
	r := newTestRegistry()

	type opaque struct{ X int }
	_, err := r.Dehydrate(context.Background(), opaque{X: 1}, "p")
	if !errors.Is(err, ErrUnknownSynthesizer) {
		t.Errorf("Dehydrate(struct) = %v, want ErrUnknownSynthesizer", err)
	}
}

func TestDateRoundTrip(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	when := time.Date(2024, 3, 15, 10, 30, 0, 123456789, time.UTC)
	wire, err := r.Dehydrate(ctx, when, "created")
	if err != nil {
		t.Fatalf("Dehydrate failed: %v", err)
	}

	tup, ok := AsTuple(wire)
	if !ok {
		t.Fatalf("date should dehydrate to a tuple, got %T", wire)
	}
	if tup.Meta["s"] != "date" {
		t.Errorf("discriminator = %v, want date", tup.Meta["s"])
	}
	if _, ok := tup.Payload.(string); !ok {
		t.Errorf("payload = %T, want string", tup.Payload)
	}

	back, err := r.Hydrate(ctx, wire)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	got, ok := back.(time.Time)
	if !ok {
		t.Fatalf("hydrated = %T, want time.Time", back)
	}
	if !got.Equal(when) {
		t.Errorf("round trip = %v, want %v", got, when)
	}
}

func TestDateRoundTripThroughJSON(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	when := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	wire, err := r.Dehydrate(ctx, when, "created")
	if err != nil {
		t.Fatalf("Dehydrate failed: %v", err)
	}

	// Simulate the client echo: wire value goes out and comes back as
	// decoded JSON, losing the typed Tuple.
	raw, err := json.Marshal(wire)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var echoed any
	if err := json.Unmarshal(raw, &echoed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	back, err := r.Hydrate(ctx, echoed)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	got, ok := back.(time.Time)
	if !ok {
		t.Fatalf("hydrated = %T, want time.Time", back)
	}
	if !got.Equal(when) {
		t.Errorf("round trip = %v, want %v", got, when)
	}
}

func TestArrayRecursion(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	value := []any{"plain", when, map[string]any{"nested": when}}

	wire, err := r.Dehydrate(ctx, value, "items")
	if err != nil {
		t.Fatalf("Dehydrate failed: %v", err)
	}

	// The container itself stays unwrapped; only the dates become tuples.
	list, ok := wire.([]any)
	if !ok {
		t.Fatalf("container dehydrated to %T, want []any", wire)
	}
	if list[0] != "plain" {
		t.Errorf("list[0] = %v, want plain", list[0])
	}
	if !IsSyntheticTuple(list[1]) {
		t.Errorf("list[1] should be a tuple, got %v", list[1])
	}
	inner, ok := list[2].(map[string]any)
	if !ok {
		t.Fatalf("list[2] = %T, want map", list[2])
	}
	if !IsSyntheticTuple(inner["nested"]) {
		t.Errorf("nested date should be a tuple, got %v", inner["nested"])
	}

	back, err := r.Hydrate(ctx, wire)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	restored, ok := back.([]any)
	if !ok {
		t.Fatalf("hydrated = %T, want []any", back)
	}
	if got, ok := restored[1].(time.Time); !ok || !got.Equal(when) {
		t.Errorf("restored[1] = %v, want %v", restored[1], when)
	}
}

func TestUnknownDiscriminatorFails(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Hydrate(context.Background(), []any{"x", map[string]any{"s": "nope"}})
	if !errors.Is(err, ErrUnknownSynthesizer) {
		t.Errorf("Hydrate unknown discriminator = %v, want ErrUnknownSynthesizer", err)
	}
}

func TestDehydrateCycleFails(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	cyclic := map[string]any{"name": "self"}
	cyclic["me"] = cyclic
	if _, err := r.Dehydrate(ctx, cyclic, "p"); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("Dehydrate(cyclic map) = %v, want ErrCycleDetected", err)
	}

	list := []any{nil}
	list[0] = list
	if _, err := r.Dehydrate(ctx, list, "p"); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("Dehydrate(cyclic slice) = %v, want ErrCycleDetected", err)
	}

	// Sharing without a cycle is fine: the same map twice as siblings.
	shared := map[string]any{"x": 1}
	ok := []any{shared, shared}
	if _, err := r.Dehydrate(ctx, ok, "p"); err != nil {
		t.Errorf("Dehydrate(shared siblings) = %v, want nil", err)
	}
}

func TestRegisterFrontWinsDispatch(t *testing.T) {
	r := newTestRegistry()

	// A custom synthesizer claiming slices must beat the array fallback.
	r.RegisterFront(tagSynth{})

	wire, err := r.Dehydrate(context.Background(), []any{"a", "b"}, "tags")
	if err != nil {
		t.Fatalf("Dehydrate failed: %v", err)
	}
	tup, ok := AsTuple(wire)
	if !ok || tup.Meta["s"] != "tags" {
		t.Errorf("custom synthesizer should win dispatch, got %v", wire)
	}
}

// tagSynth wraps string slices under its own discriminator.
type tagSynth struct{}

func (tagSynth) Key() string { return "tags" }

func (tagSynth) MatchWireKey(string) bool { return false }

func (tagSynth) Match(value any) bool {
	_, ok := value.([]any)
	return ok
}

func (tagSynth) Dehydrate(_ context.Context, value any, _ string, _ DehydrateFunc) (any, map[string]any, error) {
	return value, map[string]any{}, nil
}

func (tagSynth) Hydrate(_ context.Context, payload any, _ map[string]any, _ HydrateFunc) (any, error) {
	return payload, nil
}

// post is a minimal record fixture.
type post struct {
	ID    int
	Title string
}

func (p *post) RecordClass() string { return "post" }
func (p *post) RecordKey() any      { return p.ID }

func TestModelRoundTrip(t *testing.T) {
	store := records.NewMemoryStore(&post{ID: 7, Title: "hello"})

	models := NewModelSynth()
	models.RegisterClass("post", store)
	r := NewRegistry(models, ArraySynth{})
	ctx := context.Background()

	wire, err := r.Dehydrate(ctx, &post{ID: 7, Title: "hello"}, "post")
	if err != nil {
		t.Fatalf("Dehydrate failed: %v", err)
	}
	tup, ok := AsTuple(wire)
	if !ok {
		t.Fatalf("model should dehydrate to a tuple, got %T", wire)
	}
	if tup.Meta["s"] != "model" || tup.Meta["class"] != "post" {
		t.Errorf("meta = %v, want model/post", tup.Meta)
	}
	payload, _ := tup.Payload.(map[string]any)
	if payload["key"] != 7 {
		t.Errorf("payload key = %v, want 7", payload["key"])
	}
	if _, leaked := payload["title"]; leaked {
		t.Error("record contents must not travel over the wire")
	}

	back, err := r.Hydrate(ctx, wire)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	got, ok := back.(*post)
	if !ok {
		t.Fatalf("hydrated = %T, want *post", back)
	}
	if got.Title != "hello" {
		t.Errorf("Title = %q, want hello (re-fetched from store)", got.Title)
	}
}

func TestModelHydrateFailures(t *testing.T) {
	models := NewModelSynth()
	models.RegisterClass("post", records.NewMemoryStore())
	r := NewRegistry(models)
	ctx := context.Background()

	_, err := r.Hydrate(ctx, []any{map[string]any{"key": 1}, map[string]any{"s": "model", "class": "comment"}})
	if !errors.Is(err, ErrUnregisteredClass) {
		t.Errorf("unregistered class = %v, want ErrUnregisteredClass", err)
	}

	_, err = r.Hydrate(ctx, []any{map[string]any{"key": 404}, map[string]any{"s": "model", "class": "post"}})
	if !errors.Is(err, records.ErrNotFound) {
		t.Errorf("missing record = %v, want records.ErrNotFound", err)
	}
}
