package synth

import (
	"context"
	"fmt"
	"time"
)

// DateSynth dehydrates time values to an ISO-8601 string. The payload is
// just the string, but a discriminator is still attached so hydration can
// tell "a date string" apart from "a string", which is also why this
// synthesizer must be registered ahead of the primitive passthrough.
type DateSynth struct{}

func (DateSynth) Key() string { return "date" }

func (DateSynth) MatchWireKey(string) bool { return false }

func (DateSynth) Match(value any) bool {
	switch value.(type) {
	case time.Time, *time.Time:
		return true
	}
	return false
}

func (DateSynth) Dehydrate(_ context.Context, value any, path string, _ DehydrateFunc) (any, map[string]any, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return nil, map[string]any{}, nil
		}
		t = *v
	default:
		return nil, nil, fmt.Errorf("%w: date synthesizer matched %T at %q", ErrUnknownSynthesizer, value, path)
	}
	return t.Format(time.RFC3339Nano), map[string]any{}, nil
}

func (DateSynth) Hydrate(_ context.Context, payload any, _ map[string]any, _ HydrateFunc) (any, error) {
	if payload == nil {
		return nil, nil
	}
	s, ok := payload.(string)
	if !ok {
		return nil, fmt.Errorf("synth: date payload must be a string, got %T", payload)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t, nil
		}
		return nil, fmt.Errorf("synth: parse date %q: %w", s, err)
	}
	return t, nil
}
