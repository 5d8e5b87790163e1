package synth

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
)

// ArraySynth dehydrates ordered sequences and plain mappings by recursively
// dispatching each element. The container itself needs no discriminator:
// children that required one are carried inline as tuples, hydration
// recovers them structurally, and plain arrays and maps stay unwrapped on
// the wire.
type ArraySynth struct{}

func (ArraySynth) Key() string { return "array" }

func (ArraySynth) MatchWireKey(string) bool { return false }

func (ArraySynth) Match(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func (ArraySynth) Dehydrate(ctx context.Context, value any, path string, child DehydrateFunc) (any, map[string]any, error) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := child(ctx, v.Index(i).Interface(), path+"."+strconv.Itoa(i))
			if err != nil {
				return nil, nil, err
			}
			out[i] = elem
		}
		return out, nil, nil
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			elem, err := child(ctx, iter.Value().Interface(), path+"."+key)
			if err != nil {
				return nil, nil, err
			}
			out[key] = elem
		}
		return out, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: array synthesizer matched %T at %q", ErrUnknownSynthesizer, value, path)
}

// Hydrate handles tuple-wrapped containers; unwrapped containers never reach
// a synthesizer because the registry recurses into them structurally.
func (ArraySynth) Hydrate(ctx context.Context, payload any, _ map[string]any, child HydrateFunc) (any, error) {
	return child(ctx, payload)
}
