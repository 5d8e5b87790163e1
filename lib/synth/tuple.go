package synth

import (
	"encoding/json"
	"fmt"
)

// Tuple is the tagged in-memory form of a synthetic tuple: the dehydrated
// form of any non-primitive value. On the wire it is the 2-element array
// [payload, meta] where meta carries the discriminator under "s".
//
// The wire shape is deliberately structural (a JSON array), but inside the
// engine tuples are this explicit type so decoding happens exactly once at
// the wire boundary instead of re-probing shapes everywhere.
type Tuple struct {
	Payload any
	Meta    map[string]any
}

// MarshalJSON emits the [payload, meta] wire shape.
func (t Tuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{t.Payload, t.Meta})
}

// UnmarshalJSON decodes the [payload, meta] wire shape. Arrays of any
// other length are not tuples and are rejected.
func (t *Tuple) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("synth: tuple must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &t.Payload); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &t.Meta)
}

// IsSyntheticTuple reports whether a decoded wire value is a synthetic
// tuple: a 2-element sequence whose second element is a mapping containing
// the key "s". Presence is what counts: "s" may hold an empty string, 0,
// false, or nil and the value is still a tuple. [payload, {}] is not.
func IsSyntheticTuple(value any) bool {
	_, ok := AsTuple(value)
	return ok
}

// AsTuple decodes a wire value into a Tuple if it satisfies the synthetic
// tuple predicate. Accepts both raw decoded JSON ([]any) and values already
// carrying the Tuple type.
func AsTuple(value any) (Tuple, bool) {
	switch v := value.(type) {
	case Tuple:
		if _, present := v.Meta["s"]; present {
			return v, true
		}
	case *Tuple:
		if v != nil {
			return AsTuple(*v)
		}
	case []any:
		if len(v) != 2 {
			return Tuple{}, false
		}
		meta, ok := v[1].(map[string]any)
		if !ok {
			return Tuple{}, false
		}
		if _, present := meta["s"]; !present {
			return Tuple{}, false
		}
		return Tuple{Payload: v[0], Meta: meta}, true
	}
	return Tuple{}, false
}
