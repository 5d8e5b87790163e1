package wirecmp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MethodCall is one queued method invocation for a component.
type MethodCall struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// UpdateSet is the mapping of property path to new value for one
// component. On the wire it is a JSON object; the decoder preserves key
// order because updates are applied strictly in input order: later
// updates may depend on the state left by earlier ones.
type UpdateSet struct {
	Paths  []string
	Values map[string]any
}

// Set records an update, keeping first-seen path order.
func (u *UpdateSet) Set(path string, value any) {
	if u.Values == nil {
		u.Values = make(map[string]any)
	}
	if _, seen := u.Values[path]; !seen {
		u.Paths = append(u.Paths, path)
	}
	u.Values[path] = value
}

// Len returns the number of distinct paths.
func (u UpdateSet) Len() int { return len(u.Paths) }

// MarshalJSON emits the updates as an object in input order.
func (u UpdateSet) MarshalJSON() ([]byte, error) {
	out := []byte{'{'}
	for i, path := range u.Paths {
		if i > 0 {
			out = append(out, ',')
		}
		k, err := json.Marshal(path)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(u.Values[path])
		if err != nil {
			return nil, err
		}
		out = append(out, k...)
		out = append(out, ':')
		out = append(out, v...)
	}
	return append(out, '}'), nil
}

// UnmarshalJSON decodes the object token by token so the original key
// order survives Go's unordered maps.
func (u *UpdateSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("wirecmp: updates must be an object, got %v", tok)
	}
	u.Paths = nil
	u.Values = make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		path, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("wirecmp: update path must be a string, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		u.Set(path, value)
	}
	_, err = dec.Token() // closing brace
	return err
}

// ComponentRequest is one component's entry in an update batch.
type ComponentRequest struct {
	Snapshot Snapshot     `json:"snapshot"`
	Updates  UpdateSet    `json:"updates"`
	Calls    []MethodCall `json:"calls"`
}

// ComponentResponse is one component's outcome: the re-signed snapshot and
// the client-visible side effects gathered during the pass.
type ComponentResponse struct {
	Snapshot Snapshot       `json:"snapshot"`
	Effects  map[string]any `json:"effects"`
}

// UpdateRequest is the inbound update batch.
type UpdateRequest struct {
	Components []ComponentRequest `json:"components"`
}

// UpdateResponse is the outbound result for a batch.
type UpdateResponse struct {
	Components []ComponentResponse `json:"components"`
	Assets     []string            `json:"assets"`
}
