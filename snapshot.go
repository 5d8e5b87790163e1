package wirecmp

import "encoding/json"

// Memo keys the engine itself reads or writes. Features may add their own;
// anything JSON-safe is carried opaquely and restored on the next hydrate.
const (
	MemoID         = "id"
	MemoName       = "name"
	MemoPath       = "path"
	MemoMethod     = "method"
	MemoChildren   = "children"
	MemoScripts    = "scripts"
	MemoAssets     = "assets"
	MemoErrors     = "errors"
	MemoLocale     = "locale"
	MemoLazyLoaded = "lazyLoaded"
)

// Snapshot is the wire-transmissible representation of one component
// instance at one point in time: dehydrated property data, reconstruction
// metadata, and a checksum signing both. Snapshots are created at
// dehydration time and superseded by the next update cycle, never mutated
// in place. A snapshot is valid only while its checksum matches a freshly
// computed signature over the same data and memo.
type Snapshot struct {
	Data     map[string]any `json:"data"`
	Memo     map[string]any `json:"memo"`
	Checksum string         `json:"checksum"`
}

// ID returns the component id recorded in memo.
func (s Snapshot) ID() string {
	id, _ := s.Memo[MemoID].(string)
	return id
}

// Name returns the component class name recorded in memo.
func (s Snapshot) Name() string {
	name, _ := s.Memo[MemoName].(string)
	return name
}

// canonical returns the canonical JSON serialization of the data+memo pair,
// the exact bytes the checksum signs. encoding/json sorts map keys, which
// is the canonicalization. The pair is marshaled, decoded back to generic
// JSON values, and marshaled once more, so the signed bytes are the form a
// client echo produces: an int64 above 2^53 signs the same bytes whether it
// is still a native integer or has been through a float64 decode.
func (s Snapshot) canonical() ([]byte, error) {
	first, err := json.Marshal(struct {
		Data map[string]any `json:"data"`
		Memo map[string]any `json:"memo"`
	}{s.Data, s.Memo})
	if err != nil {
		return nil, err
	}
	var echoed struct {
		Data map[string]any `json:"data"`
		Memo map[string]any `json:"memo"`
	}
	if err := json.Unmarshal(first, &echoed); err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Data map[string]any `json:"data"`
		Memo map[string]any `json:"memo"`
	}{echoed.Data, echoed.Memo})
}
