package wirecmp

import "encoding/json"

// Context accumulates the client-visible effects and persisted memo for one
// component's current phase pass. A fresh Context is created per component
// per request and discarded once the outgoing snapshot is built.
//
// Mounting distinguishes first-mount dehydration from subsequent-update
// dehydration; features branch on it (a lazy placeholder memoizes
// lazyLoaded false on mount, true after activation).
type Context struct {
	Mounting bool

	// RequestID keys the per-request rendered-assets side table.
	RequestID string

	effects map[string]any
	memo    map[string]any
}

// NewContext creates an empty accumulator.
func NewContext() *Context {
	return &Context{
		effects: make(map[string]any),
		memo:    make(map[string]any),
	}
}

// AddEffect records an effect, overwriting any previous value for the key.
func (c *Context) AddEffect(key string, value any) {
	c.effects[key] = value
}

// PushEffect appends value to the ordered sequence under key. With an
// indexKey the entry becomes an ordered keyed mapping instead: last write
// wins per index key, insertion order preserved for first-seen keys.
func (c *Context) PushEffect(key string, value any, indexKey ...string) {
	c.effects[key] = pushInto(c.effects[key], value, indexKey...)
}

// AddMemo records snapshot metadata, overwriting any previous value.
func (c *Context) AddMemo(key string, value any) {
	c.memo[key] = value
}

// PushMemo appends or keyed-upserts into memo with PushEffect semantics.
func (c *Context) PushMemo(key string, value any, indexKey ...string) {
	c.memo[key] = pushInto(c.memo[key], value, indexKey...)
}

// Effects returns the accumulated effects map.
func (c *Context) Effects() map[string]any { return c.effects }

// Memo returns the accumulated memo map.
func (c *Context) Memo() map[string]any { return c.memo }

// pushInto implements the shared push semantics used by Context and Store.
func pushInto(existing, value any, indexKey ...string) any {
	if len(indexKey) == 0 {
		list, _ := existing.([]any)
		return append(list, value)
	}
	keyed, _ := existing.(*OrderedMap)
	if keyed == nil {
		keyed = NewOrderedMap()
	}
	keyed.Set(indexKey[0], value)
	return keyed
}

// OrderedMap is a string-keyed mapping that preserves insertion order for
// first-seen keys while letting later writes overwrite in place. It
// serializes as a JSON object in insertion order.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set inserts or overwrites a key. The key keeps its original position.
func (m *OrderedMap) Set(key string, value any) {
	if _, seen := m.values[key]; !seen {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it exists.
func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string { return m.keys }

// MarshalJSON emits the entries as an object in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	out := []byte{'{'}
	for i, key := range m.keys {
		if i > 0 {
			out = append(out, ',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		out = append(out, k...)
		out = append(out, ':')
		out = append(out, v...)
	}
	return append(out, '}'), nil
}
