package wirecmp

// Store is the ephemeral key/value container scoped to one component and
// one request. It is the substrate through which decorators and features
// communicate intent ("a redirect was requested", "skip rendering") without
// the component's domain logic knowing about the hook pipeline. Nothing in
// a Store is ever serialized; only its consequences reach the snapshot.
type Store struct {
	items map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{items: make(map[string]any)}
}

// Set stores a value under key.
func (s *Store) Set(key string, value any) {
	s.items[key] = value
}

// Get returns the value under key, or nil if absent.
func (s *Store) Get(key string) any {
	return s.items[key]
}

// Has reports whether key is set.
func (s *Store) Has(key string) bool {
	_, ok := s.items[key]
	return ok
}

// Push appends value to the ordered sequence under key, or keyed-upserts
// when an index key is given. Identical semantics to Context.PushEffect.
func (s *Store) Push(key string, value any, indexKey ...string) {
	s.items[key] = pushInto(s.items[key], value, indexKey...)
}

// Delete removes key.
func (s *Store) Delete(key string) {
	delete(s.items, key)
}

// List returns the ordered sequence pushed under key without an index key.
func (s *Store) List(key string) []any {
	list, _ := s.items[key].([]any)
	return list
}
