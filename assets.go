package wirecmp

import "sync"

// assetTable buffers rendered inline scripts/assets per request id until
// the final response for that request is produced. This is the only
// cross-request shared state that is written during request processing;
// entries are inserted at dehydration and deleted as soon as they are
// spliced into the response, bounding their lifetime to a single request.
type assetTable struct {
	mu      sync.Mutex
	entries map[string][]string
}

// renderedAssets is the process-wide side table.
var renderedAssets = &assetTable{entries: make(map[string][]string)}

func (t *assetTable) Insert(requestID, asset string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[requestID] = append(t.entries[requestID], asset)
}

// Drain removes and returns all assets buffered for the request.
func (t *assetTable) Drain(requestID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	assets := t.entries[requestID]
	delete(t.entries, requestID)
	return assets
}
