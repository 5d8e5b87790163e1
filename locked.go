package wirecmp

import (
	"context"
	"fmt"
	"strings"
)

// lockedFeature rejects updates targeting properties guarded by a Locked
// decorator. The rejection is property-level: other updates and calls in
// the same batch proceed.
type lockedFeature struct {
	featureBase
}

func (f *lockedFeature) Update(_ context.Context, _ *Context, _, fullPath string, _ any) (UpdateFinalizer, error) {
	root, _, _ := strings.Cut(fullPath, ".")
	for _, d := range decoratorsNamed(f.state().Decorators(), "locked") {
		if locked, ok := d.(Locked); ok && locked.Property == root {
			return nil, fmt.Errorf("%w: %q", ErrCannotUpdateLockedProperty, fullPath)
		}
	}
	return nil, nil
}
