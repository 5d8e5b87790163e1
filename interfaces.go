package wirecmp

import (
	"context"

	"github.com/a-h/templ"
)

// Optional component lifecycle interfaces. Components implement only the
// phases they care about; the engine checks each interface once per
// instance and skips absent ones.

// Mounter runs on a component's first appearance, before the initial
// dehydration. Params come from the mount request.
type Mounter interface {
	Mount(ctx context.Context, params map[string]any) error
}

// Hydrater runs after a component instance has been reconstructed from a
// snapshot and its properties restored. Use it to rebuild rich request-
// scoped collaborators that never travel over the wire.
type Hydrater interface {
	Hydrate(ctx context.Context) error
}

// Dehydrater runs just before properties are serialized into the outgoing
// snapshot.
type Dehydrater interface {
	Dehydrate(ctx context.Context) error
}

// Updating is notified before a property mutation lands. Returning an
// error vetoes the mutation.
type Updating interface {
	Updating(ctx context.Context, property string, value any) error
}

// Updated is notified after a property mutation has landed.
type Updated interface {
	Updated(ctx context.Context, property string, value any) error
}

// Renderer produces the component's templ output. Render receives fully
// hydrated state and should be pure: it reads properties and produces HTML
// without side effects.
type Renderer interface {
	Render(ctx context.Context) (templ.Component, error)
}

// Destroyer runs at explicit component teardown.
type Destroyer interface {
	Destroy(ctx context.Context) error
}
