package wirecmp

import "context"

// Hook is a per-component strategy object participating in lifecycle
// phases. Hooks are registered globally as factories; for each component in
// a request the pipeline instantiates one hook per factory, binds it with
// SetComponent, and invokes its phases in registration order.
//
// Phase membership is declared through the capability interfaces below and
// checked once when the pipeline binds hooks to a component, never probed
// per invocation. A hook that implements none of them is legal but inert.
type Hook interface {
	SetComponent(c Stater)
}

// HookFactory produces one hook instance per component per request.
type HookFactory func() Hook

// UpdateFinalizer runs after a property mutation lands, receiving the
// post-mutation value.
type UpdateFinalizer func(value any) error

// CallFinalizer runs after a method call completes, receiving its result.
type CallFinalizer func(result any) error

// RenderFinalizer runs after rendering, receiving the HTML for in-place
// amendment.
type RenderFinalizer func(html *string) error

// Fire-and-forget phase capabilities: hooks run sequentially, side effects
// land on the Context and Store.

// BootHook runs at the start of every request pass.
type BootHook interface {
	Hook
	Boot(ctx context.Context, lctx *Context) error
}

// MountHook runs during a component's first appearance.
type MountHook interface {
	Hook
	Mount(ctx context.Context, lctx *Context, params map[string]any) error
}

// HydrateHook runs when a component is being reconstructed from a
// snapshot, before property restoration. The incoming memo is supplied for
// features that persisted their own metadata.
type HydrateHook interface {
	Hook
	Hydrate(ctx context.Context, lctx *Context, memo map[string]any) error
}

// DehydrateHook runs while the outgoing snapshot is being built.
type DehydrateHook interface {
	Hook
	Dehydrate(ctx context.Context, lctx *Context) error
}

// DestroyHook runs at explicit teardown.
type DestroyHook interface {
	Hook
	Destroy(ctx context.Context, lctx *Context) error
}

// ExceptionHook runs when an error escapes a phase. Calling stop suppresses
// further propagation for recognized cases (the stop-propagation token
// pattern); unrecognized errors continue to the transport layer.
type ExceptionHook interface {
	Hook
	Exception(ctx context.Context, lctx *Context, err error, stop func())
}

// Composing phase capabilities: each hook may return a finalizer; the
// pipeline collects them in hook order and runs them all once the
// underlying operation has happened. This realizes a before/after pattern
// without any hook knowing about the others.

// UpdateHook runs once per leaf property change, before mutation. fullPath
// may address a nested path ("form.email"); property is the immediate
// segment being mutated. Returning an error vetoes the update.
type UpdateHook interface {
	Hook
	Update(ctx context.Context, lctx *Context, property, fullPath string, value any) (UpdateFinalizer, error)
}

// CallHook runs before a requested method executes. Invoking returnEarly
// prevents both the default dispatch and any later hook's Call from
// running for this entry; it is safe to invoke more than once, only the
// first value sticks.
type CallHook interface {
	Hook
	Call(ctx context.Context, lctx *Context, method string, params []any, returnEarly func(value any)) (CallFinalizer, error)
}

// RenderHook runs around HTML production.
type RenderHook interface {
	Hook
	Render(ctx context.Context, lctx *Context) (RenderFinalizer, error)
}
