package wirecmp

import "context"

// pipeline binds the globally registered hooks to one component for one
// request and orchestrates the lifecycle phases across them. Capability
// interfaces are sorted into typed slices exactly once here; phase methods
// then iterate plain slices with no per-invocation probing.
type pipeline struct {
	comp Stater
	lctx *Context

	boot      []BootHook
	mount     []MountHook
	hydrate   []HydrateHook
	update    []UpdateHook
	call      []CallHook
	render    []RenderHook
	dehydrate []DehydrateHook
	destroy   []DestroyHook
	exception []ExceptionHook
}

func newPipeline(comp Stater, lctx *Context, factories []HookFactory) *pipeline {
	p := &pipeline{comp: comp, lctx: lctx}
	for _, factory := range factories {
		h := factory()
		h.SetComponent(comp)
		if v, ok := h.(BootHook); ok {
			p.boot = append(p.boot, v)
		}
		if v, ok := h.(MountHook); ok {
			p.mount = append(p.mount, v)
		}
		if v, ok := h.(HydrateHook); ok {
			p.hydrate = append(p.hydrate, v)
		}
		if v, ok := h.(UpdateHook); ok {
			p.update = append(p.update, v)
		}
		if v, ok := h.(CallHook); ok {
			p.call = append(p.call, v)
		}
		if v, ok := h.(RenderHook); ok {
			p.render = append(p.render, v)
		}
		if v, ok := h.(DehydrateHook); ok {
			p.dehydrate = append(p.dehydrate, v)
		}
		if v, ok := h.(DestroyHook); ok {
			p.destroy = append(p.destroy, v)
		}
		if v, ok := h.(ExceptionHook); ok {
			p.exception = append(p.exception, v)
		}
	}
	return p
}

func (p *pipeline) Boot(ctx context.Context) error {
	for _, h := range p.boot {
		if err := h.Boot(ctx, p.lctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) Mount(ctx context.Context, params map[string]any) error {
	for _, h := range p.mount {
		if err := h.Mount(ctx, p.lctx, params); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) Hydrate(ctx context.Context, memo map[string]any) error {
	for _, h := range p.hydrate {
		if err := h.Hydrate(ctx, p.lctx, memo); err != nil {
			return err
		}
	}
	return nil
}

// Update runs the composing update phase and returns the composite
// finalizer to invoke with the post-mutation value. Any hook error vetoes
// the update before mutation.
func (p *pipeline) Update(ctx context.Context, property, fullPath string, value any) (UpdateFinalizer, error) {
	var finalizers []UpdateFinalizer
	for _, h := range p.update {
		fin, err := h.Update(ctx, p.lctx, property, fullPath, value)
		if err != nil {
			return nil, err
		}
		if fin != nil {
			finalizers = append(finalizers, fin)
		}
	}
	return func(value any) error {
		for _, fin := range finalizers {
			if err := fin(value); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// earlyReturn implements the call phase short circuit. Only the first
// returned value sticks, making returnEarly idempotent-safe.
type earlyReturn struct {
	value any
	set   bool
}

func (e *earlyReturn) capture(v any) {
	if !e.set {
		e.set = true
		e.value = v
	}
}

// Call runs the composing call phase. When a hook invokes returnEarly, no
// later hook's Call runs and the default dispatch is skipped; finalizers
// collected so far still fire.
func (p *pipeline) Call(ctx context.Context, method string, params []any) (CallFinalizer, *earlyReturn, error) {
	early := &earlyReturn{}
	var finalizers []CallFinalizer
	for _, h := range p.call {
		fin, err := h.Call(ctx, p.lctx, method, params, early.capture)
		if err != nil {
			return nil, nil, err
		}
		if fin != nil {
			finalizers = append(finalizers, fin)
		}
		if early.set {
			break
		}
	}
	composite := func(result any) error {
		for _, fin := range finalizers {
			if err := fin(result); err != nil {
				return err
			}
		}
		return nil
	}
	return composite, early, nil
}

// Render runs the composing render phase and returns the composite
// finalizer to invoke with the produced HTML.
func (p *pipeline) Render(ctx context.Context) (RenderFinalizer, error) {
	var finalizers []RenderFinalizer
	for _, h := range p.render {
		fin, err := h.Render(ctx, p.lctx)
		if err != nil {
			return nil, err
		}
		if fin != nil {
			finalizers = append(finalizers, fin)
		}
	}
	return func(html *string) error {
		for _, fin := range finalizers {
			if err := fin(html); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func (p *pipeline) Dehydrate(ctx context.Context) error {
	for _, h := range p.dehydrate {
		if err := h.Dehydrate(ctx, p.lctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) Destroy(ctx context.Context) error {
	for _, h := range p.destroy {
		if err := h.Destroy(ctx, p.lctx); err != nil {
			return err
		}
	}
	return nil
}

// Exception gives hooks a chance to normalize an escaped error. Returns
// true when some hook stopped propagation.
func (p *pipeline) Exception(ctx context.Context, err error) bool {
	stopped := false
	stop := func() { stopped = true }
	for _, h := range p.exception {
		h.Exception(ctx, p.lctx, err, stop)
	}
	return stopped
}
