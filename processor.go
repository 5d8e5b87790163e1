package wirecmp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Processor is the top-level request handler for the snapshot protocol: it
// verifies, hydrates, mutates, re-renders, and re-signs every component in
// an update batch, and mounts components for their first appearance.
//
// A Processor is safe for concurrent use: all mutable state lives in the
// per-request component instances and contexts it creates, never on the
// Processor itself.
type Processor struct {
	reg      *Registry
	cfg      Config
	checksum *Checksum
	log      *slog.Logger

	// OnError, when set, replaces the default HTTP error mapping used by
	// Handler.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// NewProcessor creates a processor over a registry. Config zero values are
// filled with defaults.
func NewProcessor(reg *Registry, cfg Config) *Processor {
	cfg.defaults()
	return &Processor{
		reg:      reg,
		cfg:      cfg,
		checksum: NewChecksum([]byte(cfg.SecretKey), cfg.Logger),
		log:      cfg.Logger,
	}
}

// Checksum returns the snapshot verifier, for callers that need to sign
// snapshots out of band (tests, server-side prefetching).
func (p *Processor) Checksum() *Checksum { return p.checksum }

func (p *Processor) hooks() []HookFactory {
	return append(builtinHookFactories(p.cfg), p.reg.userHooks()...)
}

// Mount renders a component's first appearance and produces its initial
// signed snapshot. Runs Booting then Mounting phases; the component's own
// Mount method is suppressed when a hook called SkipMount (lazy
// placeholders).
func (p *Processor) Mount(ctx context.Context, name string, params map[string]any) (*ComponentResponse, error) {
	comp, err := p.reg.instantiate(name)
	if err != nil {
		return nil, err
	}
	st := comp.WireState()
	st.SetID(NewRequestID())

	lctx := NewContext()
	lctx.Mounting = true
	lctx.RequestID = NewRequestID()
	pl := newPipeline(comp, lctx, p.hooks())

	if err := pl.Boot(ctx); err != nil {
		return nil, err
	}
	if err := pl.Mount(ctx, params); err != nil {
		return nil, err
	}
	if !st.Store().Has(storeSkipMount) {
		if m, ok := comp.(Mounter); ok {
			if err := m.Mount(ctx, params); err != nil {
				return nil, err
			}
		}
	}

	if err := p.renderComponent(ctx, comp, lctx, pl); err != nil {
		return nil, err
	}
	snapshot, err := p.dehydrate(ctx, comp, lctx, pl)
	if err != nil {
		return nil, err
	}

	if p.cfg.InjectAssets {
		p.spliceAssets(lctx)
	} else {
		renderedAssets.Drain(lctx.RequestID)
	}
	return &ComponentResponse{Snapshot: snapshot, Effects: lctx.Effects()}, nil
}

// Process handles one update batch. Limits are enforced fail-fast: the
// whole request is rejected before any component is touched. Components
// are processed one at a time in array order; any engine-level failure
// aborts the request.
//
// The flash store may be nil. When non-nil, both buffers are cleared
// exactly once after all components finish, unless any component's effects
// included a redirect, in which case the buffers survive to be re-displayed
// after the redirect.
func (p *Processor) Process(ctx context.Context, req UpdateRequest, flash FlashStore) (*UpdateResponse, error) {
	if len(req.Components) > p.cfg.MaxComponents {
		return nil, fmt.Errorf("%w: %d components exceeds limit %d",
			ErrPayloadLimitExceeded, len(req.Components), p.cfg.MaxComponents)
	}
	for _, entry := range req.Components {
		if len(entry.Calls) > p.cfg.MaxCalls {
			return nil, fmt.Errorf("%w: %d calls for component %q exceeds limit %d",
				ErrPayloadLimitExceeded, len(entry.Calls), entry.Snapshot.Name(), p.cfg.MaxCalls)
		}
	}

	requestID := NewRequestID()
	resp := &UpdateResponse{}
	redirected := false
	for _, entry := range req.Components {
		compResp, err := p.processComponent(ctx, requestID, entry)
		if err != nil {
			renderedAssets.Drain(requestID)
			return nil, err
		}
		if _, ok := compResp.Effects[EffectRedirect]; ok {
			redirected = true
		}
		resp.Components = append(resp.Components, *compResp)
	}

	resp.Assets = renderedAssets.Drain(requestID)

	if flash != nil && !redirected {
		flash.ClearPending()
		flash.ClearShown()
	}
	return resp, nil
}

func (p *Processor) processComponent(ctx context.Context, requestID string, entry ComponentRequest) (*ComponentResponse, error) {
	if err := p.checksum.Verify(entry.Snapshot); err != nil {
		return nil, err
	}

	comp, err := p.reg.instantiate(entry.Snapshot.Name())
	if err != nil {
		return nil, err
	}
	st := comp.WireState()
	st.SetID(entry.Snapshot.ID())

	lctx := NewContext()
	lctx.RequestID = requestID
	pl := newPipeline(comp, lctx, p.hooks())

	if err := pl.Boot(ctx); err != nil {
		return nil, err
	}

	// Hydrating phase. Feature hooks see the incoming memo first and may
	// short-circuit property restoration for not-yet-activated components.
	if err := pl.Hydrate(ctx, entry.Snapshot.Memo); err != nil {
		return nil, err
	}
	carryMemo(lctx, entry.Snapshot.Memo)
	if !st.Store().Has(storeSkipHydrate) {
		for key, wire := range entry.Snapshot.Data {
			hydrated, err := p.reg.synths.Hydrate(ctx, wire)
			if err != nil {
				return nil, WrapSynthError(err)
			}
			st.Set(key, hydrated)
		}
		if h, ok := comp.(Hydrater); ok {
			if err := h.Hydrate(ctx); err != nil {
				return nil, err
			}
		}
	}

	if err := p.applyUpdates(ctx, comp, pl, entry.Updates); err != nil {
		return nil, err
	}
	if err := p.executeCalls(ctx, comp, pl, lctx, entry.Calls); err != nil {
		return nil, err
	}

	// A redirecting component's HTML is discarded by the navigating client,
	// so rendering is skipped unless explicitly configured on.
	if url, ok := st.Store().Get(storeRedirect).(string); ok && url != "" && !p.cfg.RenderOnRedirect {
		st.SkipRender()
	}

	if err := p.renderComponent(ctx, comp, lctx, pl); err != nil {
		return nil, err
	}
	snapshot, err := p.dehydrate(ctx, comp, lctx, pl)
	if err != nil {
		return nil, err
	}
	return &ComponentResponse{Snapshot: snapshot, Effects: lctx.Effects()}, nil
}

// applyUpdates applies property updates in input order: compose the update
// phase, mutate through the synthesizer-aware path setter, then run the
// collected finalizers with the post-mutation value. A locked-property
// rejection drops only that update.
func (p *Processor) applyUpdates(ctx context.Context, comp Stater, pl *pipeline, updates UpdateSet) error {
	st := comp.WireState()
	for _, path := range updates.Paths {
		hydrated, err := p.reg.synths.Hydrate(ctx, updates.Values[path])
		if err != nil {
			return WrapSynthError(err)
		}
		segments := strings.Split(path, ".")
		leaf := segments[len(segments)-1]

		finalize, err := pl.Update(ctx, leaf, path, hydrated)
		if err != nil {
			if errors.Is(err, ErrCannotUpdateLockedProperty) {
				p.log.Warn("update rejected", "component", st.Name(), "path", path, "error", err)
				continue
			}
			return err
		}

		if u, ok := comp.(Updating); ok {
			if err := u.Updating(ctx, path, hydrated); err != nil {
				return err
			}
		}
		if err := st.setPath(path, hydrated); err != nil {
			return err
		}
		if u, ok := comp.(Updated); ok {
			if err := u.Updated(ctx, path, hydrated); err != nil {
				return err
			}
		}
		if err := finalize(hydrated); err != nil {
			return err
		}
	}
	return nil
}

// executeCalls runs queued method calls in order. A hook's returnEarly
// skips the default dispatch; errors escaping a method go through the
// exception phase, which may absorb recognized cases (validation) while
// everything else propagates.
func (p *Processor) executeCalls(ctx context.Context, comp Stater, pl *pipeline, lctx *Context, calls []MethodCall) error {
	st := comp.WireState()
	for _, call := range calls {
		finalize, early, err := pl.Call(ctx, call.Method, call.Params)
		if err != nil {
			return err
		}

		var result any
		if early.set {
			result = early.value
		} else {
			result, err = st.callAction(ctx, call.Method, call.Params)
			if err != nil {
				if !pl.Exception(ctx, err) {
					return err
				}
				result = nil
			}
		}

		lctx.PushEffect(EffectReturns, result)
		if err := finalize(result); err != nil {
			return err
		}
	}
	return nil
}

// renderComponent runs the Rendering phase unless skipRender is set, in
// which case the substituted HTML (if any) becomes the html effect. A skip
// with no substitute emits no html effect; the client keeps the markup it
// already has.
func (p *Processor) renderComponent(ctx context.Context, comp Stater, lctx *Context, pl *pipeline) error {
	st := comp.WireState()
	if st.Store().Has(storeSkipRender) {
		if html, ok := st.Store().Get(storeSkipRenderHTML).(string); ok {
			lctx.AddEffect(EffectHTML, html)
		}
		return nil
	}
	renderer, ok := comp.(Renderer)
	if !ok {
		return nil
	}

	finalize, err := pl.Render(ctx)
	if err != nil {
		return err
	}
	component, err := renderer.Render(ctx)
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := component.Render(ctx, &sb); err != nil {
		return err
	}
	html := sb.String()
	if err := finalize(&html); err != nil {
		return err
	}
	lctx.AddEffect(EffectHTML, html)
	return nil
}

// dehydrate runs the Dehydrating phase and builds the re-signed snapshot.
func (p *Processor) dehydrate(ctx context.Context, comp Stater, lctx *Context, pl *pipeline) (Snapshot, error) {
	st := comp.WireState()
	if d, ok := comp.(Dehydrater); ok {
		if err := d.Dehydrate(ctx); err != nil {
			return Snapshot{}, err
		}
	}
	if err := pl.Dehydrate(ctx); err != nil {
		return Snapshot{}, err
	}

	data := make(map[string]any, len(st.Props()))
	for key, value := range st.Props() {
		wire, err := p.reg.synths.Dehydrate(ctx, value, key)
		if err != nil {
			return Snapshot{}, WrapSynthError(err)
		}
		data[key] = wire
	}

	lctx.AddMemo(MemoID, st.ID())
	lctx.AddMemo(MemoName, st.Name())

	checksum, err := p.checksum.Generate(data, lctx.Memo())
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Data: data, Memo: lctx.Memo(), Checksum: checksum}, nil
}

// Destroy runs the Destroying phase for a verified snapshot at explicit
// teardown.
func (p *Processor) Destroy(ctx context.Context, snapshot Snapshot) error {
	if err := p.checksum.Verify(snapshot); err != nil {
		return err
	}
	comp, err := p.reg.instantiate(snapshot.Name())
	if err != nil {
		return err
	}
	comp.WireState().SetID(snapshot.ID())

	lctx := NewContext()
	lctx.RequestID = NewRequestID()
	pl := newPipeline(comp, lctx, p.hooks())
	if err := pl.Destroy(ctx); err != nil {
		return err
	}
	if d, ok := comp.(Destroyer); ok {
		return d.Destroy(ctx)
	}
	return nil
}

// carryMemo forwards opaque incoming memo keys (mount path, locale,
// children) into the outgoing snapshot. Keys that features rebuild from
// live state each pass are skipped so cleared state stays cleared.
func carryMemo(lctx *Context, memo map[string]any) {
	for key, value := range memo {
		switch key {
		case MemoErrors, MemoScripts, MemoLazyLoaded:
			continue
		}
		lctx.AddMemo(key, value)
	}
}

// spliceAssets turns buffered assets into inline script tags appended to
// the html effect, then drops the table entry.
func (p *Processor) spliceAssets(lctx *Context) {
	assets := renderedAssets.Drain(lctx.RequestID)
	if len(assets) == 0 {
		return
	}
	html, _ := lctx.Effects()[EffectHTML].(string)
	var sb strings.Builder
	sb.WriteString(html)
	for _, asset := range assets {
		sb.WriteString("\n<script>")
		sb.WriteString(asset)
		sb.WriteString("</script>")
	}
	lctx.AddEffect(EffectHTML, sb.String())
}
