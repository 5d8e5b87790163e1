package wirecmp

import "context"

// lazyLoadMethod is the internal call a client issues to resume a deferred
// mount. Intercepted by lazyFeature with returnEarly so the default
// dispatch never sees it.
const lazyLoadMethod = "__lazyLoad"

const (
	memoLazyIsolated   = "lazyIsolated"
	memoLazyParams     = "lazyMountParams"
	storeLazyParams    = "lazyMountParams"
	storeLazyActivated = "lazyActivated"
)

// lazyFeature defers a component's real mount behind a placeholder.
//
// Precedence: an explicit request param lazy=false overrides any decorator;
// decorator Isolate/Bundle fields override the default activation grouping.
type lazyFeature struct {
	featureBase
	placeholder string
}

func (f *lazyFeature) Mount(_ context.Context, lctx *Context, params map[string]any) error {
	st := f.state()

	var dec *Lazy
	for _, d := range st.Decorators() {
		if l, ok := d.(Lazy); ok {
			dec = &l
			break
		}
	}

	shouldBeLazy := dec != nil
	if explicit, ok := params["lazy"].(bool); ok {
		shouldBeLazy = explicit
	}
	if !shouldBeLazy {
		return nil
	}

	isolate := false
	if dec != nil {
		if dec.Isolate {
			isolate = true
		}
		if dec.Bundle {
			isolate = false
		}
	}

	placeholder := f.placeholder
	if dec != nil && dec.Placeholder != "" {
		placeholder = dec.Placeholder
	}

	st.SkipMount()
	st.SkipRender(placeholder)
	lctx.AddMemo(MemoLazyLoaded, false)
	if isolate {
		lctx.AddMemo(memoLazyIsolated, true)
	}
	if len(params) > 0 {
		lctx.AddMemo(memoLazyParams, params)
	}
	return nil
}

func (f *lazyFeature) Hydrate(_ context.Context, _ *Context, memo map[string]any) error {
	loaded, present := memo[MemoLazyLoaded]
	if !present {
		return nil
	}
	if loadedBool, _ := loaded.(bool); loadedBool {
		f.state().Store().Set(storeLazyActivated, true)
		return nil
	}
	// Not yet activated: keep the placeholder alive and leave properties
	// alone until the client sends the activation call.
	st := f.state()
	st.SkipHydrate()
	st.SkipMount()
	st.SkipRender()
	if params, ok := memo[memoLazyParams].(map[string]any); ok {
		st.Store().Set(storeLazyParams, params)
	}
	return nil
}

func (f *lazyFeature) Call(ctx context.Context, lctx *Context, method string, _ []any, returnEarly func(any)) (CallFinalizer, error) {
	if method != lazyLoadMethod {
		return nil, nil
	}
	st := f.state()
	params, _ := st.Store().Get(storeLazyParams).(map[string]any)

	if mounter, ok := f.comp.(Mounter); ok {
		if err := mounter.Mount(ctx, params); err != nil {
			return nil, err
		}
	}
	st.Store().Delete(storeSkipRender)
	st.Store().Delete(storeSkipRenderHTML)
	lctx.AddMemo(MemoLazyLoaded, true)
	returnEarly(nil)
	return nil, nil
}

func (f *lazyFeature) Dehydrate(_ context.Context, lctx *Context) error {
	// An already-activated component keeps its lazyLoaded flag across
	// subsequent updates; mount and activation passes wrote theirs already.
	if _, declared := lctx.Memo()[MemoLazyLoaded]; declared {
		return nil
	}
	if activated, _ := f.state().Store().Get(storeLazyActivated).(bool); activated {
		lctx.AddMemo(MemoLazyLoaded, true)
	}
	return nil
}
