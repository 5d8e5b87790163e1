package wirecmp

import "context"

// redirectFeature surfaces a component's requested redirect as an effect.
// The batch processor inspects the effect to decide whether flash buffers
// survive the request.
type redirectFeature struct {
	featureBase
}

func (f *redirectFeature) Dehydrate(_ context.Context, lctx *Context) error {
	if url, ok := f.state().Store().Get(storeRedirect).(string); ok && url != "" {
		lctx.AddEffect(EffectRedirect, url)
	}
	return nil
}
