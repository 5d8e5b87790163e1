package wirecmp

import "context"

// Effect keys the engine emits.
const (
	EffectHTML     = "html"
	EffectRedirect = "redirect"
	EffectDispatch = "dispatches"
	EffectScripts  = "scripts"
	EffectReturns  = "returns"
)

// eventsFeature surfaces queued Dispatch calls as an ordered dispatches
// effect.
type eventsFeature struct {
	featureBase
}

func (f *eventsFeature) Dehydrate(_ context.Context, lctx *Context) error {
	for _, event := range f.state().Store().List(storeDispatched) {
		lctx.PushEffect(EffectDispatch, event)
	}
	return nil
}
