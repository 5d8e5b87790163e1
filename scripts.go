package wirecmp

import (
	"context"
	"fmt"
)

// scriptsFeature buffers queued client-side scripts in the per-request
// asset table and records their keys in the snapshot memo and effects. The
// table entry lives only until the processor splices the assets into the
// final response for the same request id.
type scriptsFeature struct {
	featureBase
}

func (f *scriptsFeature) Dehydrate(_ context.Context, lctx *Context) error {
	st := f.state()
	for i, raw := range st.Store().List(storeScripts) {
		js, _ := raw.(string)
		key := fmt.Sprintf("%s-%d", st.ID(), i)
		renderedAssets.Insert(lctx.RequestID, js)
		lctx.PushMemo(MemoScripts, key)
		lctx.PushEffect(EffectScripts, js, key)
	}
	return nil
}
