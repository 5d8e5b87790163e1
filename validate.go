package wirecmp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError is the normalized form of a failed validation: a mapping
// from field name to messages. External validator failures are expected to
// be caught at the boundary and converted into this type so the validation
// feature can absorb them into the component's error bag instead of letting
// them propagate to the transport layer.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("wirecmp: validation failed for %s", strings.Join(fields, ", "))
}

// validationFeature restores the error bag on hydrate, persists it on
// dehydrate, and absorbs ValidationErrors thrown from component methods.
type validationFeature struct {
	featureBase
}

func (f *validationFeature) Hydrate(_ context.Context, _ *Context, memo map[string]any) error {
	raw, ok := memo[MemoErrors]
	if !ok {
		return nil
	}
	st := f.state()
	switch errs := raw.(type) {
	case map[string][]string:
		for field, msgs := range errs {
			for _, m := range msgs {
				st.AddError(field, m)
			}
		}
	case map[string]any:
		for field, msgs := range errs {
			if list, ok := msgs.([]any); ok {
				for _, m := range list {
					st.AddError(field, fmt.Sprint(m))
				}
			}
		}
	}
	return nil
}

func (f *validationFeature) Exception(_ context.Context, _ *Context, err error, stop func()) {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return
	}
	st := f.state()
	for field, msgs := range ve.Fields {
		for _, m := range msgs {
			st.AddError(field, m)
		}
	}
	stop()
}

func (f *validationFeature) Dehydrate(_ context.Context, lctx *Context) error {
	st := f.state()
	persisted := make(map[string][]string)
	for field, msgs := range st.Errors() {
		// Synthetic validator keys that don't correspond to a real
		// component property are not persisted; they could not be
		// reconstructed and would only grow the snapshot.
		root, _, _ := strings.Cut(field, ".")
		if !st.HasProp(root) {
			continue
		}
		persisted[field] = msgs
	}
	if len(persisted) > 0 {
		lctx.AddMemo(MemoErrors, persisted)
	}
	return nil
}
