package synth

import (
	"context"
	"fmt"
)

// Form is a form-like aggregate: a value that declares its own fields and
// carries an error bag. Forms dehydrate field-by-field and hydrate through
// a class registry so the snapshot only needs to name the class.
type Form interface {
	// FormName is the class name written into wire metadata and looked up
	// in the form registry on hydration.
	FormName() string
	// FormFields returns the declared fields and their current values.
	FormFields() map[string]any
	// SetFormField assigns one declared field from a hydrated value.
	SetFormField(name string, value any) error
	// ErrorMessages returns the error bag as field -> messages.
	ErrorMessages() map[string][]string
	// SetErrorMessages replaces the error bag.
	SetErrorMessages(errs map[string][]string)
}

// FormHydrater is implemented by forms that need their own lifecycle hook
// after their fields have been re-populated.
type FormHydrater interface {
	HydrateForm(ctx context.Context) error
}

// FormSynth dehydrates all declared fields of a Form into a mapping with
// {class, errors?, children?} metadata, and hydrates by instantiating the
// class from its registry and re-populating each field recursively.
type FormSynth struct {
	classes map[string]func() Form
}

// NewFormSynth creates a form synthesizer with no registered classes.
func NewFormSynth() *FormSynth {
	return &FormSynth{classes: make(map[string]func() Form)}
}

// RegisterClass binds a form class name to its factory. Called once at
// startup.
func (f *FormSynth) RegisterClass(name string, factory func() Form) {
	f.classes[name] = factory
}

func (f *FormSynth) Key() string { return "form" }

func (f *FormSynth) MatchWireKey(string) bool { return false }

func (f *FormSynth) Match(value any) bool {
	_, ok := value.(Form)
	return ok
}

func (f *FormSynth) Dehydrate(ctx context.Context, value any, path string, child DehydrateFunc) (any, map[string]any, error) {
	form, ok := value.(Form)
	if !ok {
		return nil, nil, fmt.Errorf("%w: form synthesizer matched %T at %q", ErrUnknownSynthesizer, value, path)
	}

	payload := make(map[string]any)
	children := make(map[string]any)
	for name, fieldValue := range form.FormFields() {
		dehydrated, err := child(ctx, fieldValue, path+"."+name)
		if err != nil {
			return nil, nil, err
		}
		// Child tuples are split: payload stays flat, per-field metadata
		// moves under meta children so hydration can rebuild each field.
		if tup, isTuple := AsTuple(dehydrated); isTuple {
			payload[name] = tup.Payload
			children[name] = tup.Meta
		} else {
			payload[name] = dehydrated
		}
	}

	meta := map[string]any{"class": form.FormName()}
	if len(children) > 0 {
		meta["children"] = children
	}
	if errs := form.ErrorMessages(); len(errs) > 0 {
		meta["errors"] = errs
	}
	return payload, meta, nil
}

func (f *FormSynth) Hydrate(ctx context.Context, payload any, meta map[string]any, child HydrateFunc) (any, error) {
	class, _ := meta["class"].(string)
	factory, ok := f.classes[class]
	if !ok {
		return nil, fmt.Errorf("%w: form class %q", ErrUnregisteredClass, class)
	}
	form := factory()

	fields, _ := payload.(map[string]any)
	children := childMeta(meta["children"])
	for name, value := range fields {
		wire := value
		if cm, hasMeta := children[name]; hasMeta {
			wire = Tuple{Payload: value, Meta: cm}
		}
		hydrated, err := child(ctx, wire)
		if err != nil {
			return nil, err
		}
		if err := form.SetFormField(name, hydrated); err != nil {
			return nil, fmt.Errorf("hydrate form %q field %q: %w", class, name, err)
		}
	}

	if errs := errorMessages(meta["errors"]); len(errs) > 0 {
		form.SetErrorMessages(errs)
	}

	if fh, ok := form.(FormHydrater); ok {
		if err := fh.HydrateForm(ctx); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// childMeta normalizes meta children, which arrive either as the original
// map[string]map[string]any or as map[string]any after a JSON round trip.
func childMeta(raw any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	switch v := raw.(type) {
	case map[string]map[string]any:
		return v
	case map[string]any:
		for name, m := range v {
			if mm, ok := m.(map[string]any); ok {
				out[name] = mm
			}
		}
	}
	return out
}

// errorMessages normalizes an error bag, which arrives either typed or as
// decoded JSON (map[string]any of []any).
func errorMessages(raw any) map[string][]string {
	switch v := raw.(type) {
	case map[string][]string:
		return v
	case map[string]any:
		out := make(map[string][]string, len(v))
		for field, msgs := range v {
			switch list := msgs.(type) {
			case []string:
				out[field] = list
			case []any:
				ss := make([]string, 0, len(list))
				for _, m := range list {
					ss = append(ss, fmt.Sprint(m))
				}
				out[field] = ss
			}
		}
		return out
	}
	return nil
}
