package wirecmp

import (
	"fmt"
	"reflect"
)

// FormState is embedded by form objects to provide the declared-field list
// and error bag the form synthesizer works with:
//
//	type ContactForm struct {
//	    wirecmp.FormState
//	    Email string
//	    Name  string
//	}
//
//	func NewContactForm() *ContactForm {
//	    f := &ContactForm{}
//	    f.InitForm("contact")
//	    f.DeclareField("email", &f.Email)
//	    f.DeclareField("name", &f.Name)
//	    return f
//	}
//
// Fields are declared explicitly with pointers rather than discovered by
// reflection; the declaration order is the dehydration order. The factory
// must be registered under the form's class name so hydration can rebuild
// instances.
type FormState struct {
	name       string
	fieldNames []string
	fields     map[string]any
	errors     map[string][]string
}

// InitForm sets the form's class name. Call once in the factory.
func (f *FormState) InitForm(name string) {
	f.name = name
	f.fields = make(map[string]any)
	f.errors = make(map[string][]string)
}

// DeclareField registers a named field backed by a pointer into the
// concrete form struct.
func (f *FormState) DeclareField(name string, ptr any) {
	if reflect.ValueOf(ptr).Kind() != reflect.Pointer {
		panic(fmt.Sprintf("wirecmp: form field %q must be declared with a pointer, got %T", name, ptr))
	}
	if _, exists := f.fields[name]; !exists {
		f.fieldNames = append(f.fieldNames, name)
	}
	f.fields[name] = ptr
}

// FormName implements synth.Form.
func (f *FormState) FormName() string { return f.name }

// FormFields implements synth.Form: declared fields and their current
// values.
func (f *FormState) FormFields() map[string]any {
	out := make(map[string]any, len(f.fieldNames))
	for _, name := range f.fieldNames {
		out[name] = reflect.ValueOf(f.fields[name]).Elem().Interface()
	}
	return out
}

// SetFormField implements synth.Form, assigning one declared field with
// wire-type coercion (JSON numbers arrive as float64).
func (f *FormState) SetFormField(name string, value any) error {
	ptr, ok := f.fields[name]
	if !ok {
		return fmt.Errorf("wirecmp: form %q has no field %q", f.name, name)
	}
	return assign(ptr, value)
}

// ErrorMessages implements synth.Form.
func (f *FormState) ErrorMessages() map[string][]string { return f.errors }

// SetErrorMessages implements synth.Form.
func (f *FormState) SetErrorMessages(errs map[string][]string) {
	f.errors = make(map[string][]string, len(errs))
	for field, msgs := range errs {
		f.errors[field] = append([]string(nil), msgs...)
	}
}

// AddError appends a message to the form's error bag.
func (f *FormState) AddError(field, message string) {
	f.errors[field] = append(f.errors[field], message)
}

// assign writes value through ptr, converting compatible kinds.
func assign(ptr, value any) error {
	target := reflect.ValueOf(ptr).Elem()
	if value == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(target.Type()):
		target.Set(v)
	case v.Type().ConvertibleTo(target.Type()) && convertibleKinds(v.Kind(), target.Kind()):
		target.Set(v.Convert(target.Type()))
	default:
		return fmt.Errorf("wirecmp: cannot assign %T to field of type %s", value, target.Type())
	}
	return nil
}

// convertibleKinds limits reflect conversions to numeric widening and
// narrowing; string<->number conversions are rejected even though reflect
// would happily produce garbage for them.
func convertibleKinds(from, to reflect.Kind) bool {
	return isNumericKind(from) && isNumericKind(to)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
