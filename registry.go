package wirecmp

import (
	"fmt"
	"sync"

	"github.com/pthm/wirecmp/lib/synth"
	"github.com/pthm/wirecmp/records"
)

// componentDef holds a component class registration.
type componentDef struct {
	factory    func() Stater
	decorators []Decorator
}

// Registry holds the process-wide component, hook, form, and model
// registrations plus the synthesizer dispatch order. All registrations
// happen once at startup, before request processing begins; the registry
// is read-only thereafter. Registration panics on collisions, surfacing
// wiring mistakes at boot rather than mid-request.
type Registry struct {
	mu         sync.RWMutex
	components map[string]componentDef
	hooks      []HookFactory

	synths *synth.Registry
	models *synth.ModelSynth
	forms  *synth.FormSynth
}

// NewRegistry creates a registry with the built-in synthesizers installed:
// date and form and model ahead of the array fallback, so shape-specific
// matches win before generic container recursion.
func NewRegistry() *Registry {
	models := synth.NewModelSynth()
	forms := synth.NewFormSynth()
	return &Registry{
		components: make(map[string]componentDef),
		synths: synth.NewRegistry(
			synth.DateSynth{},
			forms,
			models,
			synth.ArraySynth{},
		),
		models: models,
		forms:  forms,
	}
}

// Component registers a component class by name with its class-level
// decorators. The factory runs once per mount or hydrate; instances are
// never reused across requests.
func (r *Registry) Component(name string, factory func() Stater, decorators ...Decorator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.components[name]; exists {
		panic(fmt.Sprintf("wirecmp: component %q registered twice", name))
	}
	r.components[name] = componentDef{factory: factory, decorators: decorators}
}

// Hook registers a feature hook factory. Hooks run for every component in
// every phase, in registration order, after the engine's built-in features.
func (r *Registry) Hook(factory HookFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, factory)
}

// Form registers a form class factory under its class name.
func (r *Registry) Form(name string, factory func() synth.Form) {
	r.forms.RegisterClass(name, factory)
}

// Model registers a record class with the store that re-fetches its
// records during hydration.
func (r *Registry) Model(class string, store records.Store) {
	r.models.RegisterClass(class, store)
}

// Synthesizer registers a custom synthesizer ahead of the built-ins, so a
// shape-specific matcher wins over the generic container fallback.
func (r *Registry) Synthesizer(s synth.Synthesizer) {
	r.synths.RegisterFront(s)
}

// Synths returns the synthesizer dispatch registry.
func (r *Registry) Synths() *synth.Registry { return r.synths }

// instantiate builds a fresh component instance for a class name.
func (r *Registry) instantiate(name string) (Stater, error) {
	r.mu.RLock()
	def, ok := r.components[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: component %q", ErrUnregisteredClass, name)
	}
	comp := def.factory()
	comp.WireState().classDecorators = def.decorators
	return comp, nil
}

// userHooks returns the registered hook factories.
func (r *Registry) userHooks() []HookFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hooks
}
