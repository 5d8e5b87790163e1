package wirecmp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pthm/wirecmp/lib/synth"
)

// Store keys consulted by the lifecycle orchestrator. Request-scoped only:
// the flags themselves are never persisted in a snapshot, only their
// consequences (such as the lazyLoaded memo flag) are.
const (
	storeSkipMount      = "skipMount"
	storeSkipHydrate    = "skipHydrate"
	storeSkipRender     = "skipRender"
	storeSkipRenderHTML = "skipRenderHtml"
	storeRedirect       = "redirect"
	storeDispatched     = "dispatched"
	storeScripts        = "scripts"
)

// ActionFunc is a component method callable from the client with positional
// parameters.
type ActionFunc func(ctx context.Context, params []any) (any, error)

// State is the component state container, embedded by user components:
//
//	type Counter struct {
//	    *wirecmp.State
//	}
//
//	func NewCounter() *Counter {
//	    c := &Counter{State: wirecmp.NewState("counter")}
//	    c.Set("count", 0)
//	    c.Action("increment", c.increment)
//	    return c
//	}
//
// It holds the instance's identity, property bag, registered actions,
// decorators, error bag, and the per-request ephemeral Store. A State is
// owned exclusively by one request's processing pass: created fresh from
// the class registry on every mount or hydrate, discarded at the end of the
// request, never shared across concurrent requests.
type State struct {
	id   string
	name string

	props           map[string]any
	store           *Store
	classDecorators []Decorator
	decorators      []Decorator
	actions         map[string]ActionFunc
	computed        map[string]ActionFunc
	errors          map[string][]string
}

// NewState creates the state container for a component class name.
func NewState(name string) *State {
	return &State{
		name:     name,
		props:    make(map[string]any),
		store:    NewStore(),
		actions:  make(map[string]ActionFunc),
		computed: make(map[string]ActionFunc),
		errors:   make(map[string][]string),
	}
}

// Stater gives the engine access to the embedded State. Every component
// satisfies it through embedding.
type Stater interface {
	WireState() *State
}

// WireState implements Stater.
func (s *State) WireState() *State { return s }

// ID returns the component instance id.
func (s *State) ID() string { return s.id }

// Name returns the component class name.
func (s *State) Name() string { return s.name }

// SetID assigns the instance id (generated at mount, restored at hydrate).
func (s *State) SetID(id string) { s.id = id }

// Set assigns a property.
func (s *State) Set(key string, value any) { s.props[key] = value }

// Get returns a property value, or nil if absent.
func (s *State) Get(key string) any { return s.props[key] }

// HasProp reports whether a property exists.
func (s *State) HasProp(key string) bool {
	_, ok := s.props[key]
	return ok
}

// Props returns the live property bag.
func (s *State) Props() map[string]any { return s.props }

// Store returns the per-request ephemeral store.
func (s *State) Store() *Store { return s.store }

// Action registers a client-callable method.
func (s *State) Action(name string, fn ActionFunc) {
	s.actions[name] = fn
}

// Computed registers a protected derived-value method. Computed methods are
// evaluated server-side via Compute; invoking one as an action fails with
// ErrCannotCallComputedDirectly.
func (s *State) Computed(name string, fn ActionFunc) {
	s.computed[name] = fn
}

// Compute evaluates a registered computed method.
func (s *State) Compute(ctx context.Context, name string, params ...any) (any, error) {
	fn, ok := s.computed[name]
	if !ok {
		return nil, fmt.Errorf("%w: computed %q", ErrMethodNotFound, name)
	}
	return fn(ctx, params)
}

// callAction dispatches a client-requested method call.
func (s *State) callAction(ctx context.Context, method string, params []any) (any, error) {
	if _, ok := s.computed[method]; ok {
		return nil, fmt.Errorf("%w: %q", ErrCannotCallComputedDirectly, method)
	}
	fn, ok := s.actions[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q on component %q", ErrMethodNotFound, method, s.name)
	}
	return fn(ctx, params)
}

// Use attaches instance-level decorators at runtime (typically during
// mount).
func (s *State) Use(decorators ...Decorator) {
	s.decorators = append(s.decorators, decorators...)
}

// Decorators returns class-level decorators followed by instance-level
// ones. The ordering is significant: class-level guards must be visible
// before decorators added during mount.
func (s *State) Decorators() []Decorator {
	out := make([]Decorator, 0, len(s.classDecorators)+len(s.decorators))
	out = append(out, s.classDecorators...)
	return append(out, s.decorators...)
}

// AddError appends a message to the component error bag.
func (s *State) AddError(field, message string) {
	s.errors[field] = append(s.errors[field], message)
}

// Errors returns the component error bag.
func (s *State) Errors() map[string][]string { return s.errors }

// ResetErrors clears the component error bag.
func (s *State) ResetErrors() {
	s.errors = make(map[string][]string)
}

// SkipMount prevents the component's own mount method (and call-triggered
// lifecycle re-invocation) from running this request.
func (s *State) SkipMount() { s.store.Set(storeSkipMount, true) }

// SkipHydrate prevents the hydrate phase's property restoration this
// request.
func (s *State) SkipHydrate() { s.store.Set(storeSkipHydrate, true) }

// SkipRender substitutes html for the component's render method this
// request. With no argument no html effect is emitted at all, and the
// client keeps the previously rendered markup in place.
func (s *State) SkipRender(html ...string) {
	s.store.Set(storeSkipRender, true)
	if len(html) > 0 {
		s.store.Set(storeSkipRenderHTML, html[0])
	}
}

// Redirect records a redirect effect for this component. Flash buffers
// survive the request when any component in the batch redirects.
func (s *State) Redirect(url string) { s.store.Set(storeRedirect, url) }

// Dispatch queues a client event effect.
func (s *State) Dispatch(event string, params ...any) {
	s.store.Push(storeDispatched, map[string]any{"name": event, "params": params})
}

// Script queues client-side JavaScript to run after the update lands.
func (s *State) Script(js string) { s.store.Push(storeScripts, js) }

// setPath mutates a possibly nested property path such as "form.email".
// Intermediate segments traverse maps and slices; the final segment may
// also land on a form field.
func (s *State) setPath(path string, value any) error {
	segments := strings.Split(path, ".")
	if len(segments) == 1 {
		s.Set(path, value)
		return nil
	}

	var current any = s.props[segments[0]]
	for _, seg := range segments[1 : len(segments)-1] {
		next, err := descend(current, seg)
		if err != nil {
			return fmt.Errorf("wirecmp: update path %q: %w", path, err)
		}
		current = next
	}

	leaf := segments[len(segments)-1]
	switch target := current.(type) {
	case synth.Form:
		return target.SetFormField(leaf, value)
	case map[string]any:
		target[leaf] = value
	case *OrderedMap:
		target.Set(leaf, value)
	case []any:
		idx, err := strconv.Atoi(leaf)
		if err != nil || idx < 0 || idx >= len(target) {
			return fmt.Errorf("wirecmp: update path %q: bad index %q", path, leaf)
		}
		target[idx] = value
	default:
		return fmt.Errorf("wirecmp: update path %q: cannot set %q on %T", path, leaf, current)
	}
	return nil
}

func descend(value any, seg string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v[seg], nil
	case *OrderedMap:
		out, _ := v.Get(seg)
		return out, nil
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, fmt.Errorf("bad index %q", seg)
		}
		return v[idx], nil
	case synth.Form:
		return v.FormFields()[seg], nil
	}
	return nil, fmt.Errorf("cannot traverse %T", value)
}
