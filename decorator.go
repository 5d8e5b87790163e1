package wirecmp

// Decorator is a behavioral annotation attached to a component at class or
// instance level and interpreted by feature hooks. Class-level decorators
// are registered once with the component factory and shared across
// instances; instance-level decorators are added at runtime during mount.
type Decorator interface {
	DecoratorName() string
}

// Locked guards one property as immutable from the client. Updates
// targeting it are rejected with ErrCannotUpdateLockedProperty while the
// rest of the batch proceeds.
type Locked struct {
	Property string
}

func (Locked) DecoratorName() string { return "locked" }

// Lazy defers a component's real mount: the first render produces a
// placeholder and the component loads when the client activates it.
//
// Explicit request params set to false override these fields; Isolate and
// Bundle override the default lazy behavior when set.
type Lazy struct {
	// Isolate gives the component its own activation request instead of
	// bundling it with siblings.
	Isolate bool
	// Bundle groups the activation with other lazy components on the page.
	Bundle bool
	// Placeholder is the HTML rendered until activation. Empty uses the
	// configured ComponentPlaceholder.
	Placeholder string
}

func (Lazy) DecoratorName() string { return "lazy" }

// decoratorsNamed filters a decorator list by name.
func decoratorsNamed(decorators []Decorator, name string) []Decorator {
	var out []Decorator
	for _, d := range decorators {
		if d.DecoratorName() == name {
			out = append(out, d)
		}
	}
	return out
}
