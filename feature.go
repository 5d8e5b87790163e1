package wirecmp

// featureBase carries the component binding shared by the built-in feature
// hooks.
type featureBase struct {
	comp Stater
}

func (f *featureBase) SetComponent(c Stater) { f.comp = c }

func (f *featureBase) state() *State { return f.comp.WireState() }

// builtinHookFactories returns the engine's own features in their fixed
// order. User hooks registered on the Registry run after these.
func builtinHookFactories(cfg Config) []HookFactory {
	return []HookFactory{
		func() Hook { return &lockedFeature{} },
		func() Hook { return &lazyFeature{placeholder: cfg.ComponentPlaceholder} },
		func() Hook { return &validationFeature{} },
		func() Hook { return &redirectFeature{} },
		func() Hook { return &eventsFeature{} },
		func() Hook { return &scriptsFeature{} },
	}
}
