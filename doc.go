// Package wirecmp synchronizes server-rendered component state with the
// browser over a snapshot protocol: the server owns all component logic
// and the client carries only signed, serialized state between requests.
//
// Components hold their state on the server between requests only in
// serialized form: every response carries a snapshot of the component's
// data and memo, signed with an HMAC checksum, and every subsequent
// request echoes that snapshot back. The engine verifies the checksum,
// reconstructs the component, applies property updates and method calls,
// re-renders, and emits a fresh snapshot.
//
// # Core Concepts
//
// Components are plain Go structs that expose their reactive state
// through a *State, obtained by implementing Stater:
//
//	type Counter struct {
//	    state *wirecmp.State
//	}
//
//	func (c *Counter) WireState() *wirecmp.State { return c.state }
//
// Properties are declared on the State and round-trip through snapshots.
// Values that JSON cannot carry faithfully (times, records, forms,
// nested collections) are handled by synthesizers: each synthesizer
// claims a Go type, dehydrates it to a JSON-safe payload plus a metadata
// tuple, and hydrates it back on the next request. Custom synthesizers
// registered on the Registry take precedence over the built-in set.
//
// # Lifecycle Hooks
//
// Cross-cutting behavior lives in hooks. A hook factory produces one
// hook instance per component per request; the pipeline sorts instances
// by capability (boot, mount, hydrate, update, call, render, dehydrate,
// destroy, exception) and runs each phase in registration order. Update,
// call, and render hooks may return finalizers that run after the engine
// applies the phase, and call hooks may intercept a method entirely via
// early return. Built-in hooks implement locked properties, lazy
// loading, validation error persistence, redirects, dispatched browser
// events, and script assets.
//
// # Registration and Transport
//
// Everything is registered explicitly on a Registry:
//
//	reg := wirecmp.NewRegistry()
//	reg.Component("counter", NewCounter)
//	reg.Model("post", postStore)
//
//	p := wirecmp.NewProcessor(reg, wirecmp.Config{SecretKey: secret})
//	http.Handle("/wirecmp/", http.StripPrefix("/wirecmp", p.Handler()))
//
// The bundled handler speaks JSON over POST and requires the protocol
// header the client runtime sends, but the Processor is usable without
// it: Mount and Process take plain request values, so the engine embeds
// into any transport.
//
// # Security Model
//
// Snapshots are readable by the client but tamper-proof: the checksum is
// an HMAC-SHA256 over the canonical JSON of data and memo, keyed by the
// configured secret. A snapshot that fails verification aborts the whole
// batch before any component code runs. Flash messages ride in a signed
// (optionally encrypted) msgpack cookie using the same keyed codec.
package wirecmp
