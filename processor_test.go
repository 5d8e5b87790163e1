package wirecmp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

// counter is the canonical test component: one property, one action.
type counter struct {
	*State
	mounts int
}

func newCounter() *counter { return newNamedCounter("counter") }

func newNamedCounter(name string) *counter {
	c := &counter{State: NewState(name)}
	c.Set("count", 0)
	c.Action("increment", func(_ context.Context, params []any) (any, error) {
		step := 1
		if len(params) > 0 {
			step = AsInt(params[0])
		}
		c.Set("count", c.Int("count")+step)
		return c.Int("count"), nil
	})
	return c
}

func (c *counter) Mount(_ context.Context, params map[string]any) error {
	c.mounts++
	if start, ok := params["start"]; ok {
		c.Set("count", AsInt(start))
	}
	return nil
}

func (c *counter) Render(context.Context) (templ.Component, error) {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<div>count: %d</div>", c.Int("count"))
		return err
	}), nil
}

func counterEngine(t *testing.T, decorators ...Decorator) *TestEngine {
	t.Helper()
	reg := NewRegistry()
	reg.Component("counter", func() Stater { return newCounter() }, decorators...)
	return NewTestEngine(reg, Config{})
}

func TestMountProducesSignedSnapshot(t *testing.T) {
	e := counterEngine(t)

	resp, err := e.Mount("counter", map[string]any{"start": 5})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if resp.Snapshot.Name() != "counter" {
		t.Errorf("Name = %q, want counter", resp.Snapshot.Name())
	}
	if resp.Snapshot.ID() == "" {
		t.Error("mounted snapshot should carry a generated id")
	}
	if resp.Snapshot.Data["count"] != 5 {
		t.Errorf("count = %v, want 5", resp.Snapshot.Data["count"])
	}
	if err := e.Processor.Checksum().Verify(resp.Snapshot); err != nil {
		t.Errorf("mounted snapshot should verify: %v", err)
	}
	if html, _ := resp.Effects[EffectHTML].(string); !strings.Contains(html, "count: 5") {
		t.Errorf("html effect = %q, want rendered count", html)
	}
}

func TestUpdateAcceptsLargeIntegerProps(t *testing.T) {
	reg := NewRegistry()
	reg.Component("ledger", func() Stater {
		c := newNamedCounter("ledger")
		c.Set("serial", int64(123456789012345678))
		return c
	})
	e := NewTestEngine(reg, Config{})

	mounted, err := e.Mount("ledger", nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	// The echo decodes the serial as float64, which cannot hold all the
	// digits. The untampered snapshot must still verify.
	snap, err := WireRoundTrip(mounted.Snapshot)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	resp, err := e.Update(snap, UpdateSet{}, MethodCall{Method: "increment"})
	if err != nil {
		t.Fatalf("Update of echoed snapshot failed: %v", err)
	}

	next, err := WireRoundTrip(resp.Components[0].Snapshot)
	if err != nil {
		t.Fatalf("second round trip failed: %v", err)
	}
	if err := e.Processor.Checksum().Verify(next); err != nil {
		t.Errorf("second echo should verify: %v", err)
	}
}

func TestUpdateThenCall(t *testing.T) {
	e := counterEngine(t)

	mounted, err := e.Mount("counter", nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	snap, err := WireRoundTrip(mounted.Snapshot)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}

	// Client sets count to 2, then calls increment: updates apply before
	// calls, so the action sees 2 and leaves 3.
	var updates UpdateSet
	updates.Set("count", 2)
	resp, err := e.Update(snap, updates, MethodCall{Method: "increment"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(resp.Components) != 1 {
		t.Fatalf("components = %d, want 1", len(resp.Components))
	}

	out := resp.Components[0]
	if out.Snapshot.Data["count"] != 3 {
		t.Errorf("count = %v, want 3", out.Snapshot.Data["count"])
	}
	if out.Snapshot.ID() != mounted.Snapshot.ID() {
		t.Error("component id must survive the update cycle")
	}
	returns, _ := out.Effects[EffectReturns].([]any)
	if len(returns) != 1 || returns[0] != 3 {
		t.Errorf("returns = %v, want [3]", returns)
	}
	if html, _ := out.Effects[EffectHTML].(string); !strings.Contains(html, "count: 3") {
		t.Errorf("html = %q, want re-render with count 3", html)
	}
	if err := e.Processor.Checksum().Verify(out.Snapshot); err != nil {
		t.Errorf("outgoing snapshot should verify: %v", err)
	}
}

func TestCorruptSnapshotAborts(t *testing.T) {
	e := counterEngine(t)

	mounted, err := e.Mount("counter", nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	snap := mounted.Snapshot
	snap.Data = map[string]any{"count": 9999}

	_, err = e.Update(snap, UpdateSet{})
	if !IsCorrupt(err) {
		t.Errorf("Update with tampered data = %v, want corrupt payload", err)
	}
}

func TestLockedPropertyRejectedOthersProceed(t *testing.T) {
	reg := NewRegistry()
	reg.Component("profile", func() Stater {
		c := &counter{State: NewState("profile")}
		c.Set("name", "fixed")
		c.Set("count", 0)
		return c
	}, Locked{Property: "name"})
	e := NewTestEngine(reg, Config{})

	mounted, err := e.Mount("profile", nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	snap, _ := WireRoundTrip(mounted.Snapshot)

	var updates UpdateSet
	updates.Set("name", "attacker")
	updates.Set("count", 7)
	resp, err := e.Update(snap, updates)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	out := resp.Components[0].Snapshot
	if out.Data["name"] != "fixed" {
		t.Errorf("locked name = %v, want unchanged", out.Data["name"])
	}
	if out.Data["count"] != 7 {
		t.Errorf("count = %v, want 7 (other updates proceed)", out.Data["count"])
	}
}

func TestCallLimitFailsFast(t *testing.T) {
	reg := NewRegistry()
	reg.Component("counter", func() Stater { return newCounter() })
	e := NewTestEngine(reg, Config{MaxCalls: 2})

	mounted, err := e.Mount("counter", nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	snap, _ := WireRoundTrip(mounted.Snapshot)

	calls := []MethodCall{{Method: "increment"}, {Method: "increment"}, {Method: "increment"}}
	_, err = e.Update(snap, UpdateSet{}, calls...)
	if !errors.Is(err, ErrPayloadLimitExceeded) {
		t.Errorf("Update over call limit = %v, want ErrPayloadLimitExceeded", err)
	}
}

func TestComponentLimitFailsFast(t *testing.T) {
	reg := NewRegistry()
	reg.Component("counter", func() Stater { return newCounter() })
	e := NewTestEngine(reg, Config{MaxComponents: 1})

	mounted, err := e.Mount("counter", nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	snap, _ := WireRoundTrip(mounted.Snapshot)

	req := UpdateRequest{Components: []ComponentRequest{
		{Snapshot: snap}, {Snapshot: snap},
	}}
	_, err = e.Processor.Process(context.Background(), req, nil)
	if !errors.Is(err, ErrPayloadLimitExceeded) {
		t.Errorf("Process over component limit = %v, want ErrPayloadLimitExceeded", err)
	}
}

func TestUnknownMethodFails(t *testing.T) {
	e := counterEngine(t)
	mounted, _ := e.Mount("counter", nil)
	snap, _ := WireRoundTrip(mounted.Snapshot)

	_, err := e.Update(snap, UpdateSet{}, MethodCall{Method: "selfDestruct"})
	if !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("unknown method = %v, want ErrMethodNotFound", err)
	}
}

func TestComputedNotCallable(t *testing.T) {
	reg := NewRegistry()
	reg.Component("stats", func() Stater {
		c := &counter{State: NewState("stats")}
		c.Computed("total", func(context.Context, []any) (any, error) { return 42, nil })
		return c
	})
	e := NewTestEngine(reg, Config{})

	mounted, _ := e.Mount("stats", nil)
	snap, _ := WireRoundTrip(mounted.Snapshot)

	_, err := e.Update(snap, UpdateSet{}, MethodCall{Method: "total"})
	if !errors.Is(err, ErrCannotCallComputedDirectly) {
		t.Errorf("computed call = %v, want ErrCannotCallComputedDirectly", err)
	}
}

func TestFlashClearedOncePerRequest(t *testing.T) {
	e := counterEngine(t)
	mounted, _ := e.Mount("counter", nil)
	snap, _ := WireRoundTrip(mounted.Snapshot)

	flash := &RecordingFlashStore{}
	_, err := e.UpdateWithFlash(snap, flash, UpdateSet{})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if flash.PendingClears != 1 || flash.ShownClears != 1 {
		t.Errorf("clears = %d/%d, want exactly 1/1", flash.PendingClears, flash.ShownClears)
	}
}

func TestRedirectPreservesFlash(t *testing.T) {
	reg := NewRegistry()
	reg.Component("leaver", func() Stater {
		c := &counter{State: NewState("leaver")}
		c.Action("leave", func(context.Context, []any) (any, error) {
			c.Redirect("/elsewhere")
			return nil, nil
		})
		return c
	})
	e := NewTestEngine(reg, Config{})

	mounted, _ := e.Mount("leaver", nil)
	snap, _ := WireRoundTrip(mounted.Snapshot)

	flash := &RecordingFlashStore{}
	resp, err := e.UpdateWithFlash(snap, flash, UpdateSet{}, MethodCall{Method: "leave"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := resp.Components[0].Effects[EffectRedirect]; got != "/elsewhere" {
		t.Errorf("redirect effect = %v, want /elsewhere", got)
	}
	if flash.PendingClears != 0 || flash.ShownClears != 0 {
		t.Errorf("clears = %d/%d, want 0/0 when redirecting", flash.PendingClears, flash.ShownClears)
	}
	// The navigating client discards HTML, so none is rendered.
	if _, rendered := resp.Components[0].Effects[EffectHTML]; rendered {
		t.Error("redirecting component should not render")
	}
}

func TestDispatchAndScriptEffects(t *testing.T) {
	reg := NewRegistry()
	reg.Component("noisy", func() Stater {
		c := &counter{State: NewState("noisy")}
		c.Action("announce", func(context.Context, []any) (any, error) {
			c.Dispatch("saved", map[string]any{"id": 7})
			c.Script("console.log('done')")
			return nil, nil
		})
		return c
	})
	e := NewTestEngine(reg, Config{})

	mounted, _ := e.Mount("noisy", nil)
	snap, _ := WireRoundTrip(mounted.Snapshot)

	resp, err := e.Update(snap, UpdateSet{}, MethodCall{Method: "announce"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	effects := resp.Components[0].Effects

	dispatches, _ := effects[EffectDispatch].([]any)
	if len(dispatches) != 1 {
		t.Fatalf("dispatches = %v, want one event", dispatches)
	}
	event, _ := dispatches[0].(map[string]any)
	if event["name"] != "saved" {
		t.Errorf("event name = %v, want saved", event["name"])
	}

	scripts, ok := effects[EffectScripts].(*OrderedMap)
	if !ok || scripts.Len() != 1 {
		t.Fatalf("scripts effect = %v, want one keyed entry", effects[EffectScripts])
	}
	if len(resp.Assets) != 1 || resp.Assets[0] != "console.log('done')" {
		t.Errorf("assets = %v, want the queued script", resp.Assets)
	}
}

func TestSkipRenderSubstitutionAndOmission(t *testing.T) {
	reg := NewRegistry()
	reg.Component("quiet", func() Stater {
		c := newNamedCounter("quiet")
		c.Action("freeze", func(context.Context, []any) (any, error) {
			c.SkipRender()
			return nil, nil
		})
		c.Action("swap", func(context.Context, []any) (any, error) {
			c.SkipRender("<div>frozen</div>")
			return nil, nil
		})
		return c
	})
	e := NewTestEngine(reg, Config{})

	mounted, err := e.Mount("quiet", nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	// No substitute: the html effect is omitted so the client keeps the
	// markup it already has.
	snap, _ := WireRoundTrip(mounted.Snapshot)
	resp, err := e.Update(snap, UpdateSet{}, MethodCall{Method: "freeze"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if html, present := resp.Components[0].Effects[EffectHTML]; present {
		t.Errorf("html effect = %v, want none when skipping with no substitute", html)
	}

	// Explicit substitute becomes the html effect verbatim.
	snap2, _ := WireRoundTrip(mounted.Snapshot)
	resp2, err := e.Update(snap2, UpdateSet{}, MethodCall{Method: "swap"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if html, _ := resp2.Components[0].Effects[EffectHTML].(string); html != "<div>frozen</div>" {
		t.Errorf("html effect = %q, want the substituted markup", html)
	}
}

func TestValidationErrorAbsorbedAndPersisted(t *testing.T) {
	reg := NewRegistry()
	reg.Component("signup", func() Stater {
		c := &counter{State: NewState("signup")}
		c.Set("email", "")
		c.Action("save", func(context.Context, []any) (any, error) {
			return nil, &ValidationError{Fields: map[string][]string{
				"email":    {"required"},
				"internal": {"not a prop"},
			}}
		})
		return c
	})
	e := NewTestEngine(reg, Config{})

	mounted, _ := e.Mount("signup", nil)
	snap, _ := WireRoundTrip(mounted.Snapshot)

	resp, err := e.Update(snap, UpdateSet{}, MethodCall{Method: "save"})
	if err != nil {
		t.Fatalf("validation failure must be absorbed, got %v", err)
	}

	memo := resp.Components[0].Snapshot.Memo
	persisted, _ := memo[MemoErrors].(map[string][]string)
	if got := persisted["email"]; len(got) != 1 || got[0] != "required" {
		t.Errorf("persisted errors = %v, want email: [required]", persisted)
	}
	// Synthetic keys with no backing property are dropped.
	if _, leaked := persisted["internal"]; leaked {
		t.Error("non-property error keys should not be persisted")
	}

	// The next cycle restores the bag onto the fresh instance.
	next, _ := WireRoundTrip(resp.Components[0].Snapshot)
	resp2, err := e.Update(next, UpdateSet{})
	if err != nil {
		t.Fatalf("second Update failed: %v", err)
	}
	memo2 := resp2.Components[0].Snapshot.Memo
	restored, _ := memo2[MemoErrors].(map[string][]string)
	if got := restored["email"]; len(got) != 1 || got[0] != "required" {
		t.Errorf("restored errors = %v, want email: [required]", restored)
	}
}

func TestLazyMountAndActivation(t *testing.T) {
	reg := NewRegistry()
	var instances []*counter
	reg.Component("heavy", func() Stater {
		c := newNamedCounter("heavy")
		instances = append(instances, c)
		return c
	}, Lazy{Placeholder: "<div>loading</div>"})
	e := NewTestEngine(reg, Config{})

	mounted, err := e.Mount("heavy", map[string]any{"start": 9})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if html, _ := mounted.Effects[EffectHTML].(string); html != "<div>loading</div>" {
		t.Errorf("html = %q, want the placeholder", html)
	}
	if loaded, _ := mounted.Snapshot.Memo[MemoLazyLoaded].(bool); loaded {
		t.Error("memo lazyLoaded should be false before activation")
	}
	if instances[0].mounts != 0 {
		t.Error("real Mount must not run for a lazy placeholder")
	}

	// Activation: the internal call runs the deferred mount with the
	// original params and renders for real.
	snap, _ := WireRoundTrip(mounted.Snapshot)
	resp, err := e.Update(snap, UpdateSet{}, MethodCall{Method: "__lazyLoad"})
	if err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	out := resp.Components[0]
	if loaded, _ := out.Snapshot.Memo[MemoLazyLoaded].(bool); !loaded {
		t.Error("memo lazyLoaded should be true after activation")
	}
	if out.Snapshot.Data["count"] != 9 {
		t.Errorf("count = %v, want 9 from the deferred mount params", out.Snapshot.Data["count"])
	}
	if html, _ := out.Effects[EffectHTML].(string); !strings.Contains(html, "count: 9") {
		t.Errorf("html = %q, want real render after activation", html)
	}

	// Subsequent updates keep the activated flag.
	snap2, _ := WireRoundTrip(out.Snapshot)
	resp2, err := e.Update(snap2, UpdateSet{}, MethodCall{Method: "increment"})
	if err != nil {
		t.Fatalf("post-activation update failed: %v", err)
	}
	if loaded, _ := resp2.Components[0].Snapshot.Memo[MemoLazyLoaded].(bool); !loaded {
		t.Error("lazyLoaded flag must survive later updates")
	}
}

func TestLazyExplicitParamOverridesDecorator(t *testing.T) {
	reg := NewRegistry()
	reg.Component("heavy", func() Stater {
		return newNamedCounter("heavy")
	}, Lazy{})
	e := NewTestEngine(reg, Config{})

	mounted, err := e.Mount("heavy", map[string]any{"lazy": false})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if _, deferred := mounted.Snapshot.Memo[MemoLazyLoaded]; deferred {
		t.Error("explicit lazy=false must defeat the decorator")
	}
}

func TestDestroy(t *testing.T) {
	destroyed := false
	reg := NewRegistry()
	reg.Component("temp", func() Stater {
		return &destroyable{State: NewState("temp"), flag: &destroyed}
	})
	e := NewTestEngine(reg, Config{})

	mounted, err := e.Mount("temp", nil)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := e.Processor.Destroy(context.Background(), mounted.Snapshot); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if !destroyed {
		t.Error("component Destroy should have run")
	}

	tampered := mounted.Snapshot
	tampered.Checksum = "bogus"
	if err := e.Processor.Destroy(context.Background(), tampered); !IsCorrupt(err) {
		t.Errorf("Destroy of tampered snapshot = %v, want corrupt payload", err)
	}
}

type destroyable struct {
	*State
	flag *bool
}

func (d *destroyable) Destroy(context.Context) error {
	*d.flag = true
	return nil
}
