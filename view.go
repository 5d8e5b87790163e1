package wirecmp

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// TemplateFunc builds a templ component from a data mapping, registered
// under a view name.
type TemplateFunc func(data map[string]any) templ.Component

// View is the view-renderer collaborator: named templ templates for
// component-less rendering, raw html/template sources for one-off
// fragments, and shared variables merged into every subsequent render.
//
// Components themselves render through the Renderer interface; View exists
// for layouts, placeholders, and host pages around them.
type View struct {
	mu        sync.RWMutex
	templates map[string]TemplateFunc
	shared    map[string]any
}

// NewView creates an empty view registry.
func NewView() *View {
	return &View{
		templates: make(map[string]TemplateFunc),
		shared:    make(map[string]any),
	}
}

// Register binds a view name to a template. Panics on duplicates.
func (v *View) Register(name string, tmpl TemplateFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.templates[name]; exists {
		panic(fmt.Sprintf("wirecmp: view %q registered twice", name))
	}
	v.templates[name] = tmpl
}

// Share merges extra variables visible to every later render call.
func (v *View) Share(data map[string]any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for k, val := range data {
		v.shared[k] = val
	}
}

// Render renders a registered view to HTML.
func (v *View) Render(ctx context.Context, name string, data map[string]any) (string, error) {
	v.mu.RLock()
	tmpl, ok := v.templates[name]
	merged := v.merge(data)
	v.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("wirecmp: view %q not registered", name)
	}
	var sb strings.Builder
	if err := tmpl(merged).Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderRaw parses and renders an inline html/template source.
func (v *View) RenderRaw(source string, data map[string]any) (string, error) {
	tmpl, err := template.New("raw").Parse(source)
	if err != nil {
		return "", fmt.Errorf("wirecmp: parse raw view: %w", err)
	}
	v.mu.RLock()
	merged := v.merge(data)
	v.mu.RUnlock()
	var sb strings.Builder
	if err := tmpl.Execute(&sb, merged); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// merge overlays data on the shared variables. Caller holds the lock.
func (v *View) merge(data map[string]any) map[string]any {
	merged := make(map[string]any, len(v.shared)+len(data))
	for k, val := range v.shared {
		merged[k] = val
	}
	for k, val := range data {
		merged[k] = val
	}
	return merged
}
