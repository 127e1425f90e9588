// Package renderer declares the UI rendering capabilities the orchestrator
// consumes. Rendering is external: an embedding application supplies a
// Renderer that turns a component plus props into markup, and a Loader that
// imports page modules for server-side rendering.
package renderer

import "context"

// Component is an opaque handle to a loaded UI component. The orchestrator
// never inspects it; it only passes it back to the Renderer.
type Component any

// PageModule is the shape of an imported page module: the page component as
// default export, an optional head component, and the stylesheet names the
// page re-export module carries.
type PageModule struct {
	Default Component
	Head    Component
	Styles  []string
}

// Renderer turns a component plus props into a markup string.
type Renderer interface {
	RenderToMarkup(component Component, props map[string]any) (string, error)
}

// Loader imports a page module by specifier: a built artifact path in
// build/production, a live SSR specifier in development.
type Loader interface {
	Import(ctx context.Context, specifier string) (*PageModule, error)
}

// Markup renders component with props, mapping a nil component to the empty
// string. A page without a head export renders an empty head, never an
// error.
func Markup(r Renderer, component Component, props map[string]any) (string, error) {
	if component == nil {
		return "", nil
	}

	return r.RenderToMarkup(component, props)
}
