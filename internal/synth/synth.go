// Package synth fills the wrapper-module templates that bridge a page entry
// into the external bundler.
//
// Three wrapper kinds exist: the client hydration entry, the page re-export
// module, and the document HTML shell. The first two are synthesized as
// virtual modules beside the entry they wrap, so their import statements use
// a real relative path for project files and the bare specifier for package
// entries. Substitution is textual and total over the template text: a
// template placeholder the scan failed to consume is a synthesis failure,
// while placeholder-looking tokens inside substituted values are data.
package synth

import (
	"encoding/json"
	"path"
	"path/filepath"
	"strings"

	"github.com/stackpress/reactus/internal/errors"
	"github.com/stackpress/reactus/internal/resolver"
)

// Kind names a wrapper module flavor.
type Kind string

const (
	// KindClient is the hydration client entry.
	KindClient Kind = "client"
	// KindPage is the page re-export module.
	KindPage Kind = "page"
)

// Templates carries the three wrapper templates, with zero values falling
// back to the defaults.
type Templates struct {
	Client   string
	Page     string
	Document string
}

// DocumentVars parameterizes the document HTML shell.
type DocumentVars struct {
	Head        string
	Body        string
	Props       map[string]any
	ClientRoute string
	// StyleRoutes lists one stylesheet URL per discovered css file; each
	// becomes a link element in the head.
	StyleRoutes []string
}

// Synthesizer fills wrapper templates for one project.
type Synthesizer struct {
	resolver  *resolver.Resolver
	templates Templates
}

// New creates a synthesizer over the given resolver. Empty template fields
// use the package defaults.
func New(res *resolver.Resolver, templates Templates) *Synthesizer {
	if templates.Client == "" {
		templates.Client = DefaultClientTemplate
	}
	if templates.Page == "" {
		templates.Page = DefaultPageTemplate
	}
	if templates.Document == "" {
		templates.Document = DefaultDocumentTemplate
	}

	return &Synthesizer{resolver: res, templates: templates}
}

// WrapperPath returns the absolute location the wrapper of the given kind is
// registered under. Wrappers live beside the entry they wrap; package
// entries are anchored under the project's package directory so the bundler
// resolves their imports by name.
func (s *Synthesizer) WrapperPath(entry string, kind Kind) string {
	abs, ok := s.resolver.Absolute(entry)
	if !ok {
		abs = filepath.Join(s.resolver.ProjectRoot(), "node_modules", filepath.FromSlash(entry))
	}

	base := strings.TrimSuffix(abs, filepath.Ext(abs))

	return base + "." + string(kind) + ".tsx"
}

// ImportRef computes the import reference the wrapper of the given kind uses
// for its entry: a ./-relative path for project entries, the entry itself
// for package entries.
func (s *Synthesizer) ImportRef(entry string, kind Kind) (string, error) {
	abs, ok := s.resolver.Absolute(entry)
	if !ok {
		// Packages resolve by name, not by relative path.
		return entry, nil
	}

	wrapperDir := filepath.Dir(s.WrapperPath(entry, kind))

	rel, err := filepath.Rel(wrapperDir, abs)
	if err != nil {
		return "", errors.NewInternalError("IMPORT_REF", "computing relative import path", err).WithEntry(entry)
	}

	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}

	return rel, nil
}

// ClientSource synthesizes the hydration client entry for entry.
func (s *Synthesizer) ClientSource(entry string) (string, error) {
	ref, err := s.ImportRef(entry, KindClient)
	if err != nil {
		return "", err
	}

	return substitute(s.templates.Client, map[string]string{
		"entry": ref,
	})
}

// PageSource synthesizes the page re-export module for entry, carrying the
// stylesheet file names discovered by a prior asset build. Only the file
// name survives; any directory prefix is stripped.
func (s *Synthesizer) PageSource(entry string, styles []string) (string, error) {
	ref, err := s.ImportRef(entry, KindPage)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(styles))
	for _, style := range styles {
		names = append(names, path.Base(filepath.ToSlash(style)))
	}

	encoded, err := json.Marshal(names)
	if err != nil {
		return "", errors.NewInternalError("STYLES_JSON", "encoding stylesheet list", err).WithEntry(entry)
	}

	return substitute(s.templates.Page, map[string]string{
		"entry":  ref,
		"styles": string(encoded),
	})
}

// DocumentHTML fills the document shell with rendered head and body markup,
// the embedded props payload, the client bundle route, and one stylesheet
// link per discovered css route.
func (s *Synthesizer) DocumentHTML(vars DocumentVars) (string, error) {
	props := vars.Props
	if props == nil {
		props = map[string]any{}
	}

	encoded, err := json.Marshal(props)
	if err != nil {
		return "", errors.NewInternalError("PROPS_JSON", "encoding props payload", err)
	}

	var links strings.Builder
	for i, route := range vars.StyleRoutes {
		if i > 0 {
			links.WriteString("\n    ")
		}
		links.WriteString(`<link rel="stylesheet" href="` + route + `" />`)
	}

	return substitute(s.templates.Document, map[string]string{
		"head":   vars.Head,
		"body":   vars.Body,
		"props":  string(encoded),
		"client": vars.ClientRoute,
		"styles": links.String(),
	})
}

// substitute replaces every {name} occurrence in template in a single pass.
// Inserted values are emitted verbatim and never rescanned, so a props value
// or rendered markup containing "{styles}" is plain output text, not a
// directive. Totality is checked against the template's own text only: a
// known placeholder the scan failed to consume is a synthesis failure,
// placeholder-looking tokens arriving through values never are.
func substitute(template string, vars map[string]string) (string, error) {
	var out strings.Builder
	out.Grow(len(template))

	// Template text copied through unchanged, kept apart from inserted
	// values so the totality check below cannot see value content.
	var copied strings.Builder

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			out.WriteString(rest)
			copied.WriteString(rest)

			break
		}

		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			out.WriteString(rest)
			copied.WriteString(rest)

			break
		}

		name := rest[open+1 : open+closing]
		value, known := vars[name]
		if !known {
			out.WriteString(rest[:open+1])
			copied.WriteString(rest[:open+1])
			rest = rest[open+1:]

			continue
		}

		out.WriteString(rest[:open])
		copied.WriteString(rest[:open])
		out.WriteString(value)
		rest = rest[open+closing+1:]
	}

	leftover := copied.String()
	for name := range vars {
		if strings.Contains(leftover, "{"+name+"}") {
			return "", errors.NewSynthesisFailure(
				"PLACEHOLDER_SURVIVED",
				"placeholder {"+name+"} survived substitution",
			)
		}
	}

	return out.String(), nil
}
