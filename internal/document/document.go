// Package document implements the per-entry build/render state machine.
//
// A Document owns one canonical entry and its derived identity, both fixed
// at creation. Every operation is mode-aware: development transforms live
// modules through the external dev resource, build runs static bundles over
// synthesized wrappers, production only reads previously written artifacts
// and never synthesizes anything.
package document

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/stackpress/reactus/internal/artifact"
	"github.com/stackpress/reactus/internal/bundler"
	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/errors"
	"github.com/stackpress/reactus/internal/hashid"
	"github.com/stackpress/reactus/internal/logging"
	"github.com/stackpress/reactus/internal/renderer"
	"github.com/stackpress/reactus/internal/resolver"
	"github.com/stackpress/reactus/internal/synth"
	"github.com/stackpress/reactus/internal/vmod"
)

// Operation names used in error context.
const (
	opAssets       = "assets"
	opClientBundle = "client-bundle"
	opPageModule   = "page-module"
	opImport       = "import"
	opMarkup       = "markup"
)

// Env is the explicitly constructed context shared by every document of one
// manifest: configuration, the virtual module store, the lazily-initialized
// external bundler resource, and the render capabilities. It is created once
// per serving/build session and torn down with it.
type Env struct {
	Config   *config.Config
	Resolver *resolver.Resolver
	Synth    *synth.Synthesizer
	Store    *vmod.Store
	Bundler  *bundler.Lazy[bundler.DevResource]
	Loader   renderer.Loader
	Renderer renderer.Renderer
	Fs       afero.Fs
	Log      logging.Logger
}

func (e *Env) logger() logging.Logger {
	if e.Log == nil {
		return logging.NopLogger{}
	}

	return e.Log
}

// Document is one canonical entry and its derived id. Both are immutable for
// the document's lifetime; documents are created only through the manifest
// and live until it is discarded.
type Document struct {
	entry string
	id    string
	env   *Env
}

// New creates a document for an already-canonical entry.
func New(entry string, env *Env) *Document {
	return &Document{
		entry: entry,
		id:    hashid.Hash(entry, hashid.DefaultLength),
		env:   env,
	}
}

// Entry returns the canonical entry.
func (d *Document) Entry() string { return d.entry }

// ID returns the stable identity naming this document's artifacts.
func (d *Document) ID() string { return d.id }

// ClientArtifact is the production location of the compiled client bundle.
func (d *Document) ClientArtifact() string {
	return filepath.Join(d.env.Config.Paths.ClientDir, d.id+".js")
}

// PageArtifact is the production location of the compiled page module.
func (d *Document) PageArtifact() string {
	return filepath.Join(d.env.Config.Paths.PageDir, d.id+".js")
}

// ClientRoute is the URL the document shell references for the client
// bundle. Development serves the live .tsx pseudo-route; build and
// production serve the compiled artifact.
func (d *Document) ClientRoute() string {
	if d.env.Config.Mode == config.ModeDevelopment {
		return d.env.Config.Routes.Client + "/" + d.id + ".tsx"
	}

	return d.env.Config.Routes.Client + "/" + d.id + ".js"
}

// Assets synthesizes a zero-styles page wrapper and runs a static build over
// it with disk writes disabled, returning the raw output list. The caller
// classifies and persists the outputs; this operation only discovers them.
// Never used in development.
func (d *Document) Assets(ctx context.Context) ([]bundler.Output, error) {
	source, err := d.env.Synth.PageSource(d.entry, nil)
	if err != nil {
		return nil, operr(err, d.entry, opAssets)
	}

	pseudo := d.env.Store.Set(d.env.Synth.WrapperPath(d.entry, synth.KindPage), source)

	output, err := d.build(ctx, pseudo, opAssets)
	if err != nil {
		return nil, err
	}

	return output, nil
}

// ClientOutputs statically builds the hydration client wrapper and returns
// the raw outputs. Build mode only; development uses ClientBundle's live
// transform instead.
func (d *Document) ClientOutputs(ctx context.Context) ([]bundler.Output, error) {
	source, err := d.env.Synth.ClientSource(d.entry)
	if err != nil {
		return nil, operr(err, d.entry, opClientBundle)
	}

	pseudo := d.env.Store.Set(d.env.Synth.WrapperPath(d.entry, synth.KindClient), source)

	return d.build(ctx, pseudo, opClientBundle)
}

// PageOutputs statically builds the page re-export wrapper carrying the
// given stylesheet names and returns the raw outputs.
func (d *Document) PageOutputs(ctx context.Context, styles []string) ([]bundler.Output, error) {
	source, err := d.env.Synth.PageSource(d.entry, styles)
	if err != nil {
		return nil, operr(err, d.entry, opPageModule)
	}

	pseudo := d.env.Store.Set(d.env.Synth.WrapperPath(d.entry, synth.KindPage), source)

	return d.build(ctx, pseudo, opPageModule)
}

// ClientBundle returns the compiled hydration client code for this entry.
// Development transforms the synthesized wrapper live; build statically
// bundles it; production reads the previously written artifact.
func (d *Document) ClientBundle(ctx context.Context) (string, error) {
	switch d.env.Config.Mode {
	case config.ModeProduction:
		return d.readArtifact(d.ClientArtifact(), opClientBundle)

	case config.ModeDevelopment:
		source, err := d.env.Synth.ClientSource(d.entry)
		if err != nil {
			return "", operr(err, d.entry, opClientBundle)
		}

		pseudo := d.env.Store.Set(d.env.Synth.WrapperPath(d.entry, synth.KindClient), source)

		resource, err := d.env.Bundler.Acquire(ctx)
		if err != nil {
			return "", operr(err, d.entry, opClientBundle)
		}

		result, err := resource.Transform(ctx, pseudo)
		if err != nil {
			return "", errors.NewResolutionFailure("TRANSFORM", "transforming client wrapper", err).
				WithEntry(d.entry).WithOp(opClientBundle)
		}
		if result == nil {
			return "", errors.NewResolutionFailure("TRANSFORM_NIL", "bundler could not locate the client wrapper", nil).
				WithEntry(d.entry).WithOp(opClientBundle)
		}

		return result.Code, nil

	default: // config.ModeBuild
		outputs, err := d.ClientOutputs(ctx)
		if err != nil {
			return "", err
		}

		return entryChunk(outputs, d.entry, opClientBundle)
	}
}

// PageModule returns the compiled page re-export module. Build mode bundles
// it (styles discovered through Assets first); production reads the written
// artifact. Development has no page module: the dev resource SSR-loads the
// original entry directly.
func (d *Document) PageModule(ctx context.Context) (string, error) {
	switch d.env.Config.Mode {
	case config.ModeProduction:
		return d.readArtifact(d.PageArtifact(), opPageModule)

	case config.ModeDevelopment:
		return "", errors.NewInternalError("PAGE_MODULE_DEV", "page modules are not built in development", nil).
			WithEntry(d.entry).WithOp(opPageModule)

	default: // config.ModeBuild
		assets, err := d.Assets(ctx)
		if err != nil {
			return "", err
		}

		outputs, err := d.PageOutputs(ctx, artifact.StyleNames(assets))
		if err != nil {
			return "", err
		}

		return entryChunk(outputs, d.entry, opPageModule)
	}
}

// Import loads the page module for rendering: the written artifact in
// production and build, the original entry via live SSR in development.
func (d *Document) Import(ctx context.Context) (*renderer.PageModule, error) {
	specifier := d.PageArtifact()
	if d.env.Config.Mode == config.ModeDevelopment {
		if abs, ok := d.env.Resolver.Absolute(d.entry); ok {
			specifier = abs
		} else {
			specifier = d.entry
		}
	}

	module, err := d.env.Loader.Import(ctx, specifier)
	if err != nil {
		return nil, errors.NewResolutionFailure("IMPORT", "importing page module "+specifier, err).
			WithEntry(d.entry).WithOp(opImport)
	}
	if module == nil || module.Default == nil {
		return nil, errors.NewResolutionFailure("NO_DEFAULT_EXPORT", "page module has no default export", nil).
			WithEntry(d.entry).WithOp(opImport)
	}

	return module, nil
}

// Markup renders the full document HTML for this entry with the given
// props: body and optional head markup from the renderer, the embedded
// props payload, the mode-appropriate client route, and one stylesheet link
// per discovered css file in build/production.
func (d *Document) Markup(ctx context.Context, props map[string]any) (string, error) {
	module, err := d.Import(ctx)
	if err != nil {
		return "", err
	}

	body, err := renderer.Markup(d.env.Renderer, module.Default, props)
	if err != nil {
		return "", errors.NewResolutionFailure("RENDER_BODY", "rendering page body", err).
			WithEntry(d.entry).WithOp(opMarkup)
	}

	head, err := renderer.Markup(d.env.Renderer, module.Head, props)
	if err != nil {
		return "", errors.NewResolutionFailure("RENDER_HEAD", "rendering page head", err).
			WithEntry(d.entry).WithOp(opMarkup)
	}

	var styleRoutes []string
	if d.env.Config.Mode != config.ModeDevelopment {
		for _, name := range module.Styles {
			styleRoutes = append(styleRoutes, d.env.Config.Routes.CSS+"/"+name)
		}
	}

	html, err := d.env.Synth.DocumentHTML(synth.DocumentVars{
		Head:        head,
		Body:        body,
		Props:       props,
		ClientRoute: d.ClientRoute(),
		StyleRoutes: styleRoutes,
	})
	if err != nil {
		return "", operr(err, d.entry, opMarkup)
	}

	return html, nil
}

// build acquires the shared bundler resource and runs a static build with
// disk writes disabled.
func (d *Document) build(ctx context.Context, input, op string) ([]bundler.Output, error) {
	resource, err := d.env.Bundler.Acquire(ctx)
	if err != nil {
		return nil, operr(err, d.entry, op)
	}

	d.env.logger().Debug(ctx, "static build", "entry", d.entry, "input", input, "op", op)

	output, err := resource.Build(ctx, bundler.BuildOptions{
		Input:     input,
		Write:     false,
		Externals: d.env.Config.Development.Externals,
		Format:    "es",
	})
	if err != nil {
		return nil, errors.NewResolutionFailure("BUILD", "bundling "+input, err).
			WithEntry(d.entry).WithOp(op)
	}
	if output == nil || output.Output == nil {
		return nil, errors.NewResolutionFailure("BUILD_NIL", "bundler returned no output for "+input, nil).
			WithEntry(d.entry).WithOp(op)
	}

	return output.Output, nil
}

func (d *Document) readArtifact(path, op string) (string, error) {
	data, err := afero.ReadFile(d.env.Fs, path)
	if err != nil {
		return "", errors.NewArtifactMissing("ARTIFACT_READ", "reading artifact "+path).
			WithEntry(d.entry).WithOp(op)
	}

	return string(data), nil
}

// entryChunk extracts the chunk compiled from the build input.
func entryChunk(outputs []bundler.Output, entry, op string) (string, error) {
	var fallback *bundler.Output
	for i := range outputs {
		if outputs[i].Kind != bundler.KindChunk {
			continue
		}
		if outputs[i].IsEntry {
			return outputs[i].Code, nil
		}
		if fallback == nil {
			fallback = &outputs[i]
		}
	}

	if fallback != nil {
		return fallback.Code, nil
	}

	return "", errors.NewArtifactMissing("NO_CHUNK", "no chunk in build output").
		WithEntry(entry).WithOp(op)
}

// operr tags an already-typed error with entry and operation context, or
// wraps an untyped one as internal.
func operr(err error, entry, op string) error {
	if re, ok := err.(*errors.ReactusError); ok {
		if re.Entry == "" {
			re.Entry = entry
		}
		if re.Op == "" {
			re.Op = op
		}

		return re
	}

	return errors.NewInternalError("UNCLASSIFIED", err.Error(), err).WithEntry(entry).WithOp(op)
}
