// Package services implements the business logic behind the CLI commands:
// session assembly, batch building, production serving, the development
// loop, and project initialization.
package services

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/stackpress/reactus/internal/bundler"
	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/document"
	"github.com/stackpress/reactus/internal/errors"
	"github.com/stackpress/reactus/internal/logging"
	"github.com/stackpress/reactus/internal/renderer"
	"github.com/stackpress/reactus/internal/resolver"
	"github.com/stackpress/reactus/internal/synth"
	"github.com/stackpress/reactus/internal/vmod"
)

// Runtime carries the external capabilities the orchestrator consumes but
// does not implement: the bundler resource factory and the render side.
type Runtime struct {
	Bundler  func(context.Context) (bundler.DevResource, error)
	Loader   renderer.Loader
	Renderer renderer.Renderer
	Fs       afero.Fs
	Log      logging.Logger
}

// NewEnv assembles the shared document environment for one session. A
// missing bundler factory fails at first acquisition, not here: production
// serving reads artifacts and never touches the bundler.
func NewEnv(cfg *config.Config, rt Runtime) (*document.Env, error) {
	factory := rt.Bundler
	if factory == nil {
		factory = func(context.Context) (bundler.DevResource, error) {
			return nil, errors.NewConfigError("NO_BUNDLER", "no external bundler resource configured")
		}
	}

	fs := rt.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	root, err := filepath.Abs(cfg.Cwd)
	if err != nil {
		return nil, errors.NewConfigError("BAD_CWD", "resolving project root "+cfg.Cwd)
	}

	templates, err := loadTemplates(fs, cfg.Templates)
	if err != nil {
		return nil, err
	}

	res := resolver.New(root)

	return &document.Env{
		Config:   cfg,
		Resolver: res,
		Synth:    synth.New(res, templates),
		Store:    vmod.NewStore(),
		Bundler:  bundler.NewLazy(factory),
		Loader:   rt.Loader,
		Renderer: rt.Renderer,
		Fs:       fs,
		Log:      rt.Log,
	}, nil
}

// loadTemplates reads the configured wrapper template override files. Unset
// fields fall through to the package defaults.
func loadTemplates(fs afero.Fs, tc config.TemplatesConfig) (synth.Templates, error) {
	var templates synth.Templates

	read := func(path string) (string, error) {
		if path == "" {
			return "", nil
		}

		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return "", errors.NewConfigError("TEMPLATE_READ", "reading template override "+path)
		}

		return string(data), nil
	}

	var err error
	if templates.Client, err = read(tc.Client); err != nil {
		return templates, err
	}
	if templates.Page, err = read(tc.Page); err != nil {
		return templates, err
	}
	if templates.Document, err = read(tc.Document); err != nil {
		return templates, err
	}

	return templates, nil
}
