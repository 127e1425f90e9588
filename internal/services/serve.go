package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/document"
	"github.com/stackpress/reactus/internal/logging"
	"github.com/stackpress/reactus/internal/manifest"
	"github.com/stackpress/reactus/internal/server"
	"github.com/stackpress/reactus/internal/watcher"
)

// ServeService serves previously built artifacts. It loads the persisted
// manifest once at startup and never synthesizes or compiles anything.
type ServeService struct {
	config *config.Config
	env    *document.Env
	log    logging.Logger
}

// NewServeService creates a production serve service.
func NewServeService(cfg *config.Config, env *document.Env, log logging.Logger) *ServeService {
	if log == nil {
		log = logging.NopLogger{}
	}

	return &ServeService{
		config: cfg,
		env:    env,
		log:    log.WithComponent("serve"),
	}
}

// ServeOptions contains the request surface for production serving.
type ServeOptions struct {
	Pages map[string]string
	Props server.PropsFunc
}

// Serve loads the manifest record and serves until ctx is done.
func (s *ServeService) Serve(ctx context.Context, opts ServeOptions) error {
	m := manifest.New(s.env)
	if err := m.Load(s.config.Paths.Manifest); err != nil {
		return err
	}

	s.log.Info(ctx, "manifest loaded", "path", s.config.Paths.Manifest, "entries", m.Size())

	srv := server.New(s.config, m, s.env, server.Options{
		Pages: opts.Pages,
		Props: opts.Props,
	}, s.log)

	return srv.ListenAndServe(ctx)
}

// URL returns the address the service will listen on.
func (s *ServeService) URL() string {
	return fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port)
}

// DevService runs the development loop: live transforms, the file watcher,
// and the reload websocket.
type DevService struct {
	config *config.Config
	env    *document.Env
	log    logging.Logger
}

// NewDevService creates a development serve service.
func NewDevService(cfg *config.Config, env *document.Env, log logging.Logger) *DevService {
	if log == nil {
		log = logging.NopLogger{}
	}

	return &DevService{
		config: cfg,
		env:    env,
		log:    log.WithComponent("dev"),
	}
}

// DevOptions contains options for the development loop.
type DevOptions struct {
	// Entries to pre-register; page routes register their entries on
	// first request regardless.
	Entries []string
	Pages   map[string]string
	Props   server.PropsFunc
	// Debounce for file change bursts. Zero means 100ms.
	Debounce time.Duration
}

// Run serves in development mode until ctx is done.
func (s *DevService) Run(ctx context.Context, opts DevOptions) error {
	m := manifest.New(s.env)
	for _, entry := range opts.Entries {
		if _, err := m.GetOrCreate(entry); err != nil {
			return err
		}
	}
	for _, entry := range opts.Pages {
		if _, err := m.GetOrCreate(entry); err != nil {
			return err
		}
	}

	defer func() {
		_ = s.env.Bundler.Close()
	}()

	if s.config.Development.HotReload {
		debounce := opts.Debounce
		if debounce == 0 {
			debounce = 100 * time.Millisecond
		}

		w, err := watcher.New(m, s.env, debounce, s.log)
		if err != nil {
			return err
		}
		defer func() {
			_ = w.Stop()
		}()

		if err := w.AddRecursive(s.env.Resolver.ProjectRoot()); err != nil {
			return err
		}
		w.Start(ctx)

		s.log.Info(ctx, "watching", "root", s.env.Resolver.ProjectRoot(), "debounce", debounce.String())
	}

	srv := server.New(s.config, m, s.env, server.Options{
		Pages: opts.Pages,
		Props: opts.Props,
	}, s.log)

	return srv.ListenAndServe(ctx)
}
