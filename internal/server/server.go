// Package server is the embedding-grade HTTP layer over a manifest.
//
// The server does not own routing policy: the embedding application maps URL
// paths to page entries and supplies a props extractor. What the server owns
// is the artifact surface (client bundles and assets under the configured
// routes), page markup rendering, and, in development, the reload websocket
// and the bundler's own middleware chain as a fallback for module requests.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/afero"

	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/document"
	"github.com/stackpress/reactus/internal/errors"
	"github.com/stackpress/reactus/internal/logging"
	"github.com/stackpress/reactus/internal/manifest"
)

// ReloadPath is the websocket endpoint development clients subscribe to for
// module invalidation events.
const ReloadPath = "/__reactus"

// PropsFunc extracts the page props for a request. A nil PropsFunc renders
// every page with empty props.
type PropsFunc func(*http.Request) map[string]any

// Options configures the request surface of a server.
type Options struct {
	// Pages maps URL paths to page entries, in any spelling the resolver
	// accepts.
	Pages map[string]string
	// Props extracts per-request page props.
	Props PropsFunc
}

// Server serves one manifest in its configured mode.
type Server struct {
	cfg      *config.Config
	manifest *manifest.Manifest
	env      *document.Env
	opts     Options
	log      logging.Logger
}

// New creates a server over the manifest's environment.
func New(cfg *config.Config, m *manifest.Manifest, env *document.Env, opts Options, log logging.Logger) *Server {
	if log == nil {
		log = logging.NopLogger{}
	}

	return &Server{
		cfg:      cfg,
		manifest: m,
		env:      env,
		opts:     opts,
		log:      log.WithComponent("server"),
	}
}

// Handler builds the request handler for the configured mode.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(s.cfg.Routes.Client+"/", s.handleClient)

	assetFs := afero.NewHttpFs(afero.NewBasePathFs(s.env.Fs, s.cfg.Paths.AssetDir))
	mux.Handle(s.cfg.Routes.CSS+"/", http.StripPrefix(s.cfg.Routes.CSS+"/", http.FileServer(assetFs)))

	for route, entry := range s.opts.Pages {
		mux.HandleFunc(route, s.pageHandler(entry))
	}

	if s.cfg.Mode == config.ModeDevelopment {
		if s.cfg.Development.HotReload {
			mux.HandleFunc(ReloadPath, s.handleReload)
		}

		return s.withDevFallback(mux)
	}

	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info(ctx, "listening", "addr", addr, "mode", string(s.cfg.Mode))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Render writes the full document markup for entry to w.
func (s *Server) Render(w http.ResponseWriter, r *http.Request, entry string) {
	doc, err := s.manifest.GetOrCreate(entry)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	props := map[string]any{}
	if s.opts.Props != nil {
		props = s.opts.Props(r)
	}

	html, err := doc.Markup(r.Context(), props)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) pageHandler(entry string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Render(w, r, entry)
	}
}

// handleClient serves the client bundle named by id under the client route:
// the live transform in development, the compiled artifact otherwise.
func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, s.cfg.Routes.Client+"/")
	ext := path.Ext(name)
	if ext != ".js" && ext != ".tsx" {
		http.NotFound(w, r)

		return
	}

	doc := s.manifest.Find(strings.TrimSuffix(name, ext))
	if doc == nil {
		http.NotFound(w, r)

		return
	}

	code, err := doc.ClientBundle(r.Context())
	if err != nil {
		s.fail(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = io.WriteString(w, code)
}

// handleReload upgrades to a websocket and forwards virtual module change
// events until the client disconnects.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	events := s.env.Store.Watch()
	defer s.env.Store.UnWatch(events)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			message := reloadMessage{
				Type:    "update",
				Path:    event.PseudoPath,
				Version: event.Version,
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, message)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

type reloadMessage struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Version int    `json:"version"`
}

// withDevFallback routes unmatched requests through the external bundler's
// middleware chain so module and source requests resolve against the live
// dev resource. A page registered at "/" makes the mux match every path, so
// the catch-all pattern only counts as a hit for the root path itself.
func (s *Server) withDevFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		if pattern != "" && (pattern != "/" || r.URL.Path == "/") {
			mux.ServeHTTP(w, r)

			return
		}

		resource, err := s.env.Bundler.Acquire(r.Context())
		if err == nil {
			if middlewares := resource.Middlewares(); middlewares != nil {
				middlewares.ServeHTTP(w, r)

				return
			}
		}

		http.NotFound(w, r)
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	if errors.IsArtifactMissing(err) || errors.IsInvalidEntry(err) {
		code = http.StatusNotFound
	}

	s.log.Error(r.Context(), err, "request failed", "path", r.URL.Path, "status", code)
	http.Error(w, http.StatusText(code), code)
}
