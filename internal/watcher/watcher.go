// Package watcher invalidates synthesized wrappers when their source entry
// changes on disk.
//
// Development mode only: the watcher maps a changed file back to the
// registered documents wrapping it and bumps their wrapper modules'
// versions in the virtual store. The store's own change notification then
// drives the reload signal, so the watcher never talks to the dev server
// directly.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stackpress/reactus/internal/document"
	"github.com/stackpress/reactus/internal/logging"
	"github.com/stackpress/reactus/internal/manifest"
	"github.com/stackpress/reactus/internal/synth"
	"github.com/stackpress/reactus/internal/vmod"
)

// EntryWatcher watches project source files and bumps the wrapper modules
// of affected documents, with rapid change bursts debounced into one
// invalidation.
type EntryWatcher struct {
	watcher  *fsnotify.Watcher
	manifest *manifest.Manifest
	env      *document.Env
	delay    time.Duration
	log      logging.Logger

	mutex   sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// New creates an entry watcher over the manifest's environment.
func New(m *manifest.Manifest, env *document.Env, debounce time.Duration, log logging.Logger) (*EntryWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logging.NopLogger{}
	}

	return &EntryWatcher{
		watcher:  watcher,
		manifest: m,
		env:      env,
		delay:    debounce,
		log:      log.WithComponent("watcher"),
		pending:  make(map[string]struct{}),
	}, nil
}

// AddRecursive watches root and every subdirectory.
func (w *EntryWatcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}

		return nil
	})
}

// Start runs the watch loop until ctx is done.
func (w *EntryWatcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop closes the underlying watcher.
func (w *EntryWatcher) Stop() error {
	w.mutex.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mutex.Unlock()

	return w.watcher.Close()
}

func (w *EntryWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.enqueue(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn(ctx, err, "watch error")
		}
	}
}

// enqueue records a changed path and (re)arms the debounce timer.
func (w *EntryWatcher) enqueue(path string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *EntryWatcher) flush() {
	w.mutex.Lock()
	changed := w.pending
	w.pending = make(map[string]struct{})
	w.mutex.Unlock()

	for path := range changed {
		w.invalidate(path)
	}
}

// invalidate bumps the wrapper modules of every document whose entry
// resolves to path. Wrapper text never depends on the wrapped entry's
// content, so the registered sources stay as they are; only the version
// moves.
func (w *EntryWatcher) invalidate(path string) {
	ctx := context.Background()

	for _, doc := range w.manifest.Documents() {
		abs, ok := w.env.Resolver.Absolute(doc.Entry())
		if !ok || abs != filepath.Clean(path) {
			continue
		}

		w.log.Debug(ctx, "entry changed", "entry", doc.Entry(), "path", path)

		w.bump(w.env.Synth.WrapperPath(doc.Entry(), synth.KindClient))
		w.bump(w.env.Synth.WrapperPath(doc.Entry(), synth.KindPage))
	}
}

// bump forces a store notification for an already-registered wrapper: the
// wrapped entry's content changed, so everything compiled from the wrapper
// is stale. A wrapper that was never registered has nothing compiled and
// nothing stale; Touch skips it.
func (w *EntryWatcher) bump(path string) {
	w.env.Store.Touch(vmod.PseudoPath(path))
}
