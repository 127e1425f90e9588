// Package vmod is the in-memory store for synthesized wrapper modules.
//
// Wrapper sources never touch disk: they are registered here under a
// pseudo-path carrying the virtual protocol tag, and the external bundler's
// resolver special-cases that tag to read from the store instead of the
// file system. Overwriting a path with changed content notifies subscribers
// so a dev server can invalidate stale compiled output.
package vmod

import (
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Protocol is the pseudo-protocol tag prefixed to every stored path.
const Protocol = "virtual:"

// Module is one stored wrapper source.
type Module struct {
	Path    string
	Source  string
	Hash    uint64
	Version int
	ModTime time.Time
}

// Event notifies subscribers that a module's content changed.
type Event struct {
	PseudoPath string
	Version    int
	Timestamp  time.Time
}

// Store maps pseudo-paths to synthesized source text. It is created once per
// serving/build session and injected into every consumer; it is not a
// package-level singleton. Entries live for the session, there is no
// eviction.
type Store struct {
	modules  map[string]*Module
	mutex    sync.RWMutex
	watchers []chan Event
}

// NewStore creates an empty virtual module store.
func NewStore() *Store {
	return &Store{
		modules: make(map[string]*Module),
	}
}

// Set registers source under path and returns the pseudo-path the bundler
// should be handed. Writes are last-write-wins. A write that changes content
// notifies every subscriber; rewriting identical content is a no-op for
// subscribers so unchanged re-synthesis never triggers spurious reloads.
func (s *Store) Set(path, source string) string {
	pseudo := PseudoPath(path)
	sum := xxhash.Sum64String(source)

	s.mutex.Lock()

	existing, exists := s.modules[pseudo]
	if exists && existing.Hash == sum {
		s.mutex.Unlock()
		return pseudo
	}

	version := 1
	if exists {
		version = existing.Version + 1
	}

	now := time.Now()
	s.modules[pseudo] = &Module{
		Path:    path,
		Source:  source,
		Hash:    sum,
		Version: version,
		ModTime: now,
	}

	changed := exists
	watchers := s.watchers
	s.mutex.Unlock()

	if changed {
		event := Event{PseudoPath: pseudo, Version: version, Timestamp: now}
		for _, watcher := range watchers {
			select {
			case watcher <- event:
			default:
				// Skip if channel is full
			}
		}
	}

	return pseudo
}

// Touch bumps a module's version and notifies subscribers without changing
// its source. Used when the file a wrapper imports changed on disk: the
// wrapper text is the same but everything compiled from it is stale.
func (s *Store) Touch(pseudoPath string) bool {
	s.mutex.Lock()

	module, exists := s.modules[pseudoPath]
	if !exists {
		s.mutex.Unlock()
		return false
	}

	module.Version++
	module.ModTime = time.Now()

	event := Event{PseudoPath: pseudoPath, Version: module.Version, Timestamp: module.ModTime}
	watchers := s.watchers
	s.mutex.Unlock()

	for _, watcher := range watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}

	return true
}

// Get returns the source registered under pseudoPath.
func (s *Store) Get(pseudoPath string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	module, exists := s.modules[pseudoPath]
	if !exists {
		return "", false
	}

	return module.Source, true
}

// Lookup returns the full module record registered under pseudoPath.
func (s *Store) Lookup(pseudoPath string) (*Module, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	module, exists := s.modules[pseudoPath]
	if !exists {
		return nil, false
	}

	copied := *module
	return &copied, true
}

// Paths returns every registered pseudo-path.
func (s *Store) Paths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	paths := make([]string, 0, len(s.modules))
	for pseudo := range s.modules {
		paths = append(paths, pseudo)
	}

	return paths
}

// Count returns the number of registered modules.
func (s *Store) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.modules)
}

// Watch returns a channel that receives an event whenever a registered
// module's content changes.
func (s *Store) Watch() <-chan Event {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch := make(chan Event, 64)
	s.watchers = append(s.watchers, ch)

	return ch
}

// UnWatch removes a watcher channel and closes it.
func (s *Store) UnWatch(ch <-chan Event) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, watcher := range s.watchers {
		if watcher == ch {
			close(watcher)
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)

			break
		}
	}
}

// PseudoPath prefixes path with the virtual protocol tag. Already-tagged
// paths pass through unchanged.
func PseudoPath(path string) string {
	if IsPseudo(path) {
		return path
	}

	return Protocol + path
}

// IsPseudo reports whether path carries the virtual protocol tag.
func IsPseudo(path string) bool {
	return strings.HasPrefix(path, Protocol)
}

// Strip removes the virtual protocol tag from path, if present.
func Strip(path string) string {
	return strings.TrimPrefix(path, Protocol)
}
