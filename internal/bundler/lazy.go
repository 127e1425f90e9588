package bundler

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Factory constructs the shared external resource on first use.
type Factory[T any] func(ctx context.Context) (T, error)

// Lazy wraps a factory with single-flight initialization: the external
// dev-server resource is expensive to start and not safe to start twice, so
// concurrent first-use calls must all receive the one instance the first
// caller constructs.
type Lazy[T any] struct {
	factory Factory[T]

	group singleflight.Group
	mu    sync.RWMutex

	resource T
	ready    bool
	closed   bool
}

// NewLazy creates a lazily-initialized holder around factory.
func NewLazy[T any](factory Factory[T]) *Lazy[T] {
	return &Lazy[T]{factory: factory}
}

// Acquire returns the shared resource, constructing it on first use. A
// failed construction is not cached: the next Acquire retries the factory.
func (l *Lazy[T]) Acquire(ctx context.Context) (T, error) {
	l.mu.RLock()
	if l.ready {
		resource := l.resource
		l.mu.RUnlock()

		return resource, nil
	}
	l.mu.RUnlock()

	result, err, _ := l.group.Do("resource", func() (any, error) {
		l.mu.RLock()
		if l.ready {
			resource := l.resource
			l.mu.RUnlock()

			return resource, nil
		}
		l.mu.RUnlock()

		resource, err := l.factory(ctx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.resource = resource
		l.ready = true
		l.closed = false
		l.mu.Unlock()

		return resource, nil
	})
	if err != nil {
		var zero T

		return zero, err
	}

	return result.(T), nil
}

// Initialized reports whether the resource has been constructed.
func (l *Lazy[T]) Initialized() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.ready
}

// Close tears the resource down if it was constructed and implements
// io.Closer. Close is idempotent; a later Acquire re-runs the factory.
func (l *Lazy[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready || l.closed {
		return nil
	}

	l.ready = false
	l.closed = true

	if closer, ok := any(l.resource).(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
