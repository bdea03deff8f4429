// Package session holds the long-lived state of a finroad session: the
// roadmap being viewed and the chat threads, messages and model selection.
// Each container owns its data behind accessors and publishes changes to
// subscribers through a Router.
package session

import (
	"log/slog"
	"sync"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 64

// Router fans change notifications out to subscriber channels.
type Router[T any] struct {
	subscribers []chan T
	bufferSize  int
	mu          sync.RWMutex
	closed      bool
}

// NewRouter creates a router. If bufferSize is 0 or negative,
// DefaultBufferSize is used.
func NewRouter[T any](bufferSize int) *Router[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Router[T]{bufferSize: bufferSize}
}

// Emit publishes a change to all subscribers without blocking. When a
// subscriber's channel is full the change is dropped for that subscriber.
func (r *Router[T]) Emit(change T) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, ch := range r.subscribers {
		select {
		case ch <- change:
		default:
			slog.Warn("session change dropped: subscriber channel full")
		}
	}
}

// Subscribe returns a channel that receives every emitted change. The
// channel is closed by Unsubscribe or Close.
func (r *Router[T]) Subscribe() <-chan T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		ch := make(chan T)
		close(ch)
		return ch
	}

	ch := make(chan T, r.bufferSize)
	r.subscribers = append(r.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Unknown
// channels are ignored.
func (r *Router[T]) Unsubscribe(ch <-chan T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subscribers {
		if sub == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes every subscriber channel. Later Emits are no-ops and later
// Subscribes return closed channels. Close is idempotent.
func (r *Router[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
}
