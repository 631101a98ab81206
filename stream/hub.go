package stream

import (
	"sync"
	"time"
)

// DefaultBroadcastTimeout is the default timeout for sending a value to a
// watcher. A watcher that does not read within this time is failed.
const DefaultBroadcastTimeout = 5 * time.Second

// DefaultWatchBuffer is the Events buffer size used when a caller asks for
// less than one.
const DefaultWatchBuffer = 1

// Hub fans values out to watchers. It remembers the last value so that a
// new watcher starts from the current state instead of waiting for the next
// change.
//
// Broadcast and Close must be called from a single writer goroutine. Watch,
// Unwatch and the accessors are safe for concurrent use.
type Hub[T any] struct {
	mu               sync.RWMutex
	watchers         map[*Watcher[T]]struct{}
	last             T
	hasLast          bool
	closed           bool
	broadcastTimeout time.Duration
}

// Watcher receives the values broadcast by a Hub.
// If the watcher can't keep up (Events blocks past the broadcast timeout),
// the watch is failed and the Failed channel is closed. Events is closed
// when the hub closes.
type Watcher[T any] struct {
	Events chan T
	Failed chan struct{}

	gone     chan struct{}
	failOnce sync.Once
	goneOnce sync.Once
}

// NewHub creates a Hub. A non-positive timeout means
// DefaultBroadcastTimeout.
func NewHub[T any](timeout time.Duration) *Hub[T] {
	if timeout <= 0 {
		timeout = DefaultBroadcastTimeout
	}
	return &Hub[T]{
		watchers:         make(map[*Watcher[T]]struct{}),
		broadcastTimeout: timeout,
	}
}

// Watch registers a watcher whose Events channel holds bufferSize values.
// If the hub has a value, it is delivered immediately. Watching a closed
// hub yields the last value followed by a closed channel.
func (h *Hub[T]) Watch(bufferSize int) *Watcher[T] {
	if bufferSize < 1 {
		bufferSize = DefaultWatchBuffer
	}
	w := &Watcher[T]{
		Events: make(chan T, bufferSize),
		Failed: make(chan struct{}),
		gone:   make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasLast {
		w.Events <- h.last
	}
	if h.closed {
		close(w.Events)
		return w
	}
	h.watchers[w] = struct{}{}
	return w
}

// Unwatch removes w. No value is sent to w afterwards; a Broadcast already
// waiting on w gives up.
func (h *Hub[T]) Unwatch(w *Watcher[T]) {
	w.goneOnce.Do(func() {
		close(w.gone)
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers, w)
}

// Broadcast records v as the last value and sends it to every watcher.
//
// If a watcher's channel blocks for longer than the broadcast timeout, the
// watch is failed (Failed is closed) and the watcher is removed. Slow
// consumers are told they fell behind rather than silently missing values.
func (h *Hub[T]) Broadcast(v T) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.last = v
	h.hasLast = true
	targets := make([]*Watcher[T], 0, len(h.watchers))
	for w := range h.watchers {
		targets = append(targets, w)
	}
	h.mu.Unlock()

	var failed []*Watcher[T]
	for _, w := range targets {
		select {
		case w.Events <- v:
			continue
		default:
		}
		timer := time.NewTimer(h.broadcastTimeout)
		select {
		case w.Events <- v:
		case <-w.gone:
		case <-timer.C:
			w.failOnce.Do(func() {
				close(w.Failed)
			})
			failed = append(failed, w)
		}
		timer.Stop()
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, w := range failed {
			delete(h.watchers, w)
		}
		h.mu.Unlock()
	}
}

// Close closes the Events channel of every watcher. Later broadcasts are
// dropped.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for w := range h.watchers {
		close(w.Events)
		delete(h.watchers, w)
	}
}

// Last returns the most recently broadcast value.
func (h *Hub[T]) Last() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.hasLast
}

// WatcherCount returns the number of active watchers.
func (h *Hub[T]) WatcherCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// IsFailed reports whether the watch was failed for being too slow.
func (w *Watcher[T]) IsFailed() bool {
	select {
	case <-w.Failed:
		return true
	default:
		return false
	}
}
