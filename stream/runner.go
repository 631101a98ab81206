package stream

import (
	"context"
	"sync"
)

// Runner owns the session behind one displayed tree. Starting a session
// cancels the previous one and waits for it to stop first, so the tree
// never has two writers.
type Runner struct {
	mu   sync.Mutex
	opts []Option
	cur  *Session
}

// NewRunner creates a Runner whose sessions get opts before any passed to
// Start.
func NewRunner(opts ...Option) *Runner {
	return &Runner{opts: opts}
}

// Start supersedes the current session with a new one reading src.
func (r *Runner) Start(ctx context.Context, src Source, opts ...Option) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil {
		r.cur.Cancel()
		<-r.cur.Done()
	}
	all := make([]Option, 0, len(r.opts)+len(opts))
	all = append(all, r.opts...)
	all = append(all, opts...)
	r.cur = Start(ctx, src, all...)
	return r.cur
}

// Current returns the most recently started session, or nil.
func (r *Runner) Current() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

// Cancel cancels the current session, if any, and waits for it to stop.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil {
		r.cur.Cancel()
		<-r.cur.Done()
	}
}
