package stream

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/signadot/uistream/api"
	"github.com/signadot/uistream/patch"
	"github.com/signadot/uistream/tree"
)

// State is the lifecycle state of a session.
type State int32

const (
	Running State = iota
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of a session. Tree is set only when State
// is Completed and Err only when State is Failed; a cancelled session
// carries neither.
type Result struct {
	State State
	Tree  *tree.Tree
	Err   error
}

// Session applies one patch stream to one live tree.
type Session struct {
	ID    string
	Scope string

	src Source
	cfg *sessionConfig
	log *slog.Logger
	hub *Hub[*tree.Tree]

	current atomic.Pointer[tree.Tree]
	state   atomic.Int32

	// mu orders snapshot publication against Cancel.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Start opens src and applies its patches in the background. The session
// ends when src is exhausted, a read fails, Cancel is called or ctx is done.
func Start(ctx context.Context, src Source, opts ...Option) *Session {
	cfg := newSessionConfig(opts)
	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}
	log := cfg.log.With("session", id)
	if cfg.scope != "" {
		log = log.With("scope", cfg.scope)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:     id,
		Scope:  cfg.scope,
		src:    src,
		cfg:    cfg,
		log:    log,
		hub:    NewHub[*tree.Tree](cfg.broadcastTimeout),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.current.Store(tree.New())
	if cfg.seed != nil {
		s.current.Store(cfg.seed)
	}
	go s.run(ctx)
	return s
}

// Current returns the last published snapshot.
func (s *Session) Current() *tree.Tree {
	return s.current.Load()
}

// State returns the session's current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Watch returns a watcher receiving every published snapshot, starting
// with the current one. bufferSize <= 0 uses the session's configured
// buffer. Events closes when the session ends.
func (s *Session) Watch(bufferSize int) *Watcher[*tree.Tree] {
	if bufferSize <= 0 {
		bufferSize = s.cfg.watchBuffer
	}
	return s.hub.Watch(bufferSize)
}

func (s *Session) Unwatch(w *Watcher[*tree.Tree]) {
	s.hub.Unwatch(w)
}

// Cancel aborts the session. A publish in flight finishes first; nothing
// is published after Cancel returns and
// no completion or error callback fires. Cancelling a finished session is
// a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.state.CompareAndSwap(int32(Running), int32(Cancelled))
	s.mu.Unlock()
	s.cancel()
}

// Done is closed when the session has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session stops or ctx is done. In the latter case
// the returned Result has the current state and ctx's error.
func (s *Session) Wait(ctx context.Context) Result {
	select {
	case <-s.done:
		return s.result
	case <-ctx.Done():
		return Result{State: s.State(), Err: ctx.Err()}
	}
}

func (s *Session) run(ctx context.Context) {
	start := time.Now()
	defer func() {
		s.cancel()
		s.hub.Close()
		s.cfg.metrics.SessionEnded(s.State().String(), time.Since(start))
		close(s.done)
	}()

	t := s.seed(ctx)
	if !s.publish(t) {
		s.cancelled()
		return
	}

	body, err := s.src.Open(ctx)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	defer body.Close()
	stop := context.AfterFunc(ctx, func() {
		body.Close()
	})
	defer stop()

	dec := NewDecoder(
		WithDecoderLogger(s.log),
		WithDecoderMetrics(s.cfg.metrics),
	)
	buf := make([]byte, s.cfg.chunkSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			for _, p := range dec.Feed(buf[:n]) {
				t = s.apply(t, p)
				if !s.publish(t) {
					s.cancelled()
					return
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			s.fail(ctx, rerr)
			return
		}
	}
	if p, ok := dec.Flush(); ok {
		t = s.apply(t, p)
		if !s.publish(t) {
			s.cancelled()
			return
		}
	}
	s.complete(ctx, t)
}

// seed returns the starting tree: the explicit seed, the persisted tree, or
// the empty tree.
func (s *Session) seed(ctx context.Context) *tree.Tree {
	if s.cfg.seed != nil {
		return s.cfg.seed
	}
	if s.cfg.persister == nil {
		return tree.New()
	}
	t, err := s.cfg.persister.LoadTree(ctx, s.cfg.persistID)
	if err != nil {
		s.log.Warn("loading seed tree", "id", s.cfg.persistID, "error", err)
		return tree.New()
	}
	if t == nil {
		return tree.New()
	}
	s.log.Debug("seeded from store", "id", s.cfg.persistID, "nodes", t.Len())
	return t
}

func (s *Session) apply(t *tree.Tree, p patch.Patch) *tree.Tree {
	res := patch.ApplyResult(t, p)
	s.cfg.metrics.Patch(res.Outcome.String())
	switch res.Outcome {
	case patch.Unresolved:
		s.log.Debug("dropping patch",
			"code", api.ErrCodeUnresolvedPatchTarget,
			"op", p.Op,
			"path", p.Path)
	case patch.Ignored, patch.Invalid:
		s.log.Debug("patch had no effect", "op", p.Op, "path", p.Path, "reason", res.Reason)
	}
	return res.Tree
}

// publish stores t as the current snapshot and broadcasts it. It reports
// false once the session is no longer running. The broadcast holds mu, so
// Cancel waits for it; the hub's broadcast timeout bounds the wait.
func (s *Session) publish(t *tree.Tree) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != Running {
		return false
	}
	s.current.Store(t)
	s.hub.Broadcast(t)
	return true
}

func (s *Session) cancelled() {
	s.mu.Lock()
	s.state.CompareAndSwap(int32(Running), int32(Cancelled))
	s.mu.Unlock()
	s.result = Result{State: Cancelled}
	s.log.Info("session cancelled")
}

func (s *Session) complete(ctx context.Context, t *tree.Tree) {
	s.mu.Lock()
	ok := s.state.CompareAndSwap(int32(Running), int32(Completed))
	s.mu.Unlock()
	if !ok {
		s.cancelled()
		return
	}
	s.result = Result{State: Completed, Tree: t}
	s.log.Debug("session completed", "nodes", t.Len())
	if p := s.cfg.persister; p != nil {
		res, err := p.SaveTree(context.WithoutCancel(ctx), t, s.cfg.persistID)
		switch {
		case err != nil:
			s.log.Error("saving tree", "id", s.cfg.persistID, "error", err)
		case !res.Success:
			s.log.Warn("tree not saved", "id", s.cfg.persistID, "message", res.Message)
		}
	}
	if s.cfg.onComplete != nil {
		s.cfg.onComplete(t)
	}
}

func (s *Session) fail(ctx context.Context, cause error) {
	s.mu.Lock()
	if ctx.Err() != nil {
		// the read failed because the session was torn down
		s.state.CompareAndSwap(int32(Running), int32(Cancelled))
	}
	ok := s.state.CompareAndSwap(int32(Running), int32(Failed))
	s.mu.Unlock()
	if !ok {
		s.cancelled()
		return
	}
	err := api.WrapError(api.ErrCodeNetworkFailure, cause, "session %s: %v", s.ID, cause)
	s.result = Result{State: Failed, Err: err}
	s.log.Error("session failed", "code", api.ErrCodeNetworkFailure, "error", cause)
	if s.cfg.onError != nil {
		s.cfg.onError(err)
	}
}
