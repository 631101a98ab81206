package ensemble

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signadot/uistream/api"
	"github.com/signadot/uistream/debug"
	"github.com/signadot/uistream/stream"
	"github.com/signadot/uistream/tree"
	"golang.org/x/sync/errgroup"
)

// MergedTag labels the merge pipeline in logs.
const MergedTag = "merged"

// Timing is the timing of a finished run in milliseconds.
type Timing struct {
	PerSourceMs map[string]int64 `json:"perSourceMs"`
	MergeMs     int64            `json:"mergeMs"`
	TotalMs     int64            `json:"totalMs"`
}

// Result is what a completed run produced.
type Result struct {
	ID      string                 `json:"id"`
	Sources map[string]*tree.Tree  `json:"sources"`
	Merged  *tree.Tree             `json:"merged"`
	Status  map[string]SourceState `json:"status"`
	Timing  Timing                 `json:"timing"`
	Usage   *api.Usage             `json:"usage,omitempty"`
	// Output is the final result text of the done event.
	Output string `json:"output,omitempty"`
}

// Outcome is the terminal state of a run. Result is set only when State is
// stream.Completed and Err only when it is stream.Failed.
type Outcome struct {
	State  stream.State
	Result *Result
	Err    error
}

// Run is one ensemble generation.
type Run struct {
	ID string

	cfg    *config
	prompt string
	log    *slog.Logger
	start  time.Time

	// pubMu orders tree publication against Cancel.
	pubMu  sync.RWMutex
	state  atomic.Int32
	cancel context.CancelFunc

	mu      sync.RWMutex
	sources map[string]*pipeline
	order   []string
	merged  *pipeline

	evaluated atomic.Bool

	metaMu  sync.Mutex
	meta    *Metadata
	metaHub *stream.Hub[*Metadata]

	// set by the demux goroutine before done closes
	doneEvent *api.Event

	done    chan struct{}
	outcome Outcome
}

func newRun(ctx context.Context, cfg *config, id, prompt string) (*Run, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:      id,
		cfg:     cfg,
		prompt:  prompt,
		log:     cfg.log.With("run", id),
		start:   time.Now(),
		cancel:  cancel,
		sources: map[string]*pipeline{},
		metaHub: stream.NewHub[*Metadata](cfg.broadcastTimeout),
		done:    make(chan struct{}),
	}
	r.meta = &Metadata{RunID: id, Sources: map[string]SourceMeta{}, Merge: Pending}
	r.merged = newPipeline(r, MergedTag, true)
	for _, tag := range cfg.sources {
		r.addSource(tag)
	}
	r.metaHub.Broadcast(r.meta.clone())
	return r, ctx
}

// addSource registers a pipeline for tag. The caller starts its loop.
func (r *Run) addSource(tag string) *pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.sources[tag]; ok {
		return p
	}
	p := newPipeline(r, tag, false)
	r.sources[tag] = p
	r.order = append(r.order, tag)
	r.metaMu.Lock()
	r.meta.Sources[tag] = SourceMeta{State: Pending}
	r.metaMu.Unlock()
	return p
}

// Source returns the current tree of the named source.
func (r *Run) Source(tag string) (*tree.Tree, bool) {
	r.mu.RLock()
	p, ok := r.sources[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return p.current.Load(), true
}

// Sources returns the known source tags in the order they appeared.
func (r *Run) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Merged returns the current merged tree.
func (r *Run) Merged() *tree.Tree {
	return r.merged.current.Load()
}

// Displayed returns the tree the primary view shows: the merged tree once
// any evaluator output has arrived, otherwise the selected source's tree.
func (r *Run) Displayed(selected string) *tree.Tree {
	if r.evaluated.Load() {
		return r.Merged()
	}
	t, ok := r.Source(selected)
	if !ok {
		return tree.New()
	}
	return t
}

// WatchSource watches the named source's tree. It returns nil for a tag
// the run does not know.
func (r *Run) WatchSource(tag string, bufferSize int) *stream.Watcher[*tree.Tree] {
	r.mu.RLock()
	p, ok := r.sources[tag]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return p.hub.Watch(r.bufferSize(bufferSize))
}

// WatchMerged watches the merged tree.
func (r *Run) WatchMerged(bufferSize int) *stream.Watcher[*tree.Tree] {
	return r.merged.hub.Watch(r.bufferSize(bufferSize))
}

// WatchMetadata watches the run's aggregate progress.
func (r *Run) WatchMetadata(bufferSize int) *stream.Watcher[*Metadata] {
	return r.metaHub.Watch(r.bufferSize(bufferSize))
}

// Metadata returns a copy of the current metadata.
func (r *Run) Metadata() *Metadata {
	r.metaMu.Lock()
	defer r.metaMu.Unlock()
	return r.meta.clone()
}

func (r *Run) bufferSize(n int) int {
	if n <= 0 {
		return r.cfg.watchBuffer
	}
	return n
}

// State returns the run's current state.
func (r *Run) State() stream.State {
	return stream.State(r.state.Load())
}

// Cancel aborts the run. A publish in flight finishes first; no tree is
// published after Cancel returns.
func (r *Run) Cancel() {
	r.pubMu.Lock()
	r.state.CompareAndSwap(int32(stream.Running), int32(stream.Cancelled))
	r.pubMu.Unlock()
	r.cancel()
}

// Done is closed when the run has stopped and every pipeline has exited.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run stops or ctx is done.
func (r *Run) Wait(ctx context.Context) Outcome {
	select {
	case <-r.done:
		return r.outcome
	case <-ctx.Done():
		return Outcome{State: r.State(), Err: ctx.Err()}
	}
}

// publishing runs fn if the run is still live. Cancel waits for fn to
// return.
func (r *Run) publishing(fn func()) {
	r.pubMu.RLock()
	defer r.pubMu.RUnlock()
	if r.State() != stream.Running {
		return
	}
	fn()
}

func (r *Run) updateMeta(fn func(m *Metadata)) {
	r.metaMu.Lock()
	defer r.metaMu.Unlock()
	fn(r.meta)
	r.metaHub.Broadcast(r.meta.clone())
}

func (r *Run) sourceUpdated(tag string, ev *api.Event) {
	ms := time.Since(r.start).Milliseconds()
	if ev.DurationMs != nil {
		ms = *ev.DurationMs
	}
	state := Streaming
	if ev.Status == "" || ev.Status == api.StatusComplete {
		state = Complete
	}
	r.updateMeta(func(m *Metadata) {
		sm := m.Sources[tag]
		sm.State = state
		sm.DurationMs = ms
		if ev.Usage != nil {
			if u, ok := ev.Usage.Sources[tag]; ok {
				sm.Usage = &u
			}
		}
		m.Sources[tag] = sm
	})
}

func (r *Run) mergeFinished(ms int64, started bool) {
	if !started {
		return
	}
	r.updateMeta(func(m *Metadata) {
		m.Merge = Complete
		m.MergeMs = ms
	})
}

func (r *Run) loop(ctx context.Context, dialer Dialer) {
	defer close(r.done)
	defer r.cancel()
	defer r.metaHub.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.merged.loop(gctx)
	})
	r.mu.RLock()
	for _, p := range r.sources {
		g.Go(func() error {
			return p.loop(gctx)
		})
	}
	r.mu.RUnlock()
	g.Go(func() error {
		defer r.closePipelines()
		es, err := dialer.Dial(gctx, Request{Prompt: r.prompt, Sources: r.cfg.sources})
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return api.WrapError(api.ErrCodeNetworkFailure, err, "opening ensemble stream: %v", err)
		}
		defer es.Close()
		return r.demux(gctx, es, g)
	})
	err := g.Wait()
	r.finish(ctx, err)
}

func (r *Run) closePipelines() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	close(r.merged.in)
	for _, p := range r.sources {
		close(p.in)
	}
}

func (r *Run) demux(ctx context.Context, es EventStream, g *errgroup.Group) error {
	for {
		ev, err := es.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return api.NewError(api.ErrCodeProtocol, "event stream ended before done")
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return api.WrapError(api.ErrCodeNetworkFailure, err, "reading ensemble stream: %v", err)
		}
		r.cfg.metrics.EnsembleEvent(string(ev.Type))
		if debug.Ensemble() {
			debug.Logf("run %s: %s event model=%q\n", r.ID, ev.Type, ev.Model)
		}

		switch ev.Type {
		case api.EventStatus:
			r.updateMeta(func(m *Metadata) { m.Status = ev.Message })
		case api.EventGenerator:
			if ev.Model == "" {
				r.log.Debug("generator event without model")
				continue
			}
			p := r.sourcePipeline(ctx, g, ev.Model)
			p.send(ctx, ev)
		case api.EventEvaluator:
			if !r.evaluated.Swap(true) {
				r.updateMeta(func(m *Metadata) { m.Merge = Streaming })
			}
			r.merged.send(ctx, ev)
		case api.EventDone:
			r.doneEvent = ev
			if !r.evaluated.Load() && ev.Result != "" {
				// the evaluator did not stream; the done result is the merge
				r.evaluated.Store(true)
				res := ev.Result
				r.merged.send(ctx, &api.Event{
					Type:        api.EventEvaluator,
					Status:      api.StatusComplete,
					Accumulated: &res,
				})
			}
			return nil
		case api.EventError:
			if ev.Model != "" {
				return api.NewError(api.ErrCodeEnsembleSourceError, "source "+ev.Model+": "+ev.Message)
			}
			return api.NewError(api.ErrCodeEnsembleSourceError, ev.Message)
		default:
			r.log.Debug("ignoring event", "type", ev.Type)
		}
	}
}

// sourcePipeline returns the pipeline for tag, starting one for a source
// that was not configured.
func (r *Run) sourcePipeline(ctx context.Context, g *errgroup.Group, tag string) *pipeline {
	r.mu.RLock()
	p, ok := r.sources[tag]
	r.mu.RUnlock()
	if ok {
		return p
	}
	p = r.addSource(tag)
	g.Go(func() error {
		return p.loop(ctx)
	})
	r.updateMeta(func(*Metadata) {})
	return p
}

func (r *Run) finish(ctx context.Context, err error) {
	r.pubMu.Lock()
	switch {
	case r.State() == stream.Cancelled:
	case ctx.Err() != nil:
		r.state.Store(int32(stream.Cancelled))
	case err != nil:
		r.state.Store(int32(stream.Failed))
	default:
		r.state.Store(int32(stream.Completed))
	}
	state := r.State()
	r.pubMu.Unlock()

	defer func() {
		r.cfg.metrics.EnsembleEnded(state.String())
	}()
	switch state {
	case stream.Cancelled:
		r.log.Info("ensemble run cancelled")
		r.outcome = Outcome{State: stream.Cancelled}
	case stream.Failed:
		r.log.Error("ensemble run failed", "error", err)
		r.outcome = Outcome{State: stream.Failed, Err: err}
	default:
		res := r.result()
		r.updateMeta(func(m *Metadata) {
			m.Done = true
			m.TotalMs = res.Timing.TotalMs
			m.Usage = res.Usage
		})
		r.log.Debug("ensemble run completed", "sources", len(res.Sources), "merged", res.Merged.Len())
		r.outcome = Outcome{State: stream.Completed, Result: res}
	}
}

func (r *Run) result() *Result {
	meta := r.Metadata()
	res := &Result{
		ID:      r.ID,
		Sources: map[string]*tree.Tree{},
		Merged:  r.Merged(),
		Status:  map[string]SourceState{},
		Timing: Timing{
			PerSourceMs: map[string]int64{},
			MergeMs:     meta.MergeMs,
			TotalMs:     time.Since(r.start).Milliseconds(),
		},
	}
	for _, tag := range r.Sources() {
		t, _ := r.Source(tag)
		res.Sources[tag] = t
		sm := meta.Sources[tag]
		res.Status[tag] = sm.State
		if sm.State != Pending {
			res.Timing.PerSourceMs[tag] = sm.DurationMs
		}
	}
	if ev := r.doneEvent; ev != nil {
		res.Usage = ev.Usage
		res.Output = ev.Result
		if tm := ev.Timing; tm != nil {
			maps.Copy(res.Timing.PerSourceMs, tm.PerSourceMs)
			if tm.MergeMs > 0 {
				res.Timing.MergeMs = tm.MergeMs
			}
			if tm.TotalMs > 0 {
				res.Timing.TotalMs = tm.TotalMs
			}
		}
	}
	return res
}
