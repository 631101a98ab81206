package ensemble

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/signadot/uistream/api"
	"github.com/signadot/uistream/debug"
	"github.com/signadot/uistream/patch"
	"github.com/signadot/uistream/stream"
	"github.com/signadot/uistream/tree"
)

const pipelineBuffer = 64

// pipeline is the single writer of one tree: a named source or the merge.
type pipeline struct {
	run   *Run
	tag   string
	merge bool
	log   *slog.Logger
	hub   *stream.Hub[*tree.Tree]
	in    chan *api.Event

	current atomic.Pointer[tree.Tree]

	// merge state, touched only by the pipeline goroutine
	dec   *stream.Decoder
	fed   int
	first time.Time
}

func newPipeline(r *Run, tag string, merge bool) *pipeline {
	log := r.log.With("source", tag)
	p := &pipeline{
		run:   r,
		tag:   tag,
		merge: merge,
		log:   log,
		hub:   stream.NewHub[*tree.Tree](r.cfg.broadcastTimeout),
		in:    make(chan *api.Event, pipelineBuffer),
	}
	if merge {
		p.dec = p.newDecoder()
	}
	empty := tree.New()
	p.current.Store(empty)
	p.hub.Broadcast(empty)
	return p
}

func (p *pipeline) newDecoder() *stream.Decoder {
	return stream.NewDecoder(
		stream.WithDecoderLogger(p.log),
		stream.WithDecoderMetrics(p.run.cfg.metrics),
	)
}

// send hands ev to the pipeline unless ctx ends first.
func (p *pipeline) send(ctx context.Context, ev *api.Event) {
	select {
	case p.in <- ev:
	case <-ctx.Done():
	}
}

func (p *pipeline) loop(ctx context.Context) error {
	defer p.hub.Close()
	for ev := range p.in {
		if ctx.Err() != nil {
			continue
		}
		if p.merge {
			p.evaluate(ev)
		} else {
			p.generate(ev)
		}
	}
	if p.merge && ctx.Err() == nil {
		p.finishMerge()
	}
	return nil
}

// generate rebuilds the source tree from the complete output of ev.
func (p *pipeline) generate(ev *api.Event) {
	dec := p.newDecoder()
	t := tree.New()
	for _, pt := range dec.Feed([]byte(ev.Output)) {
		t = p.apply(t, pt)
	}
	if pt, ok := dec.Flush(); ok {
		t = p.apply(t, pt)
	}
	p.publish(t)
	p.run.sourceUpdated(p.tag, ev)
}

// evaluate feeds the new part of the merged output to the decoder.
func (p *pipeline) evaluate(ev *api.Event) {
	if p.first.IsZero() {
		p.first = time.Now()
	}
	chunk := ev.Chunk
	if ev.Accumulated != nil {
		acc := *ev.Accumulated
		if len(acc) < p.fed {
			p.log.Debug("accumulated output shrank, ignoring", "fed", p.fed, "len", len(acc))
			return
		}
		chunk = acc[p.fed:]
	}
	p.fed += len(chunk)
	t := p.current.Load()
	for _, pt := range p.dec.Feed([]byte(chunk)) {
		t = p.apply(t, pt)
		p.publish(t)
	}
	if ev.Status == api.StatusComplete {
		p.flush()
	}
}

func (p *pipeline) flush() {
	if pt, ok := p.dec.Flush(); ok {
		p.publish(p.apply(p.current.Load(), pt))
	}
}

func (p *pipeline) finishMerge() {
	p.flush()
	var ms int64
	if !p.first.IsZero() {
		ms = time.Since(p.first).Milliseconds()
	}
	p.run.mergeFinished(ms, !p.first.IsZero())
}

func (p *pipeline) apply(t *tree.Tree, pt patch.Patch) *tree.Tree {
	res := patch.ApplyResult(t, pt)
	p.run.cfg.metrics.Patch(res.Outcome.String())
	if res.Outcome == patch.Unresolved {
		p.log.Debug("dropping patch",
			"code", api.ErrCodeUnresolvedPatchTarget,
			"op", pt.Op,
			"path", pt.Path)
	}
	return res.Tree
}

func (p *pipeline) publish(t *tree.Tree) {
	p.run.publishing(func() {
		p.current.Store(t)
		if debug.Ensemble() {
			debug.Logf("%s: %d nodes\n", p.tag, t.Len())
		}
		p.hub.Broadcast(t)
	})
}
