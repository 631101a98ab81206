package ensemble

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/signadot/uistream/metrics"
	"github.com/signadot/uistream/stream"
)

type config struct {
	sources          []string
	log              *slog.Logger
	metrics          *metrics.Metrics
	watchBuffer      int
	broadcastTimeout time.Duration
}

// Option configures a Coordinator.
type Option func(*config)

// WithSources names the sources every run starts with. Their trees exist,
// empty, before any event arrives. Sources not listed are added when their
// first event arrives.
func WithSources(tags ...string) Option {
	return func(c *config) { c.sources = slices.Clone(tags) }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *config) { c.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithWatchBuffer sets the Events buffer used by watches that ask for 0.
func WithWatchBuffer(n int) Option {
	return func(c *config) { c.watchBuffer = n }
}

func WithBroadcastTimeout(d time.Duration) Option {
	return func(c *config) { c.broadcastTimeout = d }
}

// Coordinator starts ensemble runs over a Dialer, keeping at most one run
// live at a time.
type Coordinator struct {
	dialer Dialer
	cfg    *config

	mu  sync.Mutex
	cur *Run
}

// NewCoordinator creates a Coordinator that opens event channels with
// dialer.
func NewCoordinator(dialer Dialer, opts ...Option) *Coordinator {
	cfg := &config{
		watchBuffer:      64,
		broadcastTimeout: stream.DefaultBroadcastTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = slog.Default()
	}
	return &Coordinator{dialer: dialer, cfg: cfg}
}

// Start cancels the current run, waits for it to stop, and starts a new run
// for prompt with every tree empty.
func (c *Coordinator) Start(ctx context.Context, prompt string) *Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		c.cur.Cancel()
		<-c.cur.Done()
	}
	r, rctx := newRun(ctx, c.cfg, uuid.NewString(), prompt)
	r.log.Debug("starting ensemble run", "sources", c.cfg.sources)
	c.cur = r
	go r.loop(rctx, c.dialer)
	return r
}

// Current returns the most recent run, or nil.
func (c *Coordinator) Current() *Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Cancel cancels the current run, if any, and waits for it to stop.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		c.cur.Cancel()
		<-c.cur.Done()
	}
}
