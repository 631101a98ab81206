package stream

import (
	"log/slog"
	"time"

	"github.com/signadot/uistream/metrics"
	"github.com/signadot/uistream/tree"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 32 * 1024

type sessionConfig struct {
	id               string
	scope            string
	seed             *tree.Tree
	persister        Persister
	persistID        string
	log              *slog.Logger
	chunkSize        int
	watchBuffer      int
	broadcastTimeout time.Duration
	onComplete       func(*tree.Tree)
	onError          func(error)
	metrics          *metrics.Metrics
}

// Option configures a Session.
type Option func(*sessionConfig)

// WithID sets the session ID instead of a generated one.
func WithID(id string) Option {
	return func(c *sessionConfig) { c.id = id }
}

// WithScope names what the session is building, such as the page or folder
// a follow-up request modifies. It is attached to the session's logs.
func WithScope(scope string) Option {
	return func(c *sessionConfig) { c.scope = scope }
}

// WithSeed starts the session from t instead of the empty tree. Nodes of t
// stay visible while the new stream arrives.
func WithSeed(t *tree.Tree) Option {
	return func(c *sessionConfig) { c.seed = t }
}

// WithPersister loads the seed from p under id when no explicit seed is
// given, and saves the final tree there on completion.
func WithPersister(p Persister, id string) Option {
	return func(c *sessionConfig) {
		c.persister = p
		c.persistID = id
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *sessionConfig) { c.log = log }
}

func WithChunkSize(n int) Option {
	return func(c *sessionConfig) { c.chunkSize = n }
}

// WithWatchBuffer sets the default Events buffer for Watch(0).
func WithWatchBuffer(n int) Option {
	return func(c *sessionConfig) { c.watchBuffer = n }
}

func WithBroadcastTimeout(d time.Duration) Option {
	return func(c *sessionConfig) { c.broadcastTimeout = d }
}

// WithOnComplete calls fn with the final tree when the session completes.
// It is not called on failure or cancellation.
func WithOnComplete(fn func(*tree.Tree)) Option {
	return func(c *sessionConfig) { c.onComplete = fn }
}

// WithOnError calls fn when the session fails. It is not called on
// cancellation.
func WithOnError(fn func(error)) Option {
	return func(c *sessionConfig) { c.onError = fn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *sessionConfig) { c.metrics = m }
}

func newSessionConfig(opts []Option) *sessionConfig {
	c := &sessionConfig{
		chunkSize:        DefaultChunkSize,
		watchBuffer:      64,
		broadcastTimeout: DefaultBroadcastTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.chunkSize <= 0 {
		c.chunkSize = DefaultChunkSize
	}
	return c
}
