package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/signadot/uistream/selection"
	"github.com/signadot/uistream/stream"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Session   SessionConfig   `yaml:"session"`
	Ensemble  EnsembleConfig  `yaml:"ensemble"`
	Selection SelectionConfig `yaml:"selection"`
	Store     StoreConfig     `yaml:"store"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text, json or auto (text on a terminal).
	Format string `yaml:"format"`
}

type SessionConfig struct {
	ChunkSize        int    `yaml:"chunkSize"`
	WatchBuffer      int    `yaml:"watchBuffer"`
	BroadcastTimeout string `yaml:"broadcastTimeout"`
}

type EnsembleConfig struct {
	URL string `yaml:"url"`
	// Transport is http or websocket.
	Transport string   `yaml:"transport"`
	Sources   []string `yaml:"sources"`
}

type SelectionConfig struct {
	Rules []RuleConfig `yaml:"rules"`
}

// RuleConfig is an expression rule placed ahead of the root fallback.
type RuleConfig struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

type StoreConfig struct {
	// Path is a SQLite file; empty disables persistence.
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set.
	Addr string `yaml:"addr"`
}

// Load reads the file at path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown
// fields are errors. A document that is empty, null or only comments
// yields Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc != nil {
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "auto"},
		Session: SessionConfig{
			ChunkSize:        stream.DefaultChunkSize,
			WatchBuffer:      64,
			BroadcastTimeout: stream.DefaultBroadcastTimeout.String(),
		},
		Ensemble: EnsembleConfig{Transport: "http"},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Session.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("session.chunkSize: must not be negative"))
	}
	if c.Session.WatchBuffer < 0 {
		errs = append(errs, fmt.Errorf("session.watchBuffer: must not be negative"))
	}
	if _, err := c.Session.Timeout(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Ensemble.Transport) {
	case "", "http", "websocket", "ws":
	default:
		errs = append(errs, fmt.Errorf("ensemble.transport: unknown transport %q", c.Ensemble.Transport))
	}
	seen := map[string]bool{}
	for i, r := range c.Selection.Rules {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("selection.rules[%d]: missing name", i))
		} else if seen[r.Name] {
			errs = append(errs, fmt.Errorf("selection.rules[%d]: duplicate name %q", i, r.Name))
		}
		seen[r.Name] = true
		if r.Expr == "" {
			errs = append(errs, fmt.Errorf("selection.rules[%d]: missing expr", i))
		}
	}
	return errors.Join(errs...)
}

// Timeout returns the parsed broadcast timeout, zero when unset.
func (s SessionConfig) Timeout() (time.Duration, error) {
	if s.BroadcastTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.BroadcastTimeout)
	if err != nil {
		return 0, fmt.Errorf("session.broadcastTimeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("session.broadcastTimeout: must not be negative")
	}
	return d, nil
}

// Options converts the session settings to stream options.
func (s SessionConfig) Options() []stream.Option {
	var opts []stream.Option
	if s.ChunkSize > 0 {
		opts = append(opts, stream.WithChunkSize(s.ChunkSize))
	}
	if s.WatchBuffer > 0 {
		opts = append(opts, stream.WithWatchBuffer(s.WatchBuffer))
	}
	if d, err := s.Timeout(); err == nil && d > 0 {
		opts = append(opts, stream.WithBroadcastTimeout(d))
	}
	return opts
}

// Matcher returns the default matcher with the configured expression
// rules inserted ahead of the root fallback, in file order.
func (s SelectionConfig) Matcher() (*selection.Matcher, error) {
	m := selection.Default()
	for _, rc := range s.Rules {
		r, err := selection.NewExprRule(rc.Name, rc.Expr)
		if err != nil {
			return nil, err
		}
		m.InsertBefore(selection.RootRule{}.Name(), r)
	}
	return m, nil
}
