package ensemble

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/signadot/uistream/api"
	"github.com/signadot/uistream/debug"
	"github.com/signadot/uistream/stream"
)

// Request starts an ensemble generation.
type Request struct {
	Prompt  string   `json:"prompt"`
	Sources []string `json:"sources,omitempty"`
}

// EventStream yields the events of one run. Next returns io.EOF when the
// channel ends.
type EventStream interface {
	Next(ctx context.Context) (*api.Event, error)
	Close() error
}

// Dialer opens the event channel for a request.
type Dialer interface {
	Dial(ctx context.Context, req Request) (EventStream, error)
}

// HTTPDialer posts the request as JSON and reads the response as
// newline-delimited JSON events or as server-sent events whose data lines
// hold JSON events.
type HTTPDialer struct {
	Client *http.Client
	URL    string
	Header http.Header
	Log    *slog.Logger
}

func (d *HTTPDialer) Dial(ctx context.Context, req Request) (EventStream, error) {
	h := d.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if h.Get("Accept") == "" {
		h.Set("Accept", "text/event-stream, application/x-ndjson")
	}
	src := &stream.HTTPSource{
		Client: d.Client,
		URL:    d.URL,
		Method: http.MethodPost,
		Header: h,
		Body:   req,
	}
	body, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	return NewLineStream(body, d.Log), nil
}

// NewLineStream reads events from r, one per line. Lines may be bare JSON
// objects or server-sent event fields; only data fields are decoded.
// Lines that do not decode are logged and skipped.
func NewLineStream(r io.ReadCloser, log *slog.Logger) EventStream {
	if log == nil {
		log = slog.Default()
	}
	return &lineStream{body: r, r: bufio.NewReader(r), log: log}
}

type lineStream struct {
	body io.ReadCloser
	r    *bufio.Reader
	log  *slog.Logger
}

func (s *lineStream) Next(ctx context.Context) (*api.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := s.r.ReadBytes('\n')
		if len(line) > 0 {
			if ev := s.frame(line); ev != nil {
				return ev, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *lineStream) frame(line []byte) *api.Event {
	line = bytes.TrimSpace(line)
	switch {
	case len(line) == 0, line[0] == ':':
		return nil
	case bytes.HasPrefix(line, []byte("data:")):
		line = bytes.TrimSpace(line[len("data:"):])
	case line[0] != '{':
		// other event-stream fields: event, id, retry
		return nil
	}
	if len(line) == 0 || bytes.Equal(line, []byte("[DONE]")) {
		return nil
	}
	ev, err := api.ParseEvent(line)
	if err != nil {
		s.log.Debug("skipping undecodable event", "error", err)
		return nil
	}
	if debug.Ensemble() {
		debug.Logf("event %s model=%q status=%q\n", ev.Type, ev.Model, ev.Status)
	}
	return ev
}

func (s *lineStream) Close() error {
	return s.body.Close()
}

// ChanDialer serves events from C. Closing C ends the stream.
type ChanDialer struct {
	C <-chan *api.Event
}

func (d ChanDialer) Dial(context.Context, Request) (EventStream, error) {
	return chanStream{c: d.C}, nil
}

type chanStream struct {
	c <-chan *api.Event
}

func (s chanStream) Next(ctx context.Context) (*api.Event, error) {
	select {
	case ev, ok := <-s.c:
		if !ok {
			return nil, io.EOF
		}
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (chanStream) Close() error { return nil }
