package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Source opens the byte stream a session reads. Closing the returned body
// must unblock a pending Read.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ReaderSource serves an in-process reader. If R is an io.ReadCloser it is
// closed when the session ends or is cancelled.
type ReaderSource struct {
	R io.Reader
}

func (s ReaderSource) Open(context.Context) (io.ReadCloser, error) {
	if rc, ok := s.R.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(s.R), nil
}

// HTTPSource requests a patch stream over HTTP. Body, when non-nil, is sent
// as JSON. A response status outside 2xx is an error.
type HTTPSource struct {
	Client *http.Client
	URL    string
	// Method defaults to POST when Body is set and GET otherwise.
	Method string
	Header http.Header
	Body   any
}

func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	method := s.Method
	var body io.Reader
	if s.Body != nil {
		d, err := json.Marshal(s.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(d)
		if method == "" {
			method = http.MethodPost
		}
	}
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, s.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range s.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s %s: %s: %s", method, s.URL, resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}
