package ensemble

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/signadot/uistream/api"
)

// WebSocketDialer sends the request as the first text frame and then reads
// one JSON event per frame. A normal close ends the stream.
type WebSocketDialer struct {
	Dialer *websocket.Dialer
	URL    string
	Header http.Header
	Log    *slog.Logger
}

func (d *WebSocketDialer) Dial(ctx context.Context, req Request) (EventStream, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", d.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending request: %w", err)
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	ws := &wsStream{conn: conn, log: log}
	ws.stop = context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return ws, nil
}

type wsStream struct {
	conn *websocket.Conn
	log  *slog.Logger
	stop func() bool
}

func (s *wsStream) Next(ctx context.Context) (*api.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		typ, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		if typ != websocket.TextMessage {
			continue
		}
		ev, err := api.ParseEvent(data)
		if err != nil {
			s.log.Debug("skipping undecodable frame", "error", err)
			continue
		}
		return ev, nil
	}
}

func (s *wsStream) Close() error {
	s.stop()
	// the peer may already be gone
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
