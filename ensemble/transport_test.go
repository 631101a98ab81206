package ensemble

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/signadot/uistream/api"
	"github.com/signadot/uistream/stream"
	"github.com/signadot/uistream/tree"
)

func scriptedEvents() []*api.Event {
	return []*api.Event{
		{Type: api.EventStatus, Message: "generating"},
		{Type: api.EventGenerator, Model: "A", Status: api.StatusComplete, Output: cardOutput},
		{Type: api.EventEvaluator, Status: api.StatusStreaming, Chunk: cardOutput},
		{Type: api.EventDone, Result: "ok"},
	}
}

func TestLineStreamFrames(t *testing.T) {
	body := strings.Join([]string{
		`: keep-alive`,
		`event: status`,
		`id: 1`,
		`data: {"type":"status","message":"sse"}`,
		``,
		`{"type":"generator","model":"A","output":"x"}`,
		`data: not json`,
		`retry: 100`,
		`data: [DONE]`,
		`{"type":"done"}`,
	}, "\n")
	es := NewLineStream(io.NopCloser(strings.NewReader(body)), nil)
	var got []api.EventType
	for {
		ev, err := es.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ev.Type)
	}
	want := []api.EventType{api.EventStatus, api.EventGenerator, api.EventDone}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPDialer(t *testing.T) {
	for _, sse := range []bool{false, true} {
		t.Run(fmt.Sprintf("sse=%v", sse), func(t *testing.T) {
			var gotReq Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				flusher := w.(http.Flusher)
				for _, ev := range scriptedEvents() {
					d, _ := json.Marshal(ev)
					if sse {
						fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, d)
					} else {
						fmt.Fprintf(w, "%s\n", d)
					}
					flusher.Flush()
				}
			}))
			defer srv.Close()

			c := NewCoordinator(&HTTPDialer{URL: srv.URL}, WithSources("A", "B"))
			out := wait(t, c.Start(context.Background(), "make a card"))
			if out.State != stream.Completed {
				t.Fatalf("outcome = %+v", out)
			}
			if diff := cmp.Diff(Request{Prompt: "make a card", Sources: []string{"A", "B"}}, gotReq); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
			if !tree.Equal(cardTree(), out.Result.Sources["A"]) || !tree.Equal(cardTree(), out.Result.Merged) {
				t.Errorf("trees mismatch: %+v", out.Result)
			}
		})
	}
}

func TestHTTPDialerStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	out := wait(t, NewCoordinator(&HTTPDialer{URL: srv.URL}).Start(context.Background(), "x"))
	if out.State != stream.Failed || !strings.Contains(out.Err.Error(), "503") {
		t.Errorf("outcome = %+v", out)
	}
}

func TestWebSocketDialer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		var req Request
		if err := ws.ReadJSON(&req); err != nil || req.Prompt != "ws" {
			return
		}
		ws.WriteMessage(websocket.TextMessage, []byte("garbage"))
		for _, ev := range scriptedEvents() {
			if err := ws.WriteJSON(ev); err != nil {
				return
			}
		}
		// wait for the client to hang up
		ws.ReadMessage()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	out := wait(t, NewCoordinator(&WebSocketDialer{URL: url}).Start(context.Background(), "ws"))
	if out.State != stream.Completed {
		t.Fatalf("outcome = %+v", out)
	}
	if !tree.Equal(cardTree(), out.Result.Merged) {
		t.Errorf("merged mismatch:\n%s", tree.Canonical(out.Result.Merged))
	}
	if out.Result.Status["A"] != Complete {
		t.Errorf("status = %v", out.Result.Status)
	}
}
