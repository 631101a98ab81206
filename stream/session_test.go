package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/uistream/api"
	"github.com/signadot/uistream/patch"
	"github.com/signadot/uistream/tree"
)

const (
	lineRoot  = `{"op":"set","path":"/root","value":"card1"}`
	lineCard  = `{"op":"set","path":"/nodes/card1","value":{"key":"card1","type":"Card","props":{"title":"Hi"}}}`
	lineTitle = `{"op":"set","path":"/nodes/card1/props/title","value":"Bye"}`
)

func waitResult(t *testing.T, s *Session) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res := s.Wait(ctx)
	if ctx.Err() != nil {
		t.Fatalf("session %s did not stop", s.ID)
	}
	return res
}

// nextSnapshot reads from w until a snapshot with n nodes arrives.
func nextSnapshot(t *testing.T, w *Watcher[*tree.Tree], n int) *tree.Tree {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case tr, ok := <-w.Events:
			if !ok {
				t.Fatalf("watch closed before a snapshot with %d nodes", n)
			}
			if tr.Len() == n {
				return tr
			}
		case <-timeout:
			t.Fatalf("no snapshot with %d nodes", n)
		}
	}
}

func TestSessionCompletes(t *testing.T) {
	body := strings.Join([]string{lineRoot, lineCard, "not json", lineTitle}, "\n") // no trailing newline
	var completed *tree.Tree
	s := Start(context.Background(), ReaderSource{R: strings.NewReader(body)},
		WithChunkSize(7),
		WithOnComplete(func(t *tree.Tree) { completed = t }),
		WithOnError(func(err error) { t.Errorf("unexpected error callback: %v", err) }),
	)
	res := waitResult(t, s)
	if res.State != Completed || res.Err != nil {
		t.Fatalf("result = %+v", res)
	}
	want := patch.ApplyAll(tree.New(), []patch.Patch{
		patch.MustParse(lineRoot), patch.MustParse(lineCard), patch.MustParse(lineTitle),
	})
	if !tree.Equal(want, res.Tree) {
		t.Errorf("final tree mismatch:\n%s", tree.Canonical(res.Tree))
	}
	if completed != res.Tree {
		t.Error("completion callback did not get the final tree")
	}
	if s.Current() != res.Tree {
		t.Error("Current() is not the final tree")
	}
	// cancel after completion is a no-op
	s.Cancel()
	if s.State() != Completed {
		t.Errorf("state after late cancel = %s", s.State())
	}
}

func TestSessionPublishesEachPatch(t *testing.T) {
	pr, pw := io.Pipe()
	s := Start(context.Background(), ReaderSource{R: pr})
	w := s.Watch(16)

	// both lines arrive in one chunk but are published separately
	go fmt.Fprintf(pw, "%s\n%s\n", `{"op":"set","path":"/nodes/a","value":{"type":"T"}}`, `{"op":"set","path":"/nodes/b","value":{"type":"T"}}`)
	var sizes []int
	for tr := range w.Events {
		sizes = append(sizes, tr.Len())
		if tr.Len() == 2 {
			break
		}
	}
	if diff := cmp.Diff([]int{0, 1, 2}, sizes); diff != "" {
		t.Errorf("snapshot sizes mismatch (-want +got):\n%s", diff)
	}
	pw.Close()
	if res := waitResult(t, s); res.State != Completed {
		t.Errorf("state = %s", res.State)
	}
}

func TestSessionCancel(t *testing.T) {
	pr, pw := io.Pipe()
	called := false
	s := Start(context.Background(), ReaderSource{R: pr},
		WithOnComplete(func(*tree.Tree) { called = true }),
		WithOnError(func(error) { called = true }),
	)
	w := s.Watch(8)
	go fmt.Fprintln(pw, lineCard)
	one := nextSnapshot(t, w, 1)

	s.Cancel()
	res := waitResult(t, s)
	if res.State != Cancelled || res.Tree != nil || res.Err != nil {
		t.Errorf("result = %+v, want bare Cancelled", res)
	}
	if s.Current() != one {
		t.Error("last visible tree is not the one-patch snapshot")
	}
	if called {
		t.Error("completion or error callback fired on cancel")
	}
	if _, err := fmt.Fprintln(pw, lineRoot); err == nil {
		t.Error("stream still open after cancel")
	}
}

// Every snapshot a watcher sees is queued by the time Cancel returns, and
// the last one is the current tree.
func TestSessionCancelStopsBroadcasts(t *testing.T) {
	for i := 0; i < 20; i++ {
		pr, pw := io.Pipe()
		s := Start(context.Background(), ReaderSource{R: pr}, WithChunkSize(16))
		w := s.Watch(1024)
		go func() {
			fmt.Fprintln(pw, lineRoot)
			fmt.Fprintln(pw, lineCard)
			for j := 0; j < 200; j++ {
				if _, err := fmt.Fprintf(pw, `{"op":"set","path":"/nodes/card1/props/title","value":"t%d"}`+"\n", j); err != nil {
					return
				}
			}
		}()
		nextSnapshot(t, w, 1)

		s.Cancel()
		queued := len(w.Events)
		last := s.Current()
		waitResult(t, s)

		n := 0
		var got *tree.Tree
		for tr := range w.Events {
			n++
			got = tr
		}
		if n != queued {
			t.Fatalf("round %d: %d snapshots queued at cancel, %d delivered", i, queued, n)
		}
		if n > 0 && got != last {
			t.Fatalf("round %d: last delivered snapshot is not the current tree", i)
		}
		if s.Current() != last {
			t.Fatalf("round %d: current tree changed after cancel", i)
		}
	}
}

func TestSessionParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, _ := io.Pipe()
	s := Start(ctx, ReaderSource{R: pr})
	cancel()
	if res := waitResult(t, s); res.State != Cancelled {
		t.Errorf("state = %s, want cancelled", res.State)
	}
}

type failingReader struct {
	data string
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestSessionNetworkFailure(t *testing.T) {
	cause := errors.New("connection reset")
	var gotErr error
	s := Start(context.Background(),
		ReaderSource{R: &failingReader{data: lineRoot + "\n" + lineCard + "\n", err: cause}},
		WithOnError(func(err error) { gotErr = err }),
	)
	res := waitResult(t, s)
	if res.State != Failed {
		t.Fatalf("state = %s, want failed", res.State)
	}
	if !errors.Is(res.Err, api.ErrNetworkFailure) || !errors.Is(res.Err, cause) {
		t.Errorf("err = %v", res.Err)
	}
	if gotErr != res.Err {
		t.Errorf("error callback got %v", gotErr)
	}
	// last good tree stays visible
	if r, _ := s.Current().Root(); r != "card1" || s.Current().Len() != 1 {
		t.Errorf("current tree lost: %s", tree.Canonical(s.Current()))
	}
}

func TestSessionSeed(t *testing.T) {
	seed := patch.ApplyAll(tree.New(), []patch.Patch{patch.MustParse(lineRoot), patch.MustParse(lineCard)})
	pr, pw := io.Pipe()
	s := Start(context.Background(), ReaderSource{R: pr}, WithSeed(seed))
	w := s.Watch(4)
	if first := <-w.Events; first != seed {
		t.Error("first snapshot is not the seed")
	}
	go func() {
		fmt.Fprintln(pw, lineTitle)
		pw.Close()
	}()
	res := waitResult(t, s)
	n, _ := res.Tree.Node("card1")
	if title, _ := n.Prop("title"); title != "Bye" {
		t.Errorf("title = %q", title)
	}
}

type memPersister struct {
	mu    sync.Mutex
	trees map[string]*tree.Tree
	saves int
}

func (m *memPersister) LoadTree(_ context.Context, id string) (*tree.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trees[id], nil
}

func (m *memPersister) SaveTree(_ context.Context, t *tree.Tree, id string) (SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[id] = t
	m.saves++
	return SaveResult{Success: true}, nil
}

func TestSessionPersister(t *testing.T) {
	seed := patch.ApplyAll(tree.New(), []patch.Patch{patch.MustParse(lineRoot), patch.MustParse(lineCard)})
	p := &memPersister{trees: map[string]*tree.Tree{"page1": seed}}

	s := Start(context.Background(), ReaderSource{R: strings.NewReader(lineTitle + "\n")}, WithPersister(p, "page1"))
	res := waitResult(t, s)
	if res.State != Completed {
		t.Fatalf("state = %s", res.State)
	}
	if p.saves != 1 || p.trees["page1"] != res.Tree {
		t.Errorf("final tree not saved (saves=%d)", p.saves)
	}
	if r, _ := res.Tree.Root(); r != "card1" {
		t.Errorf("seed not loaded, root = %q", r)
	}

	// a failed session saves nothing
	s = Start(context.Background(), ReaderSource{R: &failingReader{err: io.ErrUnexpectedEOF}}, WithPersister(p, "page1"))
	waitResult(t, s)
	if p.saves != 1 {
		t.Errorf("failed session saved (saves=%d)", p.saves)
	}
}

func TestSessionHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		flusher := w.(http.Flusher)
		for _, l := range []string{lineRoot, lineCard} {
			fmt.Fprintln(w, l)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	src := &HTTPSource{URL: srv.URL, Body: map[string]string{"prompt": "a card"}}
	res := waitResult(t, Start(context.Background(), src))
	if res.State != Completed || res.Tree.Len() != 1 {
		t.Errorf("result = %+v", res)
	}

	bad := &HTTPSource{URL: srv.URL} // GET is rejected
	res = waitResult(t, Start(context.Background(), bad))
	if res.State != Failed || !errors.Is(res.Err, api.ErrNetworkFailure) {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(res.Err.Error(), "400") {
		t.Errorf("status missing from %v", res.Err)
	}
}

func TestRunnerSupersedes(t *testing.T) {
	r := NewRunner(WithChunkSize(16))
	pr1, _ := io.Pipe()
	first := r.Start(context.Background(), ReaderSource{R: pr1})

	second := r.Start(context.Background(), ReaderSource{R: strings.NewReader(lineRoot + "\n")})
	select {
	case <-first.Done():
	default:
		t.Fatal("first session still running after a new start")
	}
	if first.State() != Cancelled {
		t.Errorf("first state = %s", first.State())
	}
	if r.Current() != second {
		t.Error("Current() is not the new session")
	}
	if res := waitResult(t, second); res.State != Completed {
		t.Errorf("second state = %s", res.State)
	}
	r.Cancel()
}
