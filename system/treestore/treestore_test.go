package treestore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signadot/uistream/stream"
	"github.com/signadot/uistream/tree"
)

func sample(title string) *tree.Tree {
	return tree.New().
		WithRoot("card").
		WithNode("card", &tree.Node{Key: "card", Type: "Card", Props: map[string]any{"title": title}, Children: []string{"b"}}).
		WithNode("b", &tree.Node{Key: "b", Type: "Button"})
}

func testPersister(t *testing.T, p stream.Persister) {
	t.Helper()
	ctx := context.Background()

	got, err := p.LoadTree(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("load missing: %v, %v", got, err)
	}

	res, err := p.SaveTree(ctx, sample("Hi"), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("save failed: %s", res.Message)
	}
	got, err = p.LoadTree(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if !tree.Equal(sample("Hi"), got) {
		t.Errorf("loaded tree differs: %v", tree.Lines(got))
	}
	if keys := got.Keys(); len(keys) != 2 || keys[0] != "card" {
		t.Errorf("insertion order lost: %v", keys)
	}

	// overwrite
	if _, err := p.SaveTree(ctx, sample("Bye"), "t1"); err != nil {
		t.Fatal(err)
	}
	got, err = p.LoadTree(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	n, _ := got.Node("card")
	if v, _ := n.Prop("title"); v != "Bye" {
		t.Errorf("expected overwritten title, got %v", v)
	}

	res, err = p.SaveTree(ctx, sample("x"), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("save with empty id succeeded")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	testPersister(t, m)
	if m.Len() != 1 {
		t.Errorf("expected 1 tree, got %d", m.Len())
	}
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "trees.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testPersister(t, s)

	if _, err := s.SaveTree(ctx, tree.New(), "empty"); err != nil {
		t.Fatal(err)
	}
	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	byID := map[string]Entry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	if e := byID["t1"]; e.Root != "card" || e.Nodes != 2 {
		t.Errorf("t1 entry = %+v", e)
	}
	if e := byID["empty"]; e.Root != "" || e.Nodes != 0 {
		t.Errorf("empty entry = %+v", e)
	}

	ok, err := s.Delete(ctx, "t1")
	if err != nil || !ok {
		t.Fatalf("delete: %v, %v", ok, err)
	}
	ok, err = s.Delete(ctx, "t1")
	if err != nil || ok {
		t.Fatalf("second delete: %v, %v", ok, err)
	}
}

func TestSQLiteListOrder(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "trees.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	// Fractions whose shortest forms sort the wrong way as text.
	for _, c := range []struct {
		id string
		at time.Duration
	}{
		{"a", 120 * time.Millisecond},
		{"b", 100 * time.Millisecond},
		{"c", 0},
		{"d", 123456789 * time.Nanosecond},
	} {
		s.now = func() time.Time { return base.Add(c.at) }
		if _, err := s.SaveTree(ctx, sample(c.id), c.id); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.ID)
	}
	if want := []string{"d", "a", "b", "c"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", got, want)
	}
	if !entries[0].UpdatedAt.Equal(base.Add(123456789 * time.Nanosecond)) {
		t.Errorf("updated = %v", entries[0].UpdatedAt)
	}
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trees.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveTree(ctx, sample("Hi"), "keep"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s, err = Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.LoadTree(ctx, "keep")
	if err != nil {
		t.Fatal(err)
	}
	if !tree.Equal(sample("Hi"), got) {
		t.Errorf("tree not persisted: %s", strings.Join(tree.Lines(got), "\n"))
	}
}

func TestSessionSavesToStore(t *testing.T) {
	m := NewMemory()
	src := stream.ReaderSource{R: strings.NewReader(
		`{"op":"set","path":"/root","value":"a"}` + "\n" +
			`{"op":"set","path":"/nodes/a","value":{"type":"Text"}}` + "\n")}
	s := stream.Start(context.Background(), src, stream.WithPersister(m, "doc"))
	res := s.Wait(context.Background())
	if res.State != stream.Completed {
		t.Fatalf("state = %v, err = %v", res.State, res.Err)
	}
	got, err := m.LoadTree(context.Background(), "doc")
	if err != nil {
		t.Fatal(err)
	}
	if !tree.Equal(res.Tree, got) {
		t.Error("saved tree differs from result")
	}
}
