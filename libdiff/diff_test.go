package libdiff

import (
	"bytes"
	"strings"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/go-cmp/cmp"
	"github.com/signadot/uistream/tree"
)

func titled(title string) *tree.Tree {
	return tree.New().WithRoot("c").WithNode("c", &tree.Node{
		Key:   "c",
		Type:  "Card",
		Props: map[string]any{"title": title},
	})
}

func TestDiffSameTree(t *testing.T) {
	for _, alg := range []Algorithm{Lookahead, Myers} {
		tr := titled("Hi")
		r := Diff(tr, tr, WithAlgorithm(alg))
		if r.HasChanges || r.Added != 0 || r.Removed != 0 {
			t.Errorf("alg %d: unexpected changes: %+v", alg, r)
		}
		want := tree.Lines(tr)
		if len(r.Lines) != len(want) {
			t.Fatalf("alg %d: expected %d lines, got %d", alg, len(want), len(r.Lines))
		}
		for i, l := range r.Lines {
			if l.Kind != Unchanged || l.Number != i+1 || l.Content != want[i] {
				t.Errorf("alg %d: line %d = %+v", alg, i, l)
			}
		}
	}
}

func TestDiffIgnoresInsertionOrder(t *testing.T) {
	a := tree.New().
		WithNode("x", &tree.Node{Key: "x", Type: "Text"}).
		WithNode("y", &tree.Node{Key: "y", Type: "Text"})
	b := tree.New().
		WithNode("y", &tree.Node{Key: "y", Type: "Text"}).
		WithNode("x", &tree.Node{Key: "x", Type: "Text"})
	if r := Diff(a, b); r.HasChanges {
		t.Errorf("reordered nodes reported as changes: %+v", r.Lines)
	}
}

func TestDiffPropChange(t *testing.T) {
	r := Diff(titled("Hi"), titled("Bye"))
	if !r.HasChanges || r.Added != 1 || r.Removed != 1 {
		t.Fatalf("unexpected counts: %+v", r)
	}
	var changed []Line
	for _, l := range r.Lines {
		if l.Kind != Unchanged {
			changed = append(changed, l)
		}
	}
	want := []Line{
		{Number: 6, Content: `        "title": "Hi"`, Kind: Removed},
		{Number: 6, Content: `        "title": "Bye"`, Kind: Added},
	}
	if diff := cmp.Diff(want, changed); diff != "" {
		t.Errorf("changed lines mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffFromNil(t *testing.T) {
	next := titled("Hi")
	r := Diff(nil, next)
	if r.Added != len(tree.Lines(next)) || r.Removed != 0 {
		t.Errorf("expected all lines added, got +%d -%d", r.Added, r.Removed)
	}
}

func TestLookahead(t *testing.T) {
	tests := []struct {
		name     string
		from, to []string
		want     []Line
	}{
		{
			name: "insertion",
			from: []string{"a", "b", "c"},
			to:   []string{"a", "x", "b", "c"},
			want: []Line{
				{1, "a", Unchanged},
				{2, "x", Added},
				{3, "b", Unchanged},
				{4, "c", Unchanged},
			},
		},
		{
			name: "deletion",
			from: []string{"a", "b", "c"},
			to:   []string{"a", "c"},
			want: []Line{
				{1, "a", Unchanged},
				{2, "b", Removed},
				{2, "c", Unchanged},
			},
		},
		{
			name: "replacement",
			from: []string{"a", "b", "c"},
			to:   []string{"a", "x", "c"},
			want: []Line{
				{1, "a", Unchanged},
				{2, "b", Removed},
				{2, "x", Added},
				{3, "c", Unchanged},
			},
		},
		{
			name: "tie goes to insertion",
			from: []string{"a", "b", "c"},
			to:   []string{"c", "b"},
			want: []Line{
				{1, "a", Removed},
				{1, "c", Added},
				{2, "b", Unchanged},
				{3, "c", Removed},
			},
		},
		{
			name: "tails",
			from: []string{"a", "b"},
			to:   []string{"a", "b", "c", "d"},
			want: []Line{
				{1, "a", Unchanged},
				{2, "b", Unchanged},
				{3, "c", Added},
				{4, "d", Added},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DiffLines(tt.from, tt.to, Lookahead)
			if diff := cmp.Diff(tt.want, r.Lines); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMyers(t *testing.T) {
	r := DiffLines([]string{"a", "b", "c"}, []string{"a", "x", "b", "c"}, Myers)
	want := []Line{
		{1, "a", Unchanged},
		{2, "x", Added},
		{3, "b", Unchanged},
		{4, "c", Unchanged},
	}
	if diff := cmp.Diff(want, r.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}

	r = DiffLines(nil, []string{"a", "b"}, Myers)
	if r.Added != 2 || r.Removed != 0 {
		t.Errorf("expected +2 -0, got +%d -%d", r.Added, r.Removed)
	}
	r = DiffLines([]string{"a", "b"}, nil, Myers)
	if r.Added != 0 || r.Removed != 2 {
		t.Errorf("expected +0 -2, got +%d -%d", r.Added, r.Removed)
	}
}

func TestMergePatch(t *testing.T) {
	r := Diff(titled("Hi"), titled("Bye"), WithMergePatch())
	want := []byte(`{"nodes":{"c":{"props":{"title":"Bye"}}}}`)
	if !jsonpatch.Equal(want, r.MergePatch) {
		t.Errorf("merge patch = %s", r.MergePatch)
	}
	if r := Diff(titled("Hi"), titled("Hi")); r.MergePatch != nil {
		t.Errorf("merge patch without option: %s", r.MergePatch)
	}
}

func TestRender(t *testing.T) {
	r := DiffLines([]string{"a", "b"}, []string{"a", "c"}, Lookahead)
	buf := bytes.NewBuffer(nil)
	if err := Render(buf, r, false); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{"  a", "- b", "+ c", ""}, "\n")
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Render(buf, r, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected color escapes in %q", buf.String())
	}
}
