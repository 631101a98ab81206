package libdiff

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/signadot/uistream/debug"
	"github.com/signadot/uistream/tree"
)

// Kind classifies a diff line.
type Kind int

const (
	Unchanged Kind = iota
	Added
	Removed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Line is one line of a diff. Number is 1-based in the next serialization
// for unchanged and added lines, and in the previous one for removed lines.
type Line struct {
	Number  int    `json:"lineNumber"`
	Content string `json:"content"`
	Kind    Kind   `json:"kind"`
}

// Report is the result of Diff.
type Report struct {
	Lines      []Line          `json:"lines"`
	HasChanges bool            `json:"hasChanges"`
	Added      int             `json:"added"`
	Removed    int             `json:"removed"`
	MergePatch json.RawMessage `json:"mergePatch,omitempty"`
}

// Algorithm selects the line alignment.
type Algorithm int

const (
	Lookahead Algorithm = iota
	Myers
)

type diffOpts struct {
	alg        Algorithm
	mergePatch bool
}

// Option configures Diff.
type Option func(*diffOpts)

func WithAlgorithm(a Algorithm) Option {
	return func(o *diffOpts) { o.alg = a }
}

// WithMergePatch adds an RFC 7386 merge patch to the report.
func WithMergePatch() Option {
	return func(o *diffOpts) { o.mergePatch = true }
}

// Diff compares the canonical serializations of prev and next. A nil prev
// has no lines, so every line of next is added.
func Diff(prev, next *tree.Tree, opts ...Option) *Report {
	o := &diffOpts{}
	for _, opt := range opts {
		opt(o)
	}
	var from []string
	if prev != nil {
		from = tree.Lines(prev)
	}
	r := DiffLines(from, tree.Lines(next), o.alg)
	if o.mergePatch {
		r.MergePatch = mergePatch(prev, next)
	}
	if debug.Diff() {
		debug.Logf("diff: +%d -%d of %d lines\n", r.Added, r.Removed, len(r.Lines))
	}
	return r
}

// DiffLines aligns two line sequences with alg.
func DiffLines(from, to []string, alg Algorithm) *Report {
	var lines []Line
	switch alg {
	case Myers:
		lines = myers(from, to)
	default:
		lines = lookahead(from, to)
	}
	r := &Report{Lines: lines}
	for i := range lines {
		switch lines[i].Kind {
		case Added:
			r.Added++
		case Removed:
			r.Removed++
		}
	}
	r.HasChanges = r.Added+r.Removed > 0
	return r
}

func mergePatch(prev, next *tree.Tree) json.RawMessage {
	from, err := json.Marshal(treeOrEmpty(prev))
	if err != nil {
		return nil
	}
	to, err := json.Marshal(treeOrEmpty(next))
	if err != nil {
		return nil
	}
	d, err := jsonpatch.CreateMergePatch(from, to)
	if err != nil {
		return nil
	}
	return d
}

func treeOrEmpty(t *tree.Tree) *tree.Tree {
	if t == nil {
		return tree.New()
	}
	return t
}
