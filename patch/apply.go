package patch

import (
	"encoding/json"

	"github.com/signadot/uistream/debug"
	"github.com/signadot/uistream/tree"
)

// Outcome says what Apply did with a patch.
type Outcome int

const (
	// Applied means the patch produced a new snapshot.
	Applied Outcome = iota
	// Ignored means the path or op is not one the applier acts on, or the
	// addressed location does not exist.
	Ignored
	// Unresolved means a subpath patch named a node that does not exist yet.
	Unresolved
	// Invalid means the value does not fit the addressed location.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Unresolved:
		return "unresolved"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the outcome of ApplyResult. Tree is always set; it is the input
// tree unless Outcome is Applied.
type Result struct {
	Tree    *tree.Tree
	Outcome Outcome
	Reason  string
}

// Apply returns the snapshot obtained by applying p to t. It never fails:
// a patch that cannot be applied returns t.
func Apply(t *tree.Tree, p Patch) *tree.Tree {
	return ApplyResult(t, p).Tree
}

// ApplyAll applies ps in order.
func ApplyAll(t *tree.Tree, ps []Patch) *tree.Tree {
	for _, p := range ps {
		t = Apply(t, p)
	}
	return t
}

// ApplyResult is Apply with a report of what happened.
func ApplyResult(t *tree.Tree, p Patch) Result {
	if t == nil {
		t = tree.New()
	}
	res := apply(t, p)
	if debug.Apply() {
		debug.Logf("apply %s: %s %s\n", p, res.Outcome, res.Reason)
	}
	return res
}

func apply(t *tree.Tree, p Patch) Result {
	if !p.Op.Known() {
		return skip(t, Ignored, "unknown op")
	}
	target := ParsePath(p.Path)
	switch target.Kind {
	case RootTarget:
		return applyRoot(t, p)
	case NodeTarget:
		return applyNode(t, p, target.Key)
	case SubpathTarget:
		return applySubpath(t, p, target)
	default:
		return skip(t, Ignored, "unknown path")
	}
}

func skip(t *tree.Tree, o Outcome, reason string) Result {
	return Result{Tree: t, Outcome: o, Reason: reason}
}

func applied(t *tree.Tree) Result {
	return Result{Tree: t, Outcome: Applied}
}

func applyRoot(t *tree.Tree, p Patch) Result {
	if p.Op == Remove {
		return skip(t, Ignored, "remove of root")
	}
	var key *string
	if err := json.Unmarshal(p.Value, &key); err != nil || key == nil {
		return skip(t, Invalid, "root value is not a string")
	}
	return applied(t.WithRoot(*key))
}

func applyNode(t *tree.Tree, p Patch, key string) Result {
	if p.Op == Remove {
		if _, ok := t.Node(key); !ok {
			return skip(t, Ignored, "no such node")
		}
		return applied(t.WithoutNode(key))
	}
	n, ok := decodeNode(p.Value)
	if !ok {
		return skip(t, Invalid, "node value is not an object")
	}
	if n.Key == "" {
		n.Key = key
	}
	return applied(t.WithNode(key, n))
}

func decodeNode(v json.RawMessage) (*tree.Node, bool) {
	if len(v) == 0 || v[0] != '{' {
		return nil, false
	}
	n := &tree.Node{}
	if err := json.Unmarshal(v, n); err != nil {
		return nil, false
	}
	return n, true
}

// decodeValue decodes a patch value; an absent value is null.
func decodeValue(v json.RawMessage) (any, bool) {
	if len(v) == 0 {
		return nil, true
	}
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return nil, false
	}
	return x, true
}

func applySubpath(t *tree.Tree, p Patch, target Target) Result {
	n, ok := t.Node(target.Key)
	if !ok {
		return skip(t, Unresolved, "node "+target.Key+" does not exist")
	}
	var (
		out    *tree.Node
		reason string
	)
	if p.Op == Remove {
		out, reason = removeField(n, target.Segments)
	} else {
		v, ok := decodeValue(p.Value)
		if !ok {
			return skip(t, Invalid, "value is not JSON")
		}
		out, reason = setField(n, target.Segments, v, p.Op == Add)
	}
	if out == nil {
		o := Ignored
		if reason == reasonBadValue {
			o = Invalid
		}
		return skip(t, o, reason)
	}
	return applied(t.WithNode(target.Key, out))
}
