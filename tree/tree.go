package tree

import (
	"maps"
	"slices"
)

// Tree is an immutable snapshot of a UI tree. The zero value and a nil
// *Tree are both the empty tree (no root, no nodes).
type Tree struct {
	root    string
	hasRoot bool
	nodes   map[string]*Node
	order   []string
}

// New returns the empty tree.
func New() *Tree {
	return &Tree{}
}

// Root returns the root key. ok is false while no root has been set.
func (t *Tree) Root() (key string, ok bool) {
	if t == nil {
		return "", false
	}
	return t.root, t.hasRoot
}

// Node returns the node stored under key.
func (t *Tree) Node(key string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.nodes[key]
	return n, ok
}

// RootNode returns the node the root key refers to. It reports false when
// there is no root or the root dangles (its node has not arrived yet).
func (t *Tree) RootNode() (*Node, bool) {
	key, ok := t.Root()
	if !ok {
		return nil, false
	}
	return t.Node(key)
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Keys returns node keys in insertion order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.order)
}

// Each calls fn for every node in insertion order until fn returns false.
func (t *Tree) Each(fn func(*Node) bool) {
	if t == nil {
		return
	}
	for _, k := range t.order {
		if !fn(t.nodes[k]) {
			return
		}
	}
}

// WithRoot returns a snapshot whose root is key.
func (t *Tree) WithRoot(key string) *Tree {
	out := t.shallow()
	out.root = key
	out.hasRoot = true
	return out
}

// WithoutRoot returns a snapshot with no root.
func (t *Tree) WithoutRoot() *Tree {
	out := t.shallow()
	out.root = ""
	out.hasRoot = false
	return out
}

// WithNode returns a snapshot in which key maps to n. A new key is appended
// to the insertion order; replacing an existing key keeps its position.
func (t *Tree) WithNode(key string, n *Node) *Tree {
	out := t.shallow()
	_, exists := out.nodes[key]
	out.nodes = cloneNodes(out.nodes, 1)
	out.nodes[key] = n
	if !exists {
		out.order = append(slices.Clone(out.order), key)
	}
	return out
}

// WithoutNode returns a snapshot without key. If key is absent t itself is
// returned.
func (t *Tree) WithoutNode(key string) *Tree {
	if _, ok := t.Node(key); !ok {
		if t == nil {
			return New()
		}
		return t
	}
	out := t.shallow()
	out.nodes = cloneNodes(out.nodes, 0)
	delete(out.nodes, key)
	out.order = slices.DeleteFunc(slices.Clone(out.order), func(k string) bool {
		return k == key
	})
	return out
}

func (t *Tree) shallow() *Tree {
	if t == nil {
		return &Tree{}
	}
	out := *t
	return &out
}

func cloneNodes(m map[string]*Node, extra int) map[string]*Node {
	if m == nil {
		return make(map[string]*Node, extra)
	}
	out := make(map[string]*Node, len(m)+extra)
	maps.Copy(out, m)
	return out
}
