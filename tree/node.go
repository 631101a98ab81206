package tree

import (
	"maps"
	"slices"
)

// Node is one addressable entry of a Tree.
type Node struct {
	Key      string         `json:"key"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Children []string       `json:"children,omitempty"`
}

// Clone returns a copy of n whose Props map and Children slice are fresh
// at the top level. Nested prop values are shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Props != nil {
		out.Props = maps.Clone(n.Props)
	}
	if n.Children != nil {
		out.Children = slices.Clone(n.Children)
	}
	return &out
}

// Prop returns the property named name when it holds a string.
func (n *Node) Prop(name string) (string, bool) {
	if n == nil || n.Props == nil {
		return "", false
	}
	s, ok := n.Props[name].(string)
	return s, ok
}
