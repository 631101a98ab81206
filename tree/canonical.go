package tree

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Canonical returns the deterministic text form of t used for diffing:
// two-space indented JSON with object keys sorted at every level. Node
// insertion order does not affect the output.
func Canonical(t *Tree) []byte {
	doc := map[string]any{
		"root":  nil,
		"nodes": map[string]any{},
	}
	if key, ok := t.Root(); ok {
		doc["root"] = key
	}
	nodes := doc["nodes"].(map[string]any)
	if t != nil {
		for _, k := range t.order {
			nodes[k] = nodeDoc(t.nodes[k])
		}
	}
	buf := bytes.NewBuffer(nil)
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		// only reachable with prop values json cannot represent
		return []byte("{}\n")
	}
	return buf.Bytes()
}

// Lines returns Canonical(t) split into lines without terminators.
func Lines(t *Tree) []string {
	s := strings.TrimSuffix(string(Canonical(t)), "\n")
	return strings.Split(s, "\n")
}

func nodeDoc(n *Node) any {
	if n == nil {
		return nil
	}
	m := map[string]any{
		"key":  n.Key,
		"type": n.Type,
	}
	if n.Props != nil {
		m["props"] = n.Props
	}
	if n.Children != nil {
		m["children"] = n.Children
	}
	return m
}
