package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes t as {"root": ..., "nodes": {...}} with nodes in
// insertion order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(`{"root":`)
	if key, ok := t.Root(); ok {
		d, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(d)
	} else {
		buf.WriteString("null")
	}
	buf.WriteString(`,"nodes":{`)
	for i, k := range t.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kd, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		n, _ := t.Node(k)
		nd, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", k, err)
		}
		buf.Write(kd)
		buf.WriteByte(':')
		buf.Write(nd)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the form written by MarshalJSON. The document order
// of "nodes" becomes the insertion order.
func (t *Tree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	out := Tree{}
	for dec.More() {
		field, err := stringToken(dec)
		if err != nil {
			return err
		}
		switch field {
		case "root":
			var root *string
			if err := dec.Decode(&root); err != nil {
				return fmt.Errorf("root: %w", err)
			}
			if root != nil {
				out.root = *root
				out.hasRoot = true
			}
		case "nodes":
			if err := out.decodeNodes(dec); err != nil {
				return err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*t = out
	return nil
}

func (t *Tree) decodeNodes(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("nodes: expected object, got %v", tok)
	}
	t.nodes = map[string]*Node{}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return err
		}
		n := &Node{}
		if err := dec.Decode(n); err != nil {
			return fmt.Errorf("node %q: %w", key, err)
		}
		if _, dup := t.nodes[key]; !dup {
			t.order = append(t.order, key)
		}
		t.nodes[key] = n
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}

// Parse decodes a tree from its JSON form.
func Parse(data []byte) (*Tree, error) {
	t := &Tree{}
	if err := t.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return t, nil
}
