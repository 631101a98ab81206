package patch

import (
	"maps"
	"slices"
	"strconv"

	"github.com/signadot/uistream/tree"
)

const (
	reasonBadField = "no such node field"
	reasonBadValue = "value does not fit field"
	reasonNoPath   = "subpath does not resolve"
)

// setField returns a copy of n with v stored at segs. On failure it returns
// nil and a reason. insert selects insertion rather than replacement for
// array indexes.
func setField(n *tree.Node, segs []string, v any, insert bool) (*tree.Node, string) {
	out := n.Clone()
	rest := segs[1:]
	switch segs[0] {
	case "type", "key":
		s, ok := v.(string)
		if len(rest) != 0 {
			return nil, reasonNoPath
		}
		if !ok {
			return nil, reasonBadValue
		}
		if segs[0] == "type" {
			out.Type = s
		} else {
			out.Key = s
		}
	case "props":
		if len(rest) == 0 {
			m, ok := v.(map[string]any)
			if !ok && v != nil {
				return nil, reasonBadValue
			}
			out.Props = m
			break
		}
		var props any = map[string]any(nil)
		if n.Props != nil {
			props = n.Props
		}
		nv, ok := setIn(props, rest, v, insert)
		if !ok {
			return nil, reasonNoPath
		}
		out.Props = nv.(map[string]any)
	case "children":
		if len(rest) == 0 {
			cs, ok := stringList(v)
			if !ok {
				return nil, reasonBadValue
			}
			out.Children = cs
			break
		}
		if len(rest) != 1 {
			return nil, reasonNoPath
		}
		s, ok := v.(string)
		if !ok {
			return nil, reasonBadValue
		}
		i, ok := index(rest[0], len(n.Children), true)
		if !ok {
			return nil, reasonNoPath
		}
		if i == len(n.Children) || insert {
			out.Children = slices.Insert(out.Children, i, s)
		} else {
			out.Children[i] = s
		}
	default:
		return nil, reasonBadField
	}
	return out, ""
}

// removeField returns a copy of n without the field at segs.
func removeField(n *tree.Node, segs []string) (*tree.Node, string) {
	out := n.Clone()
	rest := segs[1:]
	switch segs[0] {
	case "type", "key":
		if len(rest) != 0 {
			return nil, reasonNoPath
		}
		if segs[0] == "type" {
			out.Type = ""
		} else {
			out.Key = ""
		}
	case "props":
		if len(rest) == 0 {
			out.Props = nil
			break
		}
		if n.Props == nil {
			return nil, reasonNoPath
		}
		nv, ok := removeIn(n.Props, rest)
		if !ok {
			return nil, reasonNoPath
		}
		out.Props = nv.(map[string]any)
	case "children":
		if len(rest) == 0 {
			out.Children = nil
			break
		}
		if len(rest) != 1 {
			return nil, reasonNoPath
		}
		i, ok := index(rest[0], len(n.Children), false)
		if !ok {
			return nil, reasonNoPath
		}
		out.Children = slices.Delete(out.Children, i, i+1)
	default:
		return nil, reasonBadField
	}
	return out, ""
}

// setIn stores v at segs below cur, copying every container on the way.
// Missing or scalar intermediates become objects.
func setIn(cur any, segs []string, v any, insert bool) (any, bool) {
	seg, last := segs[0], len(segs) == 1
	switch c := cur.(type) {
	case map[string]any:
		out := make(map[string]any, len(c)+1)
		maps.Copy(out, c)
		if last {
			out[seg] = v
			return out, true
		}
		nv, ok := setIn(c[seg], segs[1:], v, insert)
		if !ok {
			return nil, false
		}
		out[seg] = nv
		return out, true
	case []any:
		i, ok := index(seg, len(c), true)
		if !ok {
			return nil, false
		}
		if last {
			if i == len(c) || insert {
				return slices.Insert(slices.Clone(c), i, v), true
			}
			out := slices.Clone(c)
			out[i] = v
			return out, true
		}
		var child any
		if i < len(c) {
			child = c[i]
		}
		nv, ok := setIn(child, segs[1:], v, insert)
		if !ok {
			return nil, false
		}
		if i == len(c) {
			return append(slices.Clone(c), nv), true
		}
		out := slices.Clone(c)
		out[i] = nv
		return out, true
	default:
		return setIn(map[string]any{}, segs, v, insert)
	}
}

// removeIn deletes segs below cur, copying every container on the way.
func removeIn(cur any, segs []string) (any, bool) {
	seg, last := segs[0], len(segs) == 1
	switch c := cur.(type) {
	case map[string]any:
		child, ok := c[seg]
		if !ok {
			return nil, false
		}
		out := maps.Clone(c)
		if last {
			delete(out, seg)
			return out, true
		}
		nv, ok := removeIn(child, segs[1:])
		if !ok {
			return nil, false
		}
		out[seg] = nv
		return out, true
	case []any:
		i, ok := index(seg, len(c), false)
		if !ok {
			return nil, false
		}
		if last {
			return slices.Delete(slices.Clone(c), i, i+1), true
		}
		nv, ok := removeIn(c[i], segs[1:])
		if !ok {
			return nil, false
		}
		out := slices.Clone(c)
		out[i] = nv
		return out, true
	default:
		return nil, false
	}
}

// index parses an array index segment. "-" means the end of the array.
// The end is a valid index only when appending is allowed.
func index(seg string, n int, appending bool) (int, bool) {
	i := n
	if seg != "-" {
		var err error
		i, err = strconv.Atoi(seg)
		if err != nil || i < 0 || (len(seg) > 1 && seg[0] == '0') {
			return 0, false
		}
	}
	if i > n || (i == n && !appending) {
		return 0, false
	}
	return i, true
}

func stringList(v any) ([]string, bool) {
	if v == nil {
		return nil, true
	}
	xs, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, len(xs))
	for i, x := range xs {
		s, ok := x.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}
