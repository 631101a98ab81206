package patch

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// FromJSONPatch converts an RFC 6902 document into patches. The document
// addresses the JSON form of a tree ({"root": ..., "nodes": {...}}), so
// paths carry over unchanged. Only add, replace and remove are supported.
func FromJSONPatch(doc []byte) ([]Patch, error) {
	ops, err := jsonpatch.DecodePatch(doc)
	if err != nil {
		return nil, err
	}
	res := make([]Patch, 0, len(ops))
	for i, op := range ops {
		path, err := op.Path()
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		p := Patch{Path: path}
		switch kind := op.Kind(); kind {
		case "add":
			p.Op = Add
		case "replace":
			p.Op = Replace
		case "remove":
			p.Op = Remove
		default:
			return nil, fmt.Errorf("operation %d: unsupported op %q", i, kind)
		}
		if raw := op["value"]; raw != nil && p.Op != Remove {
			p.Value = json.RawMessage(*raw)
		}
		res = append(res, p)
	}
	return res, nil
}
