package tree

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"
)

// Equal reports whether a and b hold the same root and structurally equal
// nodes. Insertion order is ignored. Nil and empty trees are equal.
func Equal(a, b *Tree) bool {
	if a == b {
		return true
	}
	ra, oka := a.Root()
	rb, okb := b.Root()
	if oka != okb || ra != rb || a.Len() != b.Len() {
		return false
	}
	for _, k := range a.Keys() {
		na, _ := a.Node(k)
		nb, ok := b.Node(k)
		if !ok || !NodeEqual(na, nb) {
			return false
		}
	}
	return true
}

// NodeEqual reports whether a and b are structurally equal, comparing prop
// values by their JSON representation.
func NodeEqual(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	da, err := json.Marshal(a)
	if err != nil {
		return false
	}
	db, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return jsonpatch.Equal(da, db)
}
