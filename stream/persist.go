package stream

import (
	"context"

	"github.com/signadot/uistream/tree"
)

// Persister stores trees between sessions. A session calls LoadTree only
// when it starts without an explicit seed, and SaveTree only after it
// completes.
type Persister interface {
	// LoadTree returns the tree stored under id, or nil if there is none.
	LoadTree(ctx context.Context, id string) (*tree.Tree, error)
	SaveTree(ctx context.Context, t *tree.Tree, id string) (SaveResult, error)
}

// SaveResult reports whether a save was accepted.
type SaveResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
