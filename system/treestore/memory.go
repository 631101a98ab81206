package treestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/signadot/uistream/stream"
	"github.com/signadot/uistream/tree"
)

// Memory stores the JSON form of each tree, so later loads never share
// nodes with the saved snapshot.
type Memory struct {
	mu    sync.Mutex
	trees map[string][]byte
}

var _ stream.Persister = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{trees: map[string][]byte{}}
}

func (m *Memory) LoadTree(_ context.Context, id string) (*tree.Tree, error) {
	m.mu.Lock()
	d, ok := m.trees[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return tree.Parse(d)
}

func (m *Memory) SaveTree(_ context.Context, t *tree.Tree, id string) (stream.SaveResult, error) {
	if id == "" {
		return stream.SaveResult{Message: "empty tree id"}, nil
	}
	d, err := json.Marshal(t)
	if err != nil {
		return stream.SaveResult{}, fmt.Errorf("encode tree %s: %w", id, err)
	}
	m.mu.Lock()
	m.trees[id] = d
	m.mu.Unlock()
	return stream.SaveResult{Success: true, Message: fmt.Sprintf("saved %d nodes", t.Len())}, nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trees)
}
