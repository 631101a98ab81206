package treestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/signadot/uistream/stream"
	"github.com/signadot/uistream/tree"
)

const schema = `
CREATE TABLE IF NOT EXISTS trees (
	tree_id TEXT PRIMARY KEY,
	root TEXT,
	node_count INTEGER NOT NULL,
	body TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Entry summarizes one stored tree.
type Entry struct {
	ID        string    `json:"id"`
	Root      string    `json:"root,omitempty"`
	Nodes     int       `json:"nodes"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// timeLayout is fixed width so updated_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ stream.Persister = (*SQLite)(nil)

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) LoadTree(ctx context.Context, id string) (*tree.Tree, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM trees WHERE tree_id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tree %s: %w", id, err)
	}
	t, err := tree.Parse([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decode tree %s: %w", id, err)
	}
	return t, nil
}

func (s *SQLite) SaveTree(ctx context.Context, t *tree.Tree, id string) (stream.SaveResult, error) {
	if id == "" {
		return stream.SaveResult{Message: "empty tree id"}, nil
	}
	body, err := json.Marshal(t)
	if err != nil {
		return stream.SaveResult{}, fmt.Errorf("encode tree %s: %w", id, err)
	}
	var root any
	if r, ok := t.Root(); ok {
		root = r
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO trees(tree_id, root, node_count, body, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(tree_id) DO UPDATE SET
	root=excluded.root,
	node_count=excluded.node_count,
	body=excluded.body,
	updated_at=excluded.updated_at
`, id, root, t.Len(), string(body), s.now().UTC().Format(timeLayout))
	if err != nil {
		return stream.SaveResult{}, fmt.Errorf("save tree %s: %w", id, err)
	}
	return stream.SaveResult{Success: true, Message: fmt.Sprintf("saved %d nodes", t.Len())}, nil
}

// List returns stored trees, most recently updated first.
func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tree_id, root, node_count, updated_at FROM trees ORDER BY updated_at DESC, tree_id`)
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var (
			e       Entry
			root    sql.NullString
			updated string
		)
		if err := rows.Scan(&e.ID, &root, &e.Nodes, &updated); err != nil {
			return nil, fmt.Errorf("scan tree: %w", err)
		}
		e.Root = root.String
		e.UpdatedAt, err = time.Parse(timeLayout, updated)
		if err != nil {
			return nil, fmt.Errorf("tree %s updated_at: %w", e.ID, err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Delete removes the tree stored under id, reporting whether it existed.
func (s *SQLite) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trees WHERE tree_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete tree %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
