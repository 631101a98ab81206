package main

import (
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"
	"github.com/signadot/uistream/tree"
)

// openArg opens the single optional file argument, defaulting to stdin.
func openArg(cc *cli.Context, args []string) (io.ReadCloser, error) {
	switch len(args) {
	case 0:
		return io.NopCloser(cc.In), nil
	case 1:
		if args[0] == "-" {
			return io.NopCloser(cc.In), nil
		}
		return os.Open(args[0])
	}
	return nil, fmt.Errorf("%w: expected at most one file argument", cli.ErrUsage)
}

func readTreeFile(path string) (*tree.Tree, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := tree.Parse(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func readTree(r io.Reader, name string) (*tree.Tree, error) {
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	t, err := tree.Parse(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func writeTree(w io.Writer, t *tree.Tree) error {
	_, err := w.Write(tree.Canonical(t))
	return err
}
