package main

import (
	"fmt"
	"io"

	"github.com/scott-cotton/cli"
	"github.com/signadot/uistream/patch"
	"github.com/signadot/uistream/stream"
	"github.com/signadot/uistream/tree"
)

func apply(cfg *ApplyConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Apply.Parse(cc, args)
	if err != nil {
		return err
	}
	r, err := openArg(cc, args)
	if err != nil {
		return err
	}
	defer r.Close()

	var seed *tree.Tree
	if cfg.Seed != "" {
		seed, err = readTreeFile(cfg.Seed)
		if err != nil {
			return err
		}
	}

	if cfg.JSONPatch {
		d, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		ps, err := patch.FromJSONPatch(d)
		if err != nil {
			return err
		}
		return writeTree(cc.Out, patch.ApplyAll(seed, ps))
	}

	ctx, cancel := signalContext()
	defer cancel()
	opts := append(cfg.Conf.Session.Options(),
		stream.WithScope("apply"),
		stream.WithLogger(cfg.Log),
		stream.WithMetrics(cfg.Metrics))
	if seed != nil {
		opts = append(opts, stream.WithSeed(seed))
	}
	res := stream.Start(ctx, stream.ReaderSource{R: r}, opts...).Wait(ctx)
	switch res.State {
	case stream.Completed:
		return writeTree(cc.Out, res.Tree)
	case stream.Failed:
		return res.Err
	}
	return fmt.Errorf("apply %s", res.State)
}
