package main

import (
	"context"
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/signadot/uistream/stream"
	"github.com/signadot/uistream/system/treestore"
)

func streamSession(cfg *StreamConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Stream.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.URL == "" {
		return fmt.Errorf("%w: -url is required", cli.ErrUsage)
	}
	ctx, cancel := signalContext()
	defer cancel()

	opts := append(cfg.Conf.Session.Options(),
		stream.WithLogger(cfg.Log),
		stream.WithMetrics(cfg.Metrics),
		stream.WithScope("stream"))
	if cfg.Seed != "" {
		seed, err := readTreeFile(cfg.Seed)
		if err != nil {
			return err
		}
		opts = append(opts, stream.WithSeed(seed))
	}
	if cfg.Save != "" {
		if cfg.Conf.Store.Path == "" {
			return fmt.Errorf("%w: -save needs store.path in the config file", cli.ErrUsage)
		}
		store, err := treestore.Open(ctx, cfg.Conf.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, stream.WithPersister(store, cfg.Save))
	}

	var body any
	if cfg.Prompt != "" {
		body = map[string]string{"prompt": cfg.Prompt}
	}
	s := stream.Start(ctx, &stream.HTTPSource{URL: cfg.URL, Body: body}, opts...)
	w := s.Watch(0)
	n := 0
watch:
	for {
		select {
		case t, ok := <-w.Events:
			if !ok {
				break watch
			}
			fmt.Fprintf(cc.Out, "snapshot %d: %d nodes\n", n, t.Len())
			n++
		case <-w.Failed:
			cfg.Log.Warn("snapshot output fell behind", "session", s.ID)
			break watch
		}
	}
	res := s.Wait(context.Background())
	switch res.State {
	case stream.Completed:
		return writeTree(cc.Out, res.Tree)
	case stream.Failed:
		return res.Err
	}
	fmt.Fprintf(cc.Out, "session %s\n", res.State)
	return writeTree(cc.Out, s.Current())
}
