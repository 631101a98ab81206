package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scott-cotton/cli"
	"github.com/signadot/uistream/ensemble"
	"github.com/signadot/uistream/stream"
)

func ensembleRun(cfg *EnsembleConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Ensemble.Parse(cc, args)
	if err != nil {
		return err
	}
	ec := cfg.Conf.Ensemble
	url := ec.URL
	if cfg.URL != "" {
		url = cfg.URL
	}
	if url == "" {
		return fmt.Errorf("%w: -url is required", cli.ErrUsage)
	}
	transport := ec.Transport
	if cfg.Transport != "" {
		transport = cfg.Transport
	}
	sources := ec.Sources
	if cfg.Sources != "" {
		sources = strings.Split(cfg.Sources, ",")
	}

	var dialer ensemble.Dialer
	switch strings.ToLower(transport) {
	case "websocket", "ws":
		dialer = &ensemble.WebSocketDialer{URL: url, Log: cfg.Log}
	case "", "http":
		dialer = &ensemble.HTTPDialer{URL: url, Log: cfg.Log}
	default:
		return fmt.Errorf("%w: unknown transport %q", cli.ErrUsage, transport)
	}

	opts := []ensemble.Option{
		ensemble.WithSources(sources...),
		ensemble.WithLogger(cfg.Log),
		ensemble.WithMetrics(cfg.Metrics),
	}
	if n := cfg.Conf.Session.WatchBuffer; n > 0 {
		opts = append(opts, ensemble.WithWatchBuffer(n))
	}
	if d, err := cfg.Conf.Session.Timeout(); err == nil && d > 0 {
		opts = append(opts, ensemble.WithBroadcastTimeout(d))
	}

	ctx, cancel := signalContext()
	defer cancel()
	run := ensemble.NewCoordinator(dialer, opts...).Start(ctx, cfg.Prompt)
	w := run.WatchMetadata(0)
	enc := json.NewEncoder(cc.Out)
watch:
	for {
		select {
		case m, ok := <-w.Events:
			if !ok {
				break watch
			}
			if err := enc.Encode(m); err != nil {
				run.Cancel()
				return err
			}
		case <-w.Failed:
			cfg.Log.Warn("metadata output fell behind", "run", run.ID)
			break watch
		}
	}
	out := run.Wait(context.Background())
	switch out.State {
	case stream.Completed:
		return writeTree(cc.Out, out.Result.Merged)
	case stream.Failed:
		return out.Err
	}
	fmt.Fprintf(cc.Out, "run %s\n", out.State)
	return writeTree(cc.Out, run.Displayed(""))
}
