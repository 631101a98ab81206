package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "uistream").
		WithSynopsis("uistream [opts] command [opts]").
		WithDescription("uistream builds UI trees from incremental patch streams.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return uistreamMain(cfg, cc, args)
		}).
		WithSubs(
			ApplyCommand(cfg),
			DiffCommand(cfg),
			MatchCommand(cfg),
			StreamCommand(cfg),
			EnsembleCommand(cfg),
			TreesCommand(cfg))
}

func ApplyCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ApplyConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Apply, "apply").
		WithAliases("a").
		WithSynopsis("apply [-seed file] [-jsonpatch] [file|-]").
		WithDescription("decode a patch stream and print the resulting tree").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return apply(cfg, cc, args)
		})
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d").
		WithSynopsis("diff [-myers] [-color] [-merge] a.json b.json").
		WithDescription("print the line diff of two trees, exiting 1 when they differ").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}

func MatchCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &MatchConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Match, "match").
		WithAliases("m").
		WithSynopsis("match -tag T [-text S] [-class C] [-id I] [tree.json|-]").
		WithDescription("print the key of the node matching a rendered element").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return match(cfg, cc, args)
		})
}

func StreamCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &StreamConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Stream, "stream").
		WithAliases("s").
		WithSynopsis("stream -url U [-prompt P] [-seed file] [-save id]").
		WithDescription("run one streaming session against an HTTP endpoint").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return streamSession(cfg, cc, args)
		})
}

func EnsembleCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &EnsembleConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Ensemble, "ensemble").
		WithAliases("e").
		WithSynopsis("ensemble -url U [-prompt P] [-sources A,B,C] [-transport http|websocket]").
		WithDescription("run an ensemble generation and print its progress and merged tree").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return ensembleRun(cfg, cc, args)
		})
}

func TreesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TreesConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Trees, "trees").
		WithSynopsis("trees [-rm id]").
		WithDescription("list or delete trees in the configured store").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return trees(cfg, cc, args)
		})
}
