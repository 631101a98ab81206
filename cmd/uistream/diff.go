package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
	"github.com/signadot/uistream/libdiff"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires two tree files", cli.ErrUsage)
	}
	from, err := readTreeFile(args[0])
	if err != nil {
		return err
	}
	to, err := readTreeFile(args[1])
	if err != nil {
		return err
	}
	var opts []libdiff.Option
	if cfg.Myers {
		opts = append(opts, libdiff.WithAlgorithm(libdiff.Myers))
	}
	if cfg.MergePatch {
		opts = append(opts, libdiff.WithMergePatch())
	}
	r := libdiff.Diff(from, to, opts...)
	if err := libdiff.Render(cc.Out, r, cfg.colored(cc.Out)); err != nil {
		return err
	}
	if cfg.MergePatch && r.MergePatch != nil {
		fmt.Fprintf(cc.Out, "merge patch: %s\n", r.MergePatch)
	}
	if r.HasChanges {
		os.Exit(1)
	}
	return nil
}
