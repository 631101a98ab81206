package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/scott-cotton/cli"
	"github.com/signadot/uistream/system/treestore"
)

func trees(cfg *TreesConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Trees.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Conf.Store.Path == "" {
		return fmt.Errorf("%w: trees needs store.path in the config file", cli.ErrUsage)
	}
	ctx := context.Background()
	store, err := treestore.Open(ctx, cfg.Conf.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Remove != "" {
		ok, err := store.Delete(ctx, cfg.Remove)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no tree %q", cfg.Remove)
		}
		fmt.Fprintf(cc.Out, "deleted %s\n", cfg.Remove)
		return nil
	}
	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROOT\tNODES\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.ID, e.Root, e.Nodes, e.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
