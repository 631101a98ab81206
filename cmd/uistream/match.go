package main

import (
	"errors"
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/signadot/uistream/selection"
)

func match(cfg *MatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Match.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Tag == "" && cfg.Text == "" {
		return fmt.Errorf("%w: match requires -tag or -text", cli.ErrUsage)
	}
	r, err := openArg(cc, args)
	if err != nil {
		return err
	}
	defer r.Close()
	name := "stdin"
	if len(args) == 1 {
		name = args[0]
	}
	t, err := readTree(r, name)
	if err != nil {
		return err
	}
	m, err := cfg.Conf.Selection.Matcher()
	if err != nil {
		return err
	}
	key, ok := m.Match(t, selection.Selector{
		TagName:     cfg.Tag,
		TextContent: cfg.Text,
		ClassName:   cfg.Class,
		ID:          cfg.ID,
	})
	if !ok {
		return errors.New("no matching node")
	}
	fmt.Fprintln(cc.Out, key)
	return nil
}
