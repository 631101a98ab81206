package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/scott-cotton/cli"
	"github.com/signadot/uistream/config"
	"github.com/signadot/uistream/metrics"
)

type MainConfig struct {
	ConfigFile  string `cli:"name=config desc='configuration file (yaml)'"`
	Gops        bool   `cli:"name=gops desc='start a gops diagnostics agent'"`
	MetricsAddr string `cli:"name=metrics desc='serve prometheus metrics on this address'"`

	Conf     *config.Config
	Log      *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Main *cli.Command
}

// optSet reports whether the option name was given on the command line.
func optSet(cmd *cli.Command, name string) bool {
	for _, opt := range cmd.Opts {
		if opt.Name == name {
			return opt.Value != nil
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type ApplyConfig struct {
	*MainConfig
	Seed      string `cli:"name=seed desc='seed tree file (json)'"`
	JSONPatch bool   `cli:"name=jsonpatch desc='input is an RFC 6902 JSON patch document'"`

	Apply *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Myers      bool `cli:"name=myers desc='use a minimal Myers alignment'"`
	Color      bool `cli:"name=color desc='color added and removed lines'"`
	MergePatch bool `cli:"name=merge desc='also print an RFC 7386 merge patch'"`

	Diff *cli.Command
}

func (cfg *DiffConfig) colored(w io.Writer) bool {
	if optSet(cfg.Diff, "color") {
		return cfg.Color
	}
	return isTerminal(w)
}

type MatchConfig struct {
	*MainConfig
	Tag   string `cli:"name=tag desc='element tag name'"`
	Text  string `cli:"name=text desc='element text content'"`
	Class string `cli:"name=class desc='element class name'"`
	ID    string `cli:"name=id desc='element id'"`

	Match *cli.Command
}

type StreamConfig struct {
	*MainConfig
	URL    string `cli:"name=url desc='patch stream endpoint'"`
	Prompt string `cli:"name=prompt desc='generation prompt'"`
	Seed   string `cli:"name=seed desc='seed tree file (json)'"`
	Save   string `cli:"name=save desc='tree id to load from and save to the store'"`

	Stream *cli.Command
}

type EnsembleConfig struct {
	*MainConfig
	URL       string `cli:"name=url desc='ensemble endpoint'"`
	Prompt    string `cli:"name=prompt desc='generation prompt'"`
	Sources   string `cli:"name=sources desc='comma separated source tags'"`
	Transport string `cli:"name=transport desc='http or websocket'"`

	Ensemble *cli.Command
}

type TreesConfig struct {
	*MainConfig
	Remove string `cli:"name=rm desc='delete the tree with this id'"`

	Trees *cli.Command
}
