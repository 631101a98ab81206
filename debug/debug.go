package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Decode   bool
	Apply    bool
	Ensemble bool
	Match    bool
	Diff     bool
}

var d *debug

func init() {
	d = &debug{}
	d.Decode = boolEnv("UISTREAM_DEBUG_DECODE")
	d.Apply = boolEnv("UISTREAM_DEBUG_APPLY")
	d.Ensemble = boolEnv("UISTREAM_DEBUG_ENSEMBLE")
	d.Match = boolEnv("UISTREAM_DEBUG_MATCH")
	d.Diff = boolEnv("UISTREAM_DEBUG_DIFF")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Decode() bool {
	return d.Decode
}
func Apply() bool {
	return d.Apply
}
func Ensemble() bool {
	return d.Ensemble
}
func Match() bool {
	return d.Match
}
func Diff() bool {
	return d.Diff
}
