package debug

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/signadot/uistream/tree"
)

// Logf writes a trace line to stderr. Trees, nodes and JSON values among
// args are rendered as indented JSON.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch a.(type) {
		case map[string]any, []any, json.RawMessage, *tree.Tree, *tree.Node:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		case fmt.Stringer:
			args[i] = a.(fmt.Stringer).String()
		default:
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
