package selection

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/signadot/uistream/debug"
	"github.com/signadot/uistream/tree"
)

// ExprRule matches the first node for which a boolean expr-lang
// expression holds. The expression sees two variables:
//
//	node:     {key, type, props, children}
//	selector: {tagName, textContent, className, id}
//
// A runtime error counts as no match for that node.
type ExprRule struct {
	name    string
	source  string
	program *vm.Program
}

func NewExprRule(name, source string) (*ExprRule, error) {
	prg, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	return &ExprRule{name: name, source: source, program: prg}, nil
}

func (r *ExprRule) Name() string   { return r.name }
func (r *ExprRule) Source() string { return r.source }

func (r *ExprRule) Match(t *tree.Tree, sel Selector) (string, bool) {
	selEnv := map[string]any{
		"tagName":     sel.TagName,
		"textContent": sel.TextContent,
		"className":   sel.ClassName,
		"id":          sel.ID,
	}
	for _, k := range t.Keys() {
		n, _ := t.Node(k)
		if n == nil {
			continue
		}
		env := map[string]any{
			"node":     nodeEnv(k, n),
			"selector": selEnv,
		}
		res, err := vm.Run(r.program, env)
		if err != nil {
			if debug.Match() {
				debug.Logf("rule %s on %q: %v\n", r.name, k, err)
			}
			continue
		}
		if ok, _ := res.(bool); ok {
			return k, true
		}
	}
	return "", false
}

func nodeEnv(key string, n *tree.Node) map[string]any {
	props := n.Props
	if props == nil {
		props = map[string]any{}
	}
	children := make([]any, len(n.Children))
	for i, c := range n.Children {
		children[i] = c
	}
	return map[string]any{
		"key":      key,
		"type":     n.Type,
		"props":    props,
		"children": children,
	}
}
