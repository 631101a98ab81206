package selection

import (
	"slices"
	"strings"

	"github.com/signadot/uistream/debug"
	"github.com/signadot/uistream/tree"
)

// Selector describes a rendered element.
type Selector struct {
	TagName     string `json:"tagName"`
	TextContent string `json:"textContent,omitempty"`
	ClassName   string `json:"className,omitempty"`
	ID          string `json:"id,omitempty"`
}

func (s Selector) tag() string {
	return strings.ToLower(strings.TrimSpace(s.TagName))
}

// Rule is one step in a Matcher chain.
type Rule interface {
	Name() string
	Match(t *tree.Tree, sel Selector) (string, bool)
}

// Matcher runs rules in order; the first hit wins.
type Matcher struct {
	rules []Rule
}

func NewMatcher(rules ...Rule) *Matcher {
	return &Matcher{rules: slices.Clone(rules)}
}

// Default returns a Matcher with TextRule, TagFamilyRule and RootRule.
func Default() *Matcher {
	return NewMatcher(TextRule{}, TagFamilyRule{}, RootRule{})
}

// InsertBefore inserts r ahead of the rule named name, or appends it when
// there is no such rule.
func (m *Matcher) InsertBefore(name string, r Rule) {
	i := slices.IndexFunc(m.rules, func(x Rule) bool { return x.Name() == name })
	if i < 0 {
		m.rules = append(m.rules, r)
		return
	}
	m.rules = slices.Insert(m.rules, i, r)
}

func (m *Matcher) Rules() []Rule {
	return slices.Clone(m.rules)
}

// Match returns the key of the node best matching sel.
func (m *Matcher) Match(t *tree.Tree, sel Selector) (string, bool) {
	for _, r := range m.rules {
		if key, ok := r.Match(t, sel); ok {
			if debug.Match() {
				debug.Logf("match %s -> %q by %s\n", sel.tag(), key, r.Name())
			}
			return key, true
		}
	}
	if debug.Match() {
		debug.Logf("match %s: no node\n", sel.tag())
	}
	return "", false
}

var textProps = []string{"label", "text", "title"}

// TextRule matches the trimmed text content exactly against the label,
// text and title props.
type TextRule struct{}

func (TextRule) Name() string { return "text" }

func (TextRule) Match(t *tree.Tree, sel Selector) (string, bool) {
	text := strings.TrimSpace(sel.TextContent)
	if text == "" {
		return "", false
	}
	for _, k := range t.Keys() {
		n, _ := t.Node(k)
		if n == nil {
			continue
		}
		for _, p := range textProps {
			if v, ok := n.Props[p].(string); ok && v == text {
				return k, true
			}
		}
	}
	return "", false
}

// DefaultFamilies maps element tags to the node type fragments they match,
// strongest first. "header" comes last since it also names layout
// containers.
var DefaultFamilies = map[string][]string{
	"button": {"button"},
	"h1":     {"heading", "title", "header"},
	"h2":     {"heading", "title", "header"},
	"h3":     {"heading", "title", "header"},
	"h4":     {"heading", "title", "header"},
	"h5":     {"heading", "title", "header"},
	"h6":     {"heading", "title", "header"},
}

// TagFamilyRule matches a node whose lowercased type contains one of the
// fragments listed for the selector's tag. Fragments are tried in order and
// the first node in insertion order containing a fragment wins. A nil
// Families uses DefaultFamilies.
type TagFamilyRule struct {
	Families map[string][]string
}

func (TagFamilyRule) Name() string { return "tag-family" }

func (r TagFamilyRule) Match(t *tree.Tree, sel Selector) (string, bool) {
	fams := r.Families
	if fams == nil {
		fams = DefaultFamilies
	}
	frags := fams[sel.tag()]
	if len(frags) == 0 {
		return "", false
	}
	keys := t.Keys()
	types := make([]string, len(keys))
	for i, k := range keys {
		if n, _ := t.Node(k); n != nil {
			types[i] = strings.ToLower(n.Type)
		}
	}
	for _, f := range frags {
		for i, typ := range types {
			if strings.Contains(typ, f) {
				return keys[i], true
			}
		}
	}
	return "", false
}

// RootRule returns the root key when one is set, even if it dangles.
type RootRule struct{}

func (RootRule) Name() string { return "root" }

func (RootRule) Match(t *tree.Tree, _ Selector) (string, bool) {
	return t.Root()
}
