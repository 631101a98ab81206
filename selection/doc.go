// Package selection maps a rendered element back to the tree node that
// produced it.
//
// A Matcher runs an ordered chain of rules and returns the key chosen by
// the first rule that matches. Default() builds the standard chain: exact
// text against the label, text or title props, then tag families (a button
// tag matches button-like node types, h1 to h6 match heading-like ones),
// then the tree's root key. Ties inside a rule go to the node inserted
// first. The result is a best-effort guess, not a bijection between
// elements and nodes.
//
// ExprRule adds configurable rules written in expr-lang. They are
// normally inserted ahead of the root fallback with InsertBefore.
package selection
