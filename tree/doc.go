// Package tree holds the in-memory UI tree: a root key plus a keyed set of
// typed nodes with property bags and ordered children.
//
// A *Tree is an immutable snapshot. Every mutation (WithRoot, WithNode,
// WithoutNode) returns a new *Tree that shares the untouched *Node values
// with its predecessor, so an observer holding an older snapshot never sees
// it change, and two snapshots can be compared node-by-node with pointer
// equality before falling back to structural comparison.
//
// Node keys are chosen by the upstream generator. The tree remembers the
// order in which keys were first inserted; Keys and Each walk nodes in that
// order.
//
// # Related Packages
//
//   - github.com/signadot/uistream/patch - patch format and applier
//   - github.com/signadot/uistream/libdiff - line diffs between snapshots
package tree
