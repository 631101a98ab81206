// Package libdiff compares two tree snapshots line by line.
//
// Both trees are serialized with tree.Lines, which sorts object keys at
// every level, so node insertion order never shows up as a change. The
// lines are then aligned with one of two algorithms:
//
//   - Lookahead (the default) walks both sequences with two cursors. On a
//     mismatch it checks whether either current line reappears later in the
//     other sequence, and otherwise treats the pair as a replacement. It is
//     cheap and reads well for small edits, but it is not a minimal edit
//     script.
//   - Myers maps each distinct line to a rune and runs the diff-match-patch
//     Myers diff over the rune strings, giving a minimal script.
//
// Report.MergePatch optionally carries an RFC 7386 merge patch taking the
// previous tree's JSON form to the next one's.
package libdiff
