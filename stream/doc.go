// Package stream turns a line-delimited byte stream of patches into a live
// sequence of tree snapshots.
//
// A Decoder splits arbitrarily sized chunks into lines and decodes one
// patch per complete line. A Session binds a Decoder to one Source, applies
// every decoded patch in arrival order and publishes each resulting
// snapshot through a Hub, so observers see the tree grow patch by patch.
//
// # Lifecycle
//
// A session starts Running and ends in exactly one of Completed, Failed or
// Cancelled. Snapshots are never mutated after publication; observers may
// hold them across goroutines. After Cancel returns the session publishes
// nothing more and Current stays at the last published snapshot.
//
// A Runner keeps at most one session writing at a time: starting a new
// session cancels and waits for the previous one.
//
// # Related Packages
//
//   - github.com/signadot/uistream/patch - patch format and applier
//   - github.com/signadot/uistream/ensemble - runs several pipelines over one channel
//   - github.com/signadot/uistream/system/treestore - Persister implementations
package stream
