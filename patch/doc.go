// Package patch implements the patch line format and the applier that turns
// a tree snapshot and one patch into the next snapshot.
//
// A patch is a JSON object
//
//	{"op": "set"|"add"|"replace"|"remove", "path": "...", "value": ...}
//
// whose path is one of
//
//	/root                  the root key; value is a string
//	/nodes/<key>           a whole node; value is a node object
//	/nodes/<key>/<subpath> a field inside an existing node
//
// Path segments use JSON pointer escaping (~0 for ~ and ~1 for /).
//
// Apply never fails. Patches it cannot resolve leave the tree unchanged;
// ApplyResult reports why.
//
// # Related Packages
//
//   - github.com/signadot/uistream/tree - the snapshots patches apply to
//   - github.com/signadot/uistream/stream - decodes patch lines from a byte stream
package patch
