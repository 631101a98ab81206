// Package ensemble runs several generation sources and one evaluator over a
// single multiplexed event channel.
//
// The channel carries api.Event records. Generator events each carry the
// complete output of one named source, which is decoded from scratch into
// that source's tree. Evaluator events carry the merged output as it
// streams, and are fed incrementally into the merged tree. A done event
// ends the run; an error event fails it.
//
// Every source and the merged tree has its own pipeline goroutine, so each
// tree has exactly one writer. Sources are not ordered relative to one
// another, only within themselves.
//
// A Coordinator holds the current Run. Starting a new run cancels the
// previous one and begins from empty trees.
//
// # Transports
//
//   - HTTPDialer: newline-delimited JSON or server-sent events over HTTP
//   - WebSocketDialer: one JSON event per text frame
//   - ChanDialer: an in-process channel
//
// # Related Packages
//
//   - github.com/signadot/uistream/stream - decoder, hub and single-source sessions
//   - github.com/signadot/uistream/api - event and error types
package ensemble
