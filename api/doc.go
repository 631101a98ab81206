// Package api defines the types shared between the engine and the services
// that feed it: the coded error taxonomy and the tagged events of the
// multiplexed ensemble channel.
//
// # Related Packages
//
//   - github.com/signadot/uistream/stream - single-source sessions
//   - github.com/signadot/uistream/ensemble - ensemble coordinator consuming Event
package api
