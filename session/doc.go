// Package session defines the local session model and its persistence codec.
//
// A [Session] is the display-level record of the authenticated account; a
// [Handle] pairs it with the opaque backend token that authenticates follow-up
// calls. The binary codec is versioned so persisted snapshots survive format
// evolution across releases.
//
// # Architecture boundaries
//
// This package owns encoding only. Which store a snapshot lands in, and when
// it is written or cleared, is decided by the engine's session watcher.
package session
