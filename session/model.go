package session

// Session defines a public type used by authflow APIs.
//
// Session instances are intended to be treated as immutable snapshots; the
// watcher replaces the whole value on every change rather than mutating it.
type Session struct {
	ID          string
	Email       string
	DisplayName string
	Verified    bool
}

// Handle defines a public type used by authflow APIs.
//
// Handle pairs the opaque backend token with the record snapshot observed at
// issue time. SecondFactorRequired marks a handle returned by a password
// exchange that still needs a one-time-code confirmation; such handles carry
// no token and must never be adopted as a live session.
type Handle struct {
	Token                string
	SecondFactorRequired bool
	Record               Session
}
