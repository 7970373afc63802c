// Package state defines the durable client-local key/value contract used by
// the flow engine for the pieces of state that must survive a process restart:
// the adopted session snapshot and the verification-resend timestamp.
//
// Implementations live in sub-packages: sqlitestate (file-backed, the default
// for single-user client processes) and redisstate (for shared-kiosk
// deployments where several terminals present the same device state).
//
// # Architecture boundaries
//
// The engine never interprets storage errors beyond the two sentinels defined
// here. Implementations must map their backend failures onto ErrUnavailable
// and report absent keys as ErrNotFound.
package state
