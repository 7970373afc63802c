// Package devbackend is an in-memory implementation of the authflow Backend
// used for local development, examples and tests.
//
// Accounts, sessions, one-time-code challenges and link tokens all live in
// process memory. Outgoing mail is captured in a mailbox instead of being
// sent, so tests can read verification links and one-time codes back out.
//
// # What this package must NOT do
//
//   - Be deployed as a real credential store. Everything here is lost on
//     restart and the token signing key defaults to a well-known value.
package devbackend
