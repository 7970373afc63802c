// Package token implements the advisory inspector for compact link tokens
// (email verification, email change, password reset).
//
// Inspect decodes the claims of a three-segment compact token WITHOUT
// verifying its signature. The result is display-only: it lets a caller
// render human-readable context ("change email from X to Y") and short-circuit
// obviously expired or malformed links before any network round trip. The
// authoritative accept/reject decision for a token always comes from the
// backend collaborator's response to the actual submission.
//
// # What this package must NOT do
//
//   - Verify signatures or otherwise vouch for a token's authenticity.
//   - Perform network or storage I/O.
//   - Panic on attacker-controlled input; every failure is a typed error.
package token
