// Package password implements Argon2id hashing for the bundled development
// backend.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length, confirmation matching) is enforced by the flow engine before a
// plaintext ever reaches a hasher.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other authflow package.
//   - Log plaintext passwords.
package password
