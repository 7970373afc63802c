// Package authflow provides a multi-step authentication flow engine for
// client applications: login with a one-time-code second factor, registration,
// email verification, password reset, and email-change confirmation, all
// sequenced locally while every authoritative decision is delegated to an
// injected backend collaborator.
//
// The package is designed for event-driven client workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build], and each flow enforces at most one in-flight invocation of
// its primary action.
//
// # Architecture boundaries
//
// authflow is the public surface. It exposes [Engine], [Builder], [Config],
// the [Backend] contract, and value types (Session, Challenge, ConfirmOutcome,
// etc.). Supporting concerns live in sub-packages: token (advisory link-token
// inspection), state (durable client-local storage), remote (HTTP backend
// client), devbackend (in-memory collaborator for tests and development).
//
// # What this package must NOT do
//
//   - Check credentials, verify one-time codes, or validate link tokens
//     authoritatively — those calls always go to the [Backend].
//   - Treat a decoded link token as proof of anything; token inspection is
//     display-only.
//   - Retry a failed submission on its own — the caller decides whether the
//     user resubmits.
package authflow
