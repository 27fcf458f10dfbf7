// Package session provides the session record model, its JSON encoding and the
// context-scoped [Store] that holds the record for one browsing context.
//
// # Encoding
//
// Records are stored as a JSON object {"email", "role", "loginTime"} under a
// single key. Decoding rejects roles outside the known set so that the
// existence of a decoded [Record] always means "authenticated".
//
// # Architecture boundaries
//
// This package owns the [Record] model and the [Store]. It does NOT validate
// credentials or decide redirects; those belong to goPortal and guard.
//
// # What this package must NOT do
//
//   - Import goPortal or guard (no upward imports).
//   - Store secrets in a [Record].
package session
