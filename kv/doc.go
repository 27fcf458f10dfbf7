// Package kv provides the key-value storage capability behind session and
// layout state.
//
// # Scopes
//
// Two scopes exist. Context-scoped storage ([Memory]) lives exactly as long as
// one browsing context and is cleared when that context ends. Durable storage
// ([Redis], [SQLite]) survives restarts and is keyed by application origin
// through a key prefix.
//
// # What this package must NOT do
//
//   - Interpret stored values. Encoding belongs to the session and uistate
//     packages.
//   - Share one [Memory] between independent browsing contexts.
package kv
