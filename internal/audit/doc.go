// Package audit relays portal audit events (login attempts, logouts, guard
// anomalies) to a caller-supplied sink off the page's event loop.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, slog, no-op).
//   - [Dispatcher]: buffered relay that either drops or blocks when full.
//   - [Event]: one audit record.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the controller does that.
//   - Import goPortal or any sibling internal package.
package audit
