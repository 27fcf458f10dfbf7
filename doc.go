// Package goPortal is the page-side session guard and UI-state layer of the
// school portal.
//
// A [Controller] is the explicit context object of one browsing context: it
// authenticates logins against an injected credential lookup, keeps the
// session record in context-scoped storage, re-runs the page guard on every
// page entry, restores layout preferences from durable storage before first
// paint, and drives transient feedback (notifications, loading overlay,
// destructive-action confirmation).
//
// # Concurrency
//
// A Controller follows the single-threaded page model. Every method, and every
// timer callback it schedules, must run on the same event loop (see the
// Scheduler passed to [Builder.WithScheduler]). Independent Controllers share
// nothing and may live on different goroutines.
//
// # Architecture boundaries
//
// Pure decisions live in sub-packages: credential validation in
// [ValidateCredentials], page access in guard.Decide. The Controller only
// applies them: storing records, navigating, rendering notifications.
//
// # What this package must NOT do
//
//   - Hash, store or log secrets.
//   - Cache a guard decision across page entries.
//   - Share a session record between browsing contexts.
package goPortal
