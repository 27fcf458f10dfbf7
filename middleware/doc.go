// Package middleware hosts goPortal Controllers behind an HTTP server.
//
// A browser is one browsing context. [Registry] identifies it by a signed
// cookie and keeps one Controller plus its event loop per context. Every
// call into a Controller runs on that loop, so the Controller never sees two
// requests at once.
//
// # Guards
//
//   - [Guard] runs the page guard on every request and answers redirect
//     decisions with 303 See Other.
//   - [RequireSession] guards pages that need a session.
//   - [LoginPage] guards the login page.
//
// # What this package must NOT do
//
//   - Make guard decisions itself; they come from Controller.Enter.
//   - Store session records outside the Controller's context store.
package middleware
