// Package jwt issues and verifies browsing-context tokens: signed cookies that
// bind an HTTP client to one server-side browsing context without revealing or
// trusting a client-chosen identifier.
package jwt
