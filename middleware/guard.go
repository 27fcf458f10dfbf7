package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/goPortal/guard"
)

type entryContextKey struct{}
type decisionContextKey struct{}

// EntryFromContext returns the browsing context resolved by a guard.
func EntryFromContext(ctx context.Context) (*Entry, bool) {
	e, ok := ctx.Value(entryContextKey{}).(*Entry)
	return e, ok
}

// DecisionFromContext returns the render decision of a guarded request.
func DecisionFromContext(ctx context.Context) (guard.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(guard.Decision)
	return d, ok
}

// PageFunc describes the page a request enters.
type PageFunc func(r *http.Request) guard.Page

// Guard enters the page of every request through the browsing context's
// Controller. A redirect decision is answered with 303 See Other; a render
// decision reaches next with the entry and decision in the request context.
func Guard(reg *Registry, page PageFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reg == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			p := guard.Page{Path: r.URL.Path}
			if page != nil {
				p = page(r)
			}

			var (
				entry    *Entry
				decision guard.Decision
				enterErr error
			)
			location, err := reg.Call(w, r, func(ctx context.Context, e *Entry) {
				entry = e
				decision, enterErr = e.Controller.Enter(ctx, p)
			})
			if err == nil {
				err = enterErr
			}
			if err != nil {
				reg.logger.Error("page entry failed", "path", r.URL.Path, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if location != "" {
				http.Redirect(w, r, location, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), entryContextKey{}, entry)
			ctx = context.WithValue(ctx, decisionContextKey{}, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession guards pages that need a session regardless of their path.
func RequireSession(reg *Registry) func(http.Handler) http.Handler {
	return Guard(reg, fixedVisibility(guard.VisibilityProtected))
}

// LoginPage guards the login page: a visitor with a session is sent to the
// dashboard of their role.
func LoginPage(reg *Registry) func(http.Handler) http.Handler {
	return Guard(reg, fixedVisibility(guard.VisibilityLogin))
}

func fixedVisibility(v guard.Visibility) PageFunc {
	return func(r *http.Request) guard.Page {
		return guard.Page{Path: r.URL.Path, Visibility: v}
	}
}
