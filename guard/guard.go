// Package guard holds the pure page-entry decision: given the page being
// entered and the current session record, render it or redirect.
//
// Decisions are computed fresh for every page entry and never cached. Applying
// a decision (navigating) is the caller's job.
package guard

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/MrEthical07/goPortal/session"
)

// ErrUnmappedRole is returned when a redirect needs the dashboard of a role
// that has no entry in [Routes].
var ErrUnmappedRole = errors.New("no dashboard mapped for role")

// Visibility is the access class a page declares.
type Visibility uint8

const (
	// VisibilityUnset lets [Decide] derive the class from the page path.
	VisibilityUnset Visibility = iota
	// VisibilityLogin marks the login page: guests only.
	VisibilityLogin
	// VisibilityProtected marks every page that requires a session.
	VisibilityProtected
)

func (v Visibility) String() string {
	switch v {
	case VisibilityLogin:
		return "login"
	case VisibilityProtected:
		return "protected"
	}
	return "unset"
}

// Page is the page being entered.
type Page struct {
	Path       string
	Visibility Visibility
}

// Action is what the page entry should do.
type Action uint8

const (
	ActionRender Action = iota
	ActionRedirect
)

func (a Action) String() string {
	if a == ActionRedirect {
		return "redirect"
	}
	return "render"
}

// Decision is the outcome of one page entry.
type Decision struct {
	Action Action
	Target string
}

// Render reports whether the page may render.
func (d Decision) Render() bool {
	return d.Action == ActionRender
}

// Routes is the static site structure: the login path and the dashboard of
// every role.
type Routes struct {
	LoginPath  string
	Dashboards map[session.Role]string
}

// DefaultRoutes returns the school portal's page layout.
func DefaultRoutes() Routes {
	return Routes{
		LoginPath: "/auth/login.html",
		Dashboards: map[session.Role]string{
			session.RoleAdmin:      "/admin/dashboard.html",
			session.RoleTeacher:    "/guru/dashboard.html",
			session.RoleHeadmaster: "/kepala-sekolah/dashboard.html",
		},
	}
}

// Dashboard returns the dashboard path of role.
func (r Routes) Dashboard(role session.Role) (string, error) {
	p, ok := r.Dashboards[role]
	if !ok || p == "" {
		return "", fmt.Errorf("%w: %q", ErrUnmappedRole, role)
	}
	return p, nil
}

// Validate checks that the login path is set and that every mapped dashboard
// belongs to a known role. A role may be left unmapped; a session carrying it
// is sent back to login when a redirect needs its dashboard.
func (r Routes) Validate() error {
	if r.LoginPath == "" {
		return errors.New("routes: login path is empty")
	}
	for role, p := range r.Dashboards {
		if !role.Valid() {
			return fmt.Errorf("routes: unknown role %q", role)
		}
		if p == "" {
			return fmt.Errorf("routes: empty dashboard for role %q", role)
		}
	}
	return nil
}

// Classify derives a page's visibility from its path. The login page is
// matched by its final path element so relative links resolve the same way.
func Classify(pagePath, loginPath string) Visibility {
	if pagePath == "" || loginPath == "" {
		return VisibilityProtected
	}
	clean := strings.SplitN(pagePath, "?", 2)[0]
	if path.Base(clean) == path.Base(loginPath) {
		return VisibilityLogin
	}
	return VisibilityProtected
}

// Decide returns the page-entry decision for page given the current record
// (nil when unauthenticated).
func Decide(page Page, rec *session.Record, routes Routes) (Decision, error) {
	vis := page.Visibility
	if vis == VisibilityUnset {
		vis = Classify(page.Path, routes.LoginPath)
	}

	if vis == VisibilityLogin {
		if rec == nil {
			return Decision{Action: ActionRender}, nil
		}
		target, err := routes.Dashboard(rec.Role)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Action: ActionRedirect, Target: target}, nil
	}

	if rec == nil {
		return Decision{Action: ActionRedirect, Target: routes.LoginPath}, nil
	}
	return Decision{Action: ActionRender}, nil
}
