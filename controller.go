package goPortal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goPortal/dispatch"
	"github.com/MrEthical07/goPortal/guard"
	"github.com/MrEthical07/goPortal/kv"
	"github.com/MrEthical07/goPortal/notify"
	"github.com/MrEthical07/goPortal/session"
	"github.com/MrEthical07/goPortal/uistate"
)

// Controller is the page-side context object of one browsing context. It
// owns the session record, guards page entries, and routes user actions to
// the layout, notification and form components.
//
// A Controller is not safe for concurrent use: every call, including the
// callbacks it schedules, must run on the browsing context's event loop.
type Controller struct {
	config   Config
	messages Messages
	location *time.Location

	contextKV kv.Store
	sessions  *session.Store
	auth      *Authenticator

	ui      *uistate.Controller
	notices *notify.Center
	forms   *dispatch.Dispatcher

	nav       Navigator
	confirmer Confirmer
	sched     Scheduler
	logger    *slog.Logger

	telemetry     *Telemetry
	ownsTelemetry bool
}

/*
====================================
PAGE ENTRY
====================================
*/

// Enter runs the guard for page and applies its decision. Nothing is cached:
// every entry reads the session record afresh. A redirect is performed
// through the navigator; a render restores the layout before the regions are
// shown.
//
// An undecodable record is cleared and the entry treated as unauthenticated.
// A record whose role has no dashboard is cleared too; the login page is
// rendered with a danger notification.
func (c *Controller) Enter(ctx context.Context, page guard.Page) (guard.Decision, error) {
	if c == nil {
		return guard.Decision{}, ErrControllerNotReady
	}
	start := time.Now()
	defer func() {
		c.metrics().Observe(MetricGuardLatency, time.Since(start))
	}()

	if page.Visibility == guard.VisibilityUnset {
		page.Visibility = guard.Classify(page.Path, c.config.Routes.LoginPath)
	}

	rec, err := c.readRecord(ctx, page.Path)
	if err != nil {
		return guard.Decision{}, err
	}

	decision, err := guard.Decide(page, rec, c.config.Routes)
	if errors.Is(err, guard.ErrUnmappedRole) {
		c.metrics().Inc(MetricGuardUnmappedRole)
		c.logger.Error("session role has no dashboard", "role", rec.Role, "page", page.Path)
		c.emitAudit(ctx, auditEventUnmappedRole, false, rec.Identity, rec.Role, page.Path, err, nil)
		if clearErr := c.sessions.Clear(ctx); clearErr != nil {
			return guard.Decision{}, fmt.Errorf("%w: %v", ErrSessionUnavailable, clearErr)
		}
		c.notices.ShowAuth(c.messages.For(err), notify.SeverityDanger)
		decision = guard.Decision{Action: guard.ActionRender}
	} else if err != nil {
		return guard.Decision{}, err
	}

	if decision.Action == guard.ActionRedirect {
		if decision.Target == c.config.Routes.LoginPath {
			c.metrics().Inc(MetricGuardRedirectLogin)
		} else {
			c.metrics().Inc(MetricGuardRedirectDashboard)
		}
		c.logger.Debug("guard redirect", "page", page.Path, "target", decision.Target)
		c.navigate(ctx, decision.Target)
		return decision, nil
	}

	c.metrics().Inc(MetricGuardRender)
	if _, err := c.ui.Restore(ctx); err != nil {
		// Rendering proceeds with the expanded layout.
		c.logger.Warn("restore layout", "page", page.Path, "error", err)
	}
	return decision, nil
}

func (c *Controller) readRecord(ctx context.Context, page string) (*session.Record, error) {
	rec, err := c.sessions.Get(ctx)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, session.ErrRecordCorrupt) {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	c.metrics().Inc(MetricSessionCorrupt)
	c.logger.Warn("discarding corrupt session record", "page", page, "error", err)
	c.emitAudit(ctx, auditEventSessionCorrupt, false, "", "", page, err, nil)
	if clearErr := c.sessions.Clear(ctx); clearErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, clearErr)
	}
	return nil, nil
}

// CurrentUser returns the session record, or nil when unauthenticated.
func (c *Controller) CurrentUser(ctx context.Context) (*session.Record, error) {
	if c == nil {
		return nil, ErrControllerNotReady
	}
	rec, err := c.sessions.Get(ctx)
	if errors.Is(err, session.ErrRecordCorrupt) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return rec, nil
}

// IsAuthenticated reports whether a session record exists.
func (c *Controller) IsAuthenticated(ctx context.Context) bool {
	rec, err := c.CurrentUser(ctx)
	return err == nil && rec != nil
}

// HasRole reports whether the session record carries role.
func (c *Controller) HasRole(ctx context.Context, role session.Role) bool {
	rec, err := c.CurrentUser(ctx)
	return err == nil && rec != nil && rec.Role == role
}

// RequireAuth navigates to the login page when unauthenticated and reports
// whether the caller may continue.
func (c *Controller) RequireAuth(ctx context.Context) bool {
	if c == nil {
		return false
	}
	if c.IsAuthenticated(ctx) {
		return true
	}
	c.navigate(ctx, c.config.Routes.LoginPath)
	return false
}

/*
====================================
LOGIN / LOGOUT
====================================
*/

// Login authenticates the submitted credentials. On success the record is
// stored and the role dashboard is entered. On failure a single auth
// notification carrying the localized message is shown and the error is
// returned; no record is written.
func (c *Controller) Login(ctx context.Context, identity, secret, role string) (*session.Record, error) {
	if c == nil {
		return nil, ErrControllerNotReady
	}

	rec, err := c.auth.Authenticate(ctx, identity, secret, role)
	if err != nil {
		c.loginFailed(ctx, identity, role, err)
		return nil, err
	}

	target, err := c.config.Routes.Dashboard(rec.Role)
	if err != nil {
		c.loginFailed(ctx, identity, role, err)
		return nil, err
	}

	if err := c.sessions.Put(ctx, rec); err != nil {
		err = fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
		c.loginFailed(ctx, identity, role, err)
		return nil, err
	}

	c.metrics().Inc(MetricLoginSuccess)
	c.logger.Info("login", "identity", rec.Identity, "role", rec.Role)
	c.emitAudit(ctx, auditEventLoginSuccess, true, rec.Identity, rec.Role, c.config.Routes.LoginPath, nil, nil)

	c.navigate(ctx, target)
	return rec, nil
}

func (c *Controller) loginFailed(ctx context.Context, identity, role string, err error) {
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidEmailFormat):
		c.metrics().Inc(MetricLoginRejected)
	case errors.Is(err, ErrCredentialsUnavailable):
		c.metrics().Inc(MetricCredentialsUnavailable)
		c.logger.Error("credential lookup failed", "error", err)
	case errors.Is(err, ErrSessionUnavailable):
		c.logger.Error("store session record", "error", err)
	default:
		c.metrics().Inc(MetricLoginFailure)
	}

	c.emitAudit(ctx, auditEventLoginFailure, false, identity, session.Role(role), c.config.Routes.LoginPath, err, nil)
	c.notices.ShowAuth(c.messages.For(err), notify.SeverityDanger)
}

// Logout removes the session record and navigates to the login page. When
// the record cannot be removed the page is left as is.
func (c *Controller) Logout(ctx context.Context) error {
	if c == nil {
		return ErrControllerNotReady
	}

	rec, _ := c.CurrentUser(ctx)
	if err := c.sessions.Clear(ctx); err != nil {
		c.logger.Error("clear session record", "error", err)
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	c.metrics().Inc(MetricLogout)
	if rec != nil {
		c.logger.Info("logout", "identity", rec.Identity, "role", rec.Role)
		c.emitAudit(ctx, auditEventLogout, true, rec.Identity, rec.Role, "", nil, nil)
	} else {
		c.emitAudit(ctx, auditEventLogout, true, "", "", "", nil, nil)
	}

	c.navigate(ctx, c.config.Routes.LoginPath)
	return nil
}

// ConfirmLogout asks the user before logging out and reports whether the
// logout happened.
func (c *Controller) ConfirmLogout(ctx context.Context) (bool, error) {
	if c == nil {
		return false, ErrControllerNotReady
	}
	if c.confirmer == nil || !c.confirmer.Confirm(c.messages.ConfirmLogout) {
		return false, nil
	}
	if err := c.Logout(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Logout is callable from any page. A nil Controller is a no-op.
func Logout(ctx context.Context, c *Controller) error {
	if c == nil {
		return nil
	}
	return c.Logout(ctx)
}

/*
====================================
UI ACTIONS
====================================
*/

// ToggleSidebar flips the collapsed layout and persists it.
func (c *Controller) ToggleSidebar(ctx context.Context) (uistate.Layout, error) {
	if c == nil {
		return uistate.Layout{}, ErrControllerNotReady
	}
	c.metrics().Inc(MetricSidebarToggle)
	return c.ui.Toggle(ctx)
}

// Layout returns the current layout.
func (c *Controller) Layout() uistate.Layout {
	if c == nil {
		return uistate.Layout{}
	}
	return c.ui.Layout()
}

// SubmitForm hands a submission to the dispatcher. It returns false when the
// default submission should proceed.
func (c *Controller) SubmitForm(ctx context.Context, form *dispatch.Form) bool {
	if c == nil {
		return false
	}
	busy := c.forms.InFlight(form)
	handled := c.forms.Submit(ctx, form)
	if handled && !busy && c.forms.InFlight(form) {
		c.metrics().Inc(MetricFormSubmitted)
	}
	return handled
}

// ConfirmDestructive asks before a destructive action and reports whether it
// proceeded.
func (c *Controller) ConfirmDestructive(ctx context.Context, action dispatch.DestructiveAction) bool {
	if c == nil {
		return false
	}
	ok := c.forms.ConfirmDestructive(ctx, action)
	if ok {
		c.metrics().Inc(MetricDestructiveConfirmed)
	} else {
		c.metrics().Inc(MetricDestructiveDeclined)
	}
	return ok
}

// Notify shows a general notification.
func (c *Controller) Notify(message string, severity notify.Severity, opts ...notify.Option) notify.Notification {
	if c == nil {
		return notify.Notification{}
	}
	return c.notices.Show(message, severity, opts...)
}

// Notifications returns the notification center.
func (c *Controller) Notifications() *notify.Center { return c.notices }

// Dispatcher returns the form dispatcher.
func (c *Controller) Dispatcher() *dispatch.Dispatcher { return c.forms }

// UIState returns the layout controller.
func (c *Controller) UIState() *uistate.Controller { return c.ui }

// Messages returns the active message catalog.
func (c *Controller) Messages() Messages { return c.messages }

// Routes returns the configured site routes.
func (c *Controller) Routes() guard.Routes { return c.config.Routes }

/*
====================================
LIFECYCLE
====================================
*/

// End finishes the browsing context: its context-scoped storage, and with it
// the session record, is discarded. Durable preferences survive.
func (c *Controller) End(ctx context.Context) error {
	if c == nil {
		return ErrControllerNotReady
	}
	if ender, ok := c.contextKV.(ContextEnder); ok {
		ender.End()
		return nil
	}
	return c.sessions.Clear(ctx)
}

// Close releases telemetry owned by the Controller.
func (c *Controller) Close() {
	if c == nil || !c.ownsTelemetry {
		return
	}
	c.telemetry.Close()
}

// MetricsSnapshot returns a copy of the counters.
func (c *Controller) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{}
	}
	return c.telemetry.MetricsSnapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (c *Controller) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.telemetry.AuditDropped()
}

func (c *Controller) metrics() *Metrics {
	return c.telemetry.Metrics()
}

// navigate prefers a navigator attached to ctx over the configured one.
func (c *Controller) navigate(ctx context.Context, path string) {
	if nav, ok := navigatorFromContext(ctx); ok {
		nav.Navigate(ctx, path)
		return
	}
	c.nav.Navigate(ctx, path)
}
