package internaldefs

import (
	goPortal "github.com/MrEthical07/goPortal"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goPortal.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goPortal.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: goPortal.MetricLoginSuccess, Name: "goportal_login_success_total", Help: "Logins that produced a session record."},
	{ID: goPortal.MetricLoginFailure, Name: "goportal_login_failure_total", Help: "Logins rejected for mismatched credentials."},
	{ID: goPortal.MetricLoginRejected, Name: "goportal_login_rejected_total", Help: "Logins rejected by input validation."},
	{ID: goPortal.MetricCredentialsUnavailable, Name: "goportal_credentials_unavailable_total", Help: "Logins that failed on the credential lookup."},
	{ID: goPortal.MetricLogout, Name: "goportal_logout_total", Help: "Logouts."},
	{ID: goPortal.MetricGuardRender, Name: "goportal_guard_render_total", Help: "Page entries allowed to render."},
	{ID: goPortal.MetricGuardRedirectLogin, Name: "goportal_guard_redirect_login_total", Help: "Unauthenticated page entries sent to the login page."},
	{ID: goPortal.MetricGuardRedirectDashboard, Name: "goportal_guard_redirect_dashboard_total", Help: "Authenticated login-page entries sent to the role dashboard."},
	{ID: goPortal.MetricGuardUnmappedRole, Name: "goportal_guard_unmapped_role_total", Help: "Session records whose role has no dashboard."},
	{ID: goPortal.MetricSessionCorrupt, Name: "goportal_session_corrupt_total", Help: "Undecodable session records discarded."},
	{ID: goPortal.MetricSidebarToggle, Name: "goportal_sidebar_toggle_total", Help: "Sidebar toggles."},
	{ID: goPortal.MetricFormSubmitted, Name: "goportal_form_submitted_total", Help: "Async form submissions started."},
	{ID: goPortal.MetricDestructiveConfirmed, Name: "goportal_destructive_confirmed_total", Help: "Destructive actions confirmed."},
	{ID: goPortal.MetricDestructiveDeclined, Name: "goportal_destructive_declined_total", Help: "Destructive actions declined."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goPortal.MetricGuardLatency, Name: "goportal_guard_latency_seconds", Help: "Page entry guard latency histogram."},
}

// HistogramBounds are the upper bounds of the latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// AuditDroppedName is the counter of audit events lost under backpressure.
const (
	AuditDroppedName = "goportal_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into cumulative "le" counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
