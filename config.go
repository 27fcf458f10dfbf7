package goPortal

import (
	"errors"
	"time"

	"github.com/MrEthical07/goPortal/guard"
	"github.com/MrEthical07/goPortal/session"
	"github.com/MrEthical07/goPortal/uistate"
)

// Config holds every tunable of a Controller. Configure it before Build and
// treat it as immutable afterwards.
type Config struct {
	Routes        guard.Routes
	Session       SessionConfig
	UI            UIConfig
	Notifications NotificationConfig
	Forms         FormConfig
	Locale        string
	TimeZone      string
	Audit         AuditConfig
	Metrics       MetricsConfig
}

// SessionConfig names the context-scoped key of the session record.
type SessionConfig struct {
	Key string
}

// UIConfig controls layout persistence.
type UIConfig struct {
	PreferenceKey    string
	MobileBreakpoint int
}

// NotificationConfig controls alert lifetime.
type NotificationConfig struct {
	TTL time.Duration
}

// FormConfig controls the simulated submission effect.
type FormConfig struct {
	SubmitLatency time.Duration
}

// AuditConfig controls audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls counters and the guard latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the school portal's configuration.
func DefaultConfig() Config {
	return Config{
		Routes: guard.DefaultRoutes(),
		Session: SessionConfig{
			Key: session.DefaultKey,
		},
		UI: UIConfig{
			PreferenceKey:    uistate.DefaultKey,
			MobileBreakpoint: uistate.DefaultMobileBreakpoint,
		},
		Notifications: NotificationConfig{
			TTL: 5 * time.Second,
		},
		Forms: FormConfig{
			SubmitLatency: time.Second,
		},
		Locale:   "id",
		TimeZone: "Asia/Jakarta",
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Routes.Dashboards = make(map[session.Role]string, len(cfg.Routes.Dashboards))
	for role, p := range cfg.Routes.Dashboards {
		out.Routes.Dashboards[role] = p
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem.
func (c *Config) Validate() error {
	if err := c.Routes.Validate(); err != nil {
		return err
	}
	if c.Session.Key == "" {
		return errors.New("Session Key must be set")
	}
	if c.UI.PreferenceKey == "" {
		return errors.New("UI PreferenceKey must be set")
	}
	if c.UI.PreferenceKey == c.Session.Key {
		return errors.New("UI PreferenceKey must differ from Session Key")
	}
	if c.UI.MobileBreakpoint <= 0 {
		return errors.New("UI MobileBreakpoint must be > 0")
	}
	if c.Notifications.TTL <= 0 {
		return errors.New("Notifications TTL must be > 0")
	}
	if c.Forms.SubmitLatency <= 0 {
		return errors.New("Forms SubmitLatency must be > 0")
	}
	if _, ok := messageCatalog[c.Locale]; !ok {
		return errors.New("unsupported Locale")
	}
	if _, err := loadLocation(c.TimeZone); err != nil {
		return err
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
