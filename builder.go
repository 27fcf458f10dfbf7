package goPortal

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/goPortal/credential"
	"github.com/MrEthical07/goPortal/dispatch"
	"github.com/MrEthical07/goPortal/kv"
	"github.com/MrEthical07/goPortal/notify"
	"github.com/MrEthical07/goPortal/session"
	"github.com/MrEthical07/goPortal/uistate"
)

// Builder assembles a Controller for one browsing context. A Builder is
// single use.
type Builder struct {
	config Config

	contextStore kv.Store
	durableStore kv.Store
	credentials  credential.Lookup

	navigator Navigator
	scheduler Scheduler
	confirmer Confirmer
	submitter dispatch.Submitter
	viewport  uistate.Viewport
	surface   uistate.Surface
	listener  notify.Listener

	logger    *slog.Logger
	auditSink AuditSink
	telemetry *Telemetry

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithContextStore sets the store scoped to the browsing context. It holds
// the session record. Defaults to a fresh [kv.Memory].
func (b *Builder) WithContextStore(store kv.Store) *Builder {
	b.contextStore = store
	return b
}

// WithDurableStore sets the store that outlives the browsing context. It
// holds layout preferences. Defaults to a fresh [kv.Memory].
func (b *Builder) WithDurableStore(store kv.Store) *Builder {
	b.durableStore = store
	return b
}

// WithCredentials sets the credential lookup. Defaults to
// [credential.DefaultTable].
func (b *Builder) WithCredentials(lookup credential.Lookup) *Builder {
	b.credentials = lookup
	return b
}

// WithNavigator sets how page changes are performed. Required.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithScheduler sets the page's event loop. Required.
func (b *Builder) WithScheduler(s Scheduler) *Builder {
	b.scheduler = s
	return b
}

// WithConfirmer sets the yes/no prompt. Without one every confirmation is
// declined.
func (b *Builder) WithConfirmer(c Confirmer) *Builder {
	b.confirmer = c
	return b
}

// WithSubmitter replaces the simulated form submission effect.
func (b *Builder) WithSubmitter(s dispatch.Submitter) *Builder {
	b.submitter = s
	return b
}

// WithViewport sets the viewport width probe. Without one the page is
// treated as desktop.
func (b *Builder) WithViewport(v uistate.Viewport) *Builder {
	b.viewport = v
	return b
}

// WithSurface sets the layout regions. Without one layout changes are only
// tracked and persisted.
func (b *Builder) WithSurface(s uistate.Surface) *Builder {
	b.surface = s
	return b
}

// WithNotificationListener sets the rendering collaborator of notifications.
func (b *Builder) WithNotificationListener(l notify.Listener) *Builder {
	b.listener = l
	return b
}

// WithLogger sets the structured logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink of a privately owned [Telemetry]. It is
// ignored when WithTelemetry is used.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithTelemetry shares metrics and audit with other Controllers. The caller
// closes it.
func (b *Builder) WithTelemetry(t *Telemetry) *Builder {
	b.telemetry = t
	return b
}

// WithMetricsEnabled toggles counters of a privately owned [Telemetry].
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the guard latency histogram of a privately
// owned [Telemetry].
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Controller.
func (b *Builder) Build() (*Controller, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.navigator == nil {
		return nil, errors.New("navigator required")
	}
	if b.scheduler == nil {
		return nil, errors.New("scheduler required")
	}

	loc, err := loadLocation(cfg.TimeZone)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	contextStore := b.contextStore
	if contextStore == nil {
		contextStore = kv.NewMemory()
	}
	durableStore := b.durableStore
	if durableStore == nil {
		durableStore = kv.NewMemory()
	}
	credentials := b.credentials
	if credentials == nil {
		credentials = credential.DefaultTable()
	}

	messages := MessagesFor(cfg.Locale)

	c := &Controller{
		config:    cfg,
		messages:  messages,
		location:  loc,
		contextKV: contextStore,
		sessions:  session.NewStore(contextStore, cfg.Session.Key),
		auth:      NewAuthenticator(credentials, b.scheduler.Now),
		nav:       b.navigator,
		confirmer: b.confirmer,
		sched:     b.scheduler,
		logger:    logger,
	}

	// -------- TELEMETRY --------
	if b.telemetry != nil {
		c.telemetry = b.telemetry
	} else {
		c.telemetry = NewTelemetry(cfg, b.auditSink)
		c.ownsTelemetry = true
	}

	// -------- UI STATE --------
	c.ui = uistate.NewController(durableStore, b.surface, b.viewport, uistate.Options{
		Key:              cfg.UI.PreferenceKey,
		MobileBreakpoint: cfg.UI.MobileBreakpoint,
		Logger:           logger.With("component", "uistate"),
	})

	// -------- NOTIFICATIONS --------
	c.notices = notify.NewCenter(b.scheduler, b.listener, cfg.Notifications.TTL)

	// -------- FORMS --------
	submitter := b.submitter
	if submitter == nil {
		submitter = dispatch.SimulatedSubmitter{Sched: b.scheduler, Latency: cfg.Forms.SubmitLatency}
	}
	var confirmer dispatch.Confirmer
	if b.confirmer != nil {
		confirmer = b.confirmer
	}
	c.forms = dispatch.New(dispatch.Config{
		Notifier:  c.notices,
		Submitter: submitter,
		Confirmer: confirmer,
		Navigator: NavigatorFunc(c.navigate),
		Messages: dispatch.Messages{
			Saved:         messages.Saved,
			SaveFailed:    messages.SaveFailed,
			ConfirmDelete: messages.ConfirmDelete,
		},
		Logger: logger.With("component", "dispatch"),
	})

	b.built = true

	return c, nil
}
