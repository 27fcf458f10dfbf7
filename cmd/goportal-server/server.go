package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	goPortal "github.com/MrEthical07/goPortal"
	"github.com/MrEthical07/goPortal/dispatch"
	"github.com/MrEthical07/goPortal/jwt"
	"github.com/MrEthical07/goPortal/metrics/export/prometheus"
	"github.com/MrEthical07/goPortal/middleware"
	"github.com/MrEthical07/goPortal/uistate"
)

const deviceCookieName = "gp_device"

type deviceContextKey struct{}

// Server is the demo HTTP host. Every browser tab is a browsing context with
// its own Controller; layout preferences are shared per browser.
type Server struct {
	cfg       hostConfig
	portal    goPortal.Config
	messages  goPortal.Messages
	prefs     preferences
	telemetry *goPortal.Telemetry
	registry  *middleware.Registry
	exporter  *prometheus.PrometheusExporter
	otel      *otelMetrics
	logger    *slog.Logger
}

// NewServer wires the registry, telemetry and exporter. prefs is closed by
// the caller.
func NewServer(cfg hostConfig, prefs preferences, logger *slog.Logger) (*Server, error) {
	key := []byte(cfg.TokenKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token key: %w", err)
		}
		logger.Warn("no token key configured; context cookies will not survive a restart")
	}
	tokens, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    key,
		Issuer:        "goportal",
	})
	if err != nil {
		return nil, err
	}

	portal := cfg.portalConfig()
	var sink goPortal.AuditSink
	if cfg.Audit {
		sink = goPortal.NewSlogSink(logger.With("component", "audit"))
	}
	telemetry := goPortal.NewTelemetry(portal, sink)

	s := &Server{
		cfg:       cfg,
		portal:    portal,
		messages:  goPortal.MessagesFor(portal.Locale),
		prefs:     prefs,
		telemetry: telemetry,
		exporter:  prometheus.NewPrometheusExporter(telemetry),
		logger:    logger,
	}
	if cfg.OTel {
		if s.otel, err = newOTelMetrics(telemetry); err != nil {
			telemetry.Close()
			return nil, err
		}
	}
	s.registry, err = middleware.NewRegistry(middleware.Config{
		Tokens:       tokens,
		Factory:      s.newController,
		SecureCookie: cfg.SecureCookie,
		Logger:       logger.With("component", "registry"),
	})
	if err != nil {
		s.closeMetrics(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Server) newController(r *http.Request, id string, nav goPortal.Navigator, sched goPortal.Scheduler) (*goPortal.Controller, error) {
	device, _ := r.Context().Value(deviceContextKey{}).(string)
	c, err := goPortal.New().
		WithConfig(s.portal).
		WithDurableStore(s.prefs.For(device)).
		WithNavigator(nav).
		WithScheduler(sched).
		WithViewport(viewportFrom(r)).
		WithLogger(s.logger.With("context_id", id)).
		WithTelemetry(s.telemetry).
		Build()
	if err != nil {
		return nil, err
	}
	// The loop is not running yet, so the layout can be restored here.
	if _, err := c.UIState().Restore(r.Context()); err != nil {
		s.logger.Warn("restore layout", "context_id", id, "error", err)
	}
	return c, nil
}

// viewportFrom reads the viewport width client hint of the request that
// opened the context.
func viewportFrom(r *http.Request) uistate.Viewport {
	width, err := strconv.Atoi(r.Header.Get("Sec-CH-Viewport-Width"))
	if err != nil || width <= 0 {
		return nil
	}
	return func() int { return width }
}

// Router returns the HTTP routes of the portal.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.deviceCookie)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.exporter.Handler())
	if s.otel != nil {
		r.Method(http.MethodGet, "/metrics/otel", s.otel.handler())
	}

	r.With(middleware.LoginPage(s.registry)).Get(s.portal.Routes.LoginPath, s.handlePage)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Post("/ui/sidebar/toggle", s.handleToggle)
	r.Get("/state", s.handleState)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(s.registry))
		r.Get("/{role}/dashboard.html", s.handlePage)
		r.Post("/forms/{formID}", s.handleForm)
	})
	return r
}

// Sweep ends idle browsing contexts until ctx is done. A context nobody
// used for IdleTimeout is treated like a closed tab; a zero IdleTimeout keeps
// every context until shutdown.
func (s *Server) Sweep(ctx context.Context) {
	if s.cfg.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.registry.Sweep(ctx, s.cfg.IdleTimeout); n > 0 {
				s.logger.Debug("swept idle contexts", "count", n)
			}
		}
	}
}

// Close ends every browsing context and flushes audit events.
func (s *Server) Close(ctx context.Context) {
	s.registry.Close(ctx)
	s.closeMetrics(ctx)
}

func (s *Server) closeMetrics(ctx context.Context) {
	if s.otel != nil {
		if err := s.otel.close(ctx); err != nil {
			s.logger.Warn("close otel metrics", "error", err)
		}
	}
	s.telemetry.Close()
}

func (s *Server) deviceCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var device string
		if c, err := r.Cookie(deviceCookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				device = c.Value
			}
		}
		if device == "" {
			device = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     deviceCookieName,
				Value:    device,
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				Secure:   s.cfg.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceContextKey{}, device)))
	})
}

/*
====================================
HANDLERS
====================================
*/

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	entry, ok := middleware.EntryFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no_context")
		return
	}
	var view pageView
	if _, err := s.registry.Do(r, entry, func(ctx context.Context, e *middleware.Entry) {
		view = buildView(ctx, e.Controller, r.URL.Path)
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "context_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form")
		return
	}
	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")
	role := r.PostForm.Get("role")

	var (
		view     pageView
		loginErr error
	)
	location, err := s.registry.Call(w, r, func(ctx context.Context, e *middleware.Entry) {
		_, loginErr = e.Controller.Login(ctx, email, password, role)
		if loginErr != nil {
			view = buildView(ctx, e.Controller, s.portal.Routes.LoginPath)
			view.Error = e.Controller.Messages().For(loginErr)
		}
	})
	if err != nil {
		s.logger.Error("login", "error", err)
		writeError(w, http.StatusServiceUnavailable, "context_unavailable")
		return
	}
	if loginErr != nil {
		writeJSON(w, loginStatus(loginErr), view)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func loginStatus(err error) int {
	switch {
	case errors.Is(err, goPortal.ErrMissingFields), errors.Is(err, goPortal.ErrInvalidEmailFormat):
		return http.StatusBadRequest
	case errors.Is(err, goPortal.ErrCredentialsUnavailable), errors.Is(err, goPortal.ErrSessionUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// handleLogout logs out only once the client confirmed; otherwise it answers
// 409 with the question to ask.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form")
		return
	}
	if confirmed, _ := strconv.ParseBool(r.PostForm.Get("confirm")); !confirmed {
		writeJSON(w, http.StatusConflict, map[string]string{"confirm": s.messages.ConfirmLogout})
		return
	}

	var logoutErr error
	location, err := s.registry.Call(w, r, func(ctx context.Context, e *middleware.Entry) {
		logoutErr = goPortal.Logout(ctx, e.Controller)
	})
	if err == nil {
		err = logoutErr
	}
	if err != nil {
		s.logger.Error("logout", "error", err)
		writeError(w, http.StatusServiceUnavailable, "logout_failed")
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var (
		layout    uistate.Layout
		toggleErr error
	)
	if _, err := s.registry.Call(w, r, func(ctx context.Context, e *middleware.Entry) {
		layout, toggleErr = e.Controller.ToggleSidebar(ctx)
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "context_unavailable")
		return
	}
	status := http.StatusOK
	if toggleErr != nil {
		// The layout changed on screen; only persisting it failed.
		status = http.StatusAccepted
	}
	writeJSON(w, status, newLayoutView(layout))
}

// handleForm submits a form through the dispatcher. Fields prefixed with an
// underscore steer the submission instead of being sent.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	entry, ok := middleware.EntryFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no_context")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form")
		return
	}

	form := dispatch.NewForm(chi.URLParam(r, "formID"), nil)
	form.Action = r.URL.Path
	form.Async, _ = strconv.ParseBool(r.PostForm.Get("_async"))
	form.Redirect = r.PostForm.Get("_redirect")
	for name := range r.PostForm {
		if strings.HasPrefix(name, "_") {
			continue
		}
		form.Set(name, r.PostForm.Get(name))
	}

	var (
		view    pageView
		handled bool
	)
	if _, err := s.registry.Do(r, entry, func(ctx context.Context, e *middleware.Entry) {
		handled = e.Controller.SubmitForm(ctx, form)
		view = buildView(ctx, e.Controller, r.URL.Path)
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "context_unavailable")
		return
	}
	if !handled {
		// Plain forms are not intercepted; the host has no backend for them.
		writeJSON(w, http.StatusNotImplemented, view)
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

// handleState reports the context's visible state, including a navigation
// left behind by a completed background action.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var view pageView
	if _, err := s.registry.Call(w, r, func(ctx context.Context, e *middleware.Entry) {
		view = buildView(ctx, e.Controller, "")
		view.Location = e.TakeLocation()
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "context_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

/*
====================================
VIEWS
====================================
*/

type pageView struct {
	Page          string             `json:"page,omitempty"`
	User          *userView          `json:"user,omitempty"`
	Layout        layoutView         `json:"layout"`
	Loading       bool               `json:"loading"`
	Notifications []notificationView `json:"notifications"`
	Error         string             `json:"error,omitempty"`
	Location      string             `json:"location,omitempty"`
}

type userView struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	LoginTime string `json:"loginTime"`
}

type layoutView struct {
	SidebarCollapsed bool `json:"sidebarCollapsed"`
	MainExpanded     bool `json:"mainExpanded"`
	SidebarShown     bool `json:"sidebarShown"`
}

type notificationView struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Tag      string `json:"tag,omitempty"`
}

func newLayoutView(l uistate.Layout) layoutView {
	return layoutView{
		SidebarCollapsed: l.SidebarCollapsed,
		MainExpanded:     l.MainExpanded,
		SidebarShown:     l.SidebarShown,
	}
}

// buildView must run on the context's loop.
func buildView(ctx context.Context, c *goPortal.Controller, page string) pageView {
	view := pageView{
		Page:          page,
		Layout:        newLayoutView(c.Layout()),
		Loading:       c.Notifications().Loading(),
		Notifications: []notificationView{},
	}
	if c.IsAuthenticated(ctx) {
		view.User = &userView{
			Email:     c.UserInfo(ctx, goPortal.UserInfoUsername),
			Role:      c.UserInfo(ctx, goPortal.UserInfoRole),
			LoginTime: c.UserInfo(ctx, goPortal.UserInfoLoginTime),
		}
	}
	for _, n := range c.Notifications().Active() {
		view.Notifications = append(view.Notifications, notificationView{
			ID:       n.ID,
			Message:  n.Message,
			Severity: string(n.Severity),
			Tag:      string(n.Tag),
		})
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
