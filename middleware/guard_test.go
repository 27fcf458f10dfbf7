package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goPortal "github.com/MrEthical07/goPortal"
	"github.com/MrEthical07/goPortal/jwt"
	"github.com/MrEthical07/goPortal/kv"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	tokens, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(strings.Repeat("k", 32)),
		Issuer:        "goportal-test",
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	durable := kv.NewMemory()
	reg, err := NewRegistry(Config{
		Tokens: tokens,
		Factory: func(_ *http.Request, id string, nav goPortal.Navigator, sched goPortal.Scheduler) (*goPortal.Controller, error) {
			return goPortal.New().
				WithDurableStore(durable).
				WithNavigator(nav).
				WithScheduler(sched).
				Build()
		},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	t.Cleanup(func() { reg.Close(context.Background()) })
	return reg
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := EntryFromContext(r.Context()); !ok {
			t.Errorf("guarded handler without entry")
		}
		if d, ok := DecisionFromContext(r.Context()); !ok || !d.Render() {
			t.Errorf("guarded handler without render decision: %+v", d)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardRedirectsWithoutSession(t *testing.T) {
	reg := newTestRegistry(t)
	h := RequireSession(reg)(okHandler(t))

	rec := serve(h, http.MethodGet, "/admin/dashboard.html", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/auth/login.html" {
		t.Fatalf("expected login redirect, got %q", got)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("expected context cookie on first visit")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected one context, got %d", reg.Len())
	}
}

func TestGuardFollowsLoginAcrossRequests(t *testing.T) {
	reg := newTestRegistry(t)
	login := LoginPage(reg)(okHandler(t))
	dashboard := RequireSession(reg)(okHandler(t))

	first := serve(login, http.MethodGet, "/auth/login.html", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("expected login page to render, got %d", first.Code)
	}
	cookies := first.Result().Cookies()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	location, err := reg.Call(httptest.NewRecorder(), req, func(ctx context.Context, e *Entry) {
		if _, err := e.Controller.Login(ctx, "admin@ulilamwal.sch.id", "admin123", "admin"); err != nil {
			t.Errorf("login: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if location != "/admin/dashboard.html" {
		t.Fatalf("expected dashboard location, got %q", location)
	}

	if rec := serve(dashboard, http.MethodGet, "/admin/dashboard.html", cookies); rec.Code != http.StatusOK {
		t.Fatalf("expected dashboard to render, got %d", rec.Code)
	}
	rec := serve(login, http.MethodGet, "/auth/login.html", cookies)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/dashboard.html" {
		t.Fatalf("expected login page to bounce, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if reg.Len() != 1 {
		t.Fatalf("expected cookie to keep one context, got %d", reg.Len())
	}
}

func TestGuardReplacesInvalidCookie(t *testing.T) {
	reg := newTestRegistry(t)
	h := LoginPage(reg)(okHandler(t))

	bad := &http.Cookie{Name: DefaultCookieName, Value: "not-a-token"}
	rec := serve(h, http.MethodGet, "/auth/login.html", []*http.Cookie{bad})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected render, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "not-a-token" {
		t.Fatalf("expected fresh cookie, got %+v", cookies)
	}
}

func TestEndDiscardsSession(t *testing.T) {
	reg := newTestRegistry(t)
	h := RequireSession(reg)(okHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	var id string
	if _, err := reg.Call(rec, req, func(ctx context.Context, e *Entry) {
		id = e.ID
		_, _ = e.Controller.Login(ctx, "guru@ulilamwal.sch.id", "guru123", "guru")
	}); err != nil {
		t.Fatalf("call: %v", err)
	}
	cookies := rec.Result().Cookies()

	reg.End(context.Background(), id)
	if reg.Len() != 0 {
		t.Fatalf("expected context removed, got %d", reg.Len())
	}

	out := serve(h, http.MethodGet, "/guru/dashboard.html", cookies)
	if out.Code != http.StatusSeeOther || out.Header().Get("Location") != "/auth/login.html" {
		t.Fatalf("expected ended context to start unauthenticated, got %d %q", out.Code, out.Header().Get("Location"))
	}
}

func TestSweepEndsIdleContexts(t *testing.T) {
	reg := newTestRegistry(t)
	h := LoginPage(reg)(okHandler(t))
	serve(h, http.MethodGet, "/auth/login.html", nil)
	serve(h, http.MethodGet, "/auth/login.html", nil)

	if n := reg.Sweep(context.Background(), time.Hour); n != 0 {
		t.Fatalf("expected nothing idle, swept %d", n)
	}
	if n := reg.Sweep(context.Background(), -time.Second); n != 2 {
		t.Fatalf("expected both contexts swept, got %d", n)
	}
}

func TestNewRegistryRequiresFactory(t *testing.T) {
	if _, err := NewRegistry(Config{}); err != ErrNoFactory {
		t.Fatalf("expected ErrNoFactory, got %v", err)
	}
}
