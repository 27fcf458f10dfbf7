package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	goPortal "github.com/MrEthical07/goPortal"
	"github.com/MrEthical07/goPortal/internal/loop"
	"github.com/MrEthical07/goPortal/jwt"
	"github.com/google/uuid"
)

// DefaultCookieName carries the browsing-context token.
const DefaultCookieName = "gp_ctx"

var (
	// ErrRegistryClosed is returned after Close.
	ErrRegistryClosed = errors.New("registry closed")
	// ErrNoFactory is returned by NewRegistry without a Factory.
	ErrNoFactory = errors.New("controller factory required")
)

// Factory builds the Controller of a new browsing context. r is the request
// that opened the context; nav and sched must be handed to the Builder
// unchanged.
type Factory func(r *http.Request, id string, nav goPortal.Navigator, sched goPortal.Scheduler) (*goPortal.Controller, error)

// Config configures a Registry.
type Config struct {
	Tokens       *jwt.Manager
	Factory      Factory
	CookieName   string
	CookiePath   string
	SecureCookie bool
	Logger       *slog.Logger
}

// Entry is one live browsing context.
type Entry struct {
	ID         string
	Controller *goPortal.Controller

	loop *loop.Loop
	// location is the last page navigated to outside a request. Owned by
	// the loop goroutine.
	location string
	lastSeen time.Time
}

// TakeLocation returns and clears the pending navigation left by a
// completed background action. Call it from inside [Registry.Call].
func (e *Entry) TakeLocation() string {
	loc := e.location
	e.location = ""
	return loc
}

// Registry owns the browsing contexts of a server.
type Registry struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
	closed  bool

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry validates cfg and returns an empty registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Factory == nil {
		return nil, ErrNoFactory
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token manager required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cfg:     cfg,
		logger:  cfg.Logger,
		entries: make(map[string]*Entry),
		runCtx:  ctx,
		cancel:  cancel,
	}, nil
}

// Resolve returns the browsing context of r, creating one and setting its
// cookie when r carries no valid token or names a context that has ended.
func (reg *Registry) Resolve(w http.ResponseWriter, r *http.Request) (*Entry, error) {
	if c, err := r.Cookie(reg.cfg.CookieName); err == nil {
		claims, err := reg.cfg.Tokens.Parse(c.Value)
		if err == nil {
			if e, ok := reg.lookup(claims.CID); ok {
				return e, nil
			}
		} else {
			reg.logger.Debug("discarding context cookie", "error", err)
		}
	}

	e, err := reg.create(r)
	if err != nil {
		return nil, err
	}
	token, err := reg.cfg.Tokens.Issue(e.ID)
	if err != nil {
		reg.End(r.Context(), e.ID)
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     reg.cfg.CookieName,
		Value:    token,
		Path:     reg.cfg.CookiePath,
		HttpOnly: true,
		Secure:   reg.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return e, nil
}

func (reg *Registry) lookup(id string) (*Entry, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	e, ok := reg.entries[id]
	if ok {
		e.lastSeen = time.Now()
	}
	return e, ok
}

func (reg *Registry) create(r *http.Request) (*Entry, error) {
	reg.mu.Lock()
	if reg.closed {
		reg.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	reg.mu.Unlock()

	e := &Entry{
		ID:       uuid.NewString(),
		loop:     loop.New(time.Now()),
		lastSeen: time.Now(),
	}
	nav := goPortal.NavigatorFunc(func(_ context.Context, path string) {
		e.location = path
	})
	ctrl, err := reg.cfg.Factory(r, e.ID, nav, e.loop)
	if err != nil {
		e.loop.Close()
		return nil, err
	}
	e.Controller = ctrl

	reg.mu.Lock()
	if reg.closed {
		reg.mu.Unlock()
		e.loop.Close()
		ctrl.Close()
		return nil, ErrRegistryClosed
	}
	reg.entries[e.ID] = e
	reg.mu.Unlock()

	reg.wg.Add(1)
	go func() {
		defer reg.wg.Done()
		if err := e.loop.Run(reg.runCtx); err != nil && !errors.Is(err, context.Canceled) {
			reg.logger.Warn("context loop stopped", "context_id", e.ID, "error", err)
		}
	}()

	reg.logger.Debug("browsing context created", "context_id", e.ID)
	return e, nil
}

// Call resolves the browsing context of r and runs fn on its event loop.
// Navigation performed during fn is returned as location instead of being
// recorded on the entry, so the caller can answer with a redirect.
func (reg *Registry) Call(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, e *Entry)) (location string, err error) {
	e, err := reg.Resolve(w, r)
	if err != nil {
		return "", err
	}
	return reg.Do(r, e, fn)
}

// Do runs fn on the event loop of an already resolved entry, such as the one
// a guard placed in the request context. Timers started by fn that navigate
// after it returned leave their target on the entry instead.
func (reg *Registry) Do(r *http.Request, e *Entry, fn func(ctx context.Context, e *Entry)) (location string, err error) {
	returned := false
	ctx := goPortal.WithContextID(r.Context(), e.ID)
	ctx = goPortal.WithClientIP(ctx, clientIP(r))
	ctx = goPortal.WithNavigator(ctx, goPortal.NavigatorFunc(func(_ context.Context, path string) {
		if returned {
			e.location = path
			return
		}
		location = path
	}))

	err = e.loop.Do(r.Context(), func() {
		fn(ctx, e)
		returned = true
	})
	if err != nil {
		return "", err
	}
	return location, nil
}

// End finishes a browsing context: its session record is discarded and its
// loop stopped. Unknown ids are ignored.
func (reg *Registry) End(ctx context.Context, id string) {
	reg.mu.Lock()
	e, ok := reg.entries[id]
	delete(reg.entries, id)
	reg.mu.Unlock()
	if !ok {
		return
	}
	reg.end(ctx, e)
}

func (reg *Registry) end(ctx context.Context, e *Entry) {
	if err := e.loop.Do(ctx, func() {
		if err := e.Controller.End(ctx); err != nil {
			reg.logger.Warn("end browsing context", "context_id", e.ID, "error", err)
		}
	}); err != nil {
		reg.logger.Debug("end browsing context outside loop", "context_id", e.ID, "error", err)
	}
	e.loop.Close()
	e.Controller.Close()
}

// Sweep ends contexts idle for longer than idle and returns how many ended.
func (reg *Registry) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	reg.mu.Lock()
	var stale []*Entry
	for id, e := range reg.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(reg.entries, id)
		}
	}
	reg.mu.Unlock()

	for _, e := range stale {
		reg.end(ctx, e)
	}
	return len(stale)
}

// Len reports the number of live contexts.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.entries)
}

// Close ends every context and stops their loops.
func (reg *Registry) Close(ctx context.Context) {
	reg.mu.Lock()
	if reg.closed {
		reg.mu.Unlock()
		return
	}
	reg.closed = true
	entries := reg.entries
	reg.entries = make(map[string]*Entry)
	reg.mu.Unlock()

	for _, e := range entries {
		reg.end(ctx, e)
	}
	reg.cancel()
	reg.wg.Wait()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
