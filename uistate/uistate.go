// Package uistate persists and restores layout preferences.
//
// The collapsed-sidebar preference lives in durable storage and is not scoped
// to a user. The sidebar and the main content region always change together:
// every change is applied through a single [Surface.ApplyLayout] call.
package uistate

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/MrEthical07/goPortal/kv"
)

const (
	// DefaultKey is the durable key of the collapsed-sidebar preference.
	DefaultKey = "sidebarCollapsed"
	// DefaultMobileBreakpoint is the widest viewport treated as mobile.
	DefaultMobileBreakpoint = 768
)

// Layout is the visual state of the two collaborating regions.
type Layout struct {
	SidebarCollapsed bool
	MainExpanded     bool
	// SidebarShown is the transient mobile flag; never persisted.
	SidebarShown bool
}

// Surface is the rendering collaborator holding the sidebar and main regions.
type Surface interface {
	ApplyLayout(l Layout)
	// Show makes the regions visible; Restore applies state before calling it.
	Show()
}

// Viewport reports the current viewport width in CSS pixels.
type Viewport func() int

// Options configures a Controller.
type Options struct {
	Key              string
	MobileBreakpoint int
	Logger           *slog.Logger
}

// Controller owns the layout state of one page.
type Controller struct {
	store    kv.Store
	surface  Surface
	viewport Viewport
	key      string
	mobile   int
	logger   *slog.Logger

	layout Layout
}

// NewController creates a controller. A nil surface makes every operation a
// silent no-op on the visual side; a nil viewport is treated as desktop.
func NewController(store kv.Store, surface Surface, viewport Viewport, opts Options) *Controller {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.MobileBreakpoint <= 0 {
		opts.MobileBreakpoint = DefaultMobileBreakpoint
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		store:    store,
		surface:  surface,
		viewport: viewport,
		key:      opts.Key,
		mobile:   opts.MobileBreakpoint,
		logger:   opts.Logger,
	}
}

// Layout returns the current visual state.
func (c *Controller) Layout() Layout {
	return c.layout
}

// Restore reads the persisted preference and applies it before the regions
// become visible. A read failure falls back to the expanded layout and is
// returned after the regions are shown.
func (c *Controller) Restore(ctx context.Context) (Layout, error) {
	collapsed, err := c.load(ctx)

	c.layout = Layout{SidebarCollapsed: collapsed, MainExpanded: collapsed}
	if c.surface != nil {
		c.surface.ApplyLayout(c.layout)
		c.surface.Show()
	}
	return c.layout, err
}

// Toggle flips the collapsed state of both regions at once and persists it.
// On mobile viewports it also flips the transient SidebarShown flag. The
// visual change is applied even when persisting fails. Without a Surface the
// preference is still flipped and persisted; only the repaint is skipped.
func (c *Controller) Toggle(ctx context.Context) (Layout, error) {
	next := c.layout
	next.SidebarCollapsed = !next.SidebarCollapsed
	next.MainExpanded = next.SidebarCollapsed
	if c.isMobile() {
		next.SidebarShown = !next.SidebarShown
	}

	c.layout = next
	if c.surface != nil {
		c.surface.ApplyLayout(next)
	}

	if c.store == nil {
		return next, nil
	}
	if err := c.store.Set(ctx, c.key, strconv.FormatBool(next.SidebarCollapsed)); err != nil {
		c.logger.Warn("persist sidebar preference", "error", err)
		return next, err
	}
	return next, nil
}

// Clear removes the persisted preference. The current visual state is kept.
func (c *Controller) Clear(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, c.key)
}

func (c *Controller) isMobile() bool {
	return c.viewport != nil && c.viewport() <= c.mobile
}

func (c *Controller) load(ctx context.Context) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.logger.Warn("read sidebar preference", "error", err)
		return false, err
	}
	if !ok {
		return false, nil
	}
	// Anything but "true" keeps the expanded layout.
	return raw == "true", nil
}
