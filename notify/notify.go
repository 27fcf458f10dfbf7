// Package notify manages transient feedback: alert notifications that dismiss
// themselves after a timer, and the single loading overlay.
//
// A Center is not safe for concurrent use. All calls, including timer
// callbacks, must come from the page's event loop.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notification stays visible unless overridden.
const DefaultTTL = 5 * time.Second

// Severity maps to the alert style of the rendering layer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Tag groups notifications that must not stack.
type Tag string

const (
	// TagGeneral notifications coexist freely.
	TagGeneral Tag = ""
	// TagAuth notifications are exclusive: at most one is visible.
	TagAuth Tag = "auth"
)

// Notification is one visible alert. Never persisted.
type Notification struct {
	ID       string
	Message  string
	Severity Severity
	Tag      Tag
	TTL      time.Duration
	ShownAt  time.Time
}

// Scheduler runs callbacks on the page's event loop.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func())
}

// Listener is the rendering collaborator. Calls arrive on the event loop.
type Listener interface {
	NotificationShown(n Notification)
	NotificationRemoved(n Notification)
	LoadingChanged(visible bool)
}

// NopListener ignores every event.
type NopListener struct{}

func (NopListener) NotificationShown(Notification)   {}
func (NopListener) NotificationRemoved(Notification) {}
func (NopListener) LoadingChanged(bool)              {}

// Option adjusts a single Show call.
type Option func(*Notification)

// WithTTL overrides the display duration. Non-positive values keep the
// default.
func WithTTL(d time.Duration) Option {
	return func(n *Notification) {
		if d > 0 {
			n.TTL = d
		}
	}
}

// WithTag tags the notification.
func WithTag(tag Tag) Option {
	return func(n *Notification) { n.Tag = tag }
}

// Center owns the visible notifications and the loading overlay flag.
type Center struct {
	sched    Scheduler
	listener Listener
	ttl      time.Duration

	active  []Notification
	loading bool
}

// NewCenter creates a center. ttl <= 0 uses DefaultTTL; a nil listener
// ignores events.
func NewCenter(sched Scheduler, listener Listener, ttl time.Duration) *Center {
	if listener == nil {
		listener = NopListener{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{sched: sched, listener: listener, ttl: ttl}
}

// Show displays a notification and schedules its removal. A new TagAuth
// notification first evicts the visible one.
func (c *Center) Show(message string, severity Severity, opts ...Option) Notification {
	if severity == "" {
		severity = SeverityInfo
	}
	n := Notification{
		ID:       uuid.NewString(),
		Message:  message,
		Severity: severity,
		TTL:      c.ttl,
		ShownAt:  c.sched.Now(),
	}
	for _, opt := range opts {
		opt(&n)
	}

	if n.Tag == TagAuth {
		for _, old := range c.ActiveByTag(TagAuth) {
			c.remove(old.ID)
		}
	}

	c.active = append(c.active, n)
	c.listener.NotificationShown(n)

	id := n.ID
	c.sched.AfterFunc(n.TTL, func() {
		// Already gone when evicted or dismissed.
		c.remove(id)
	})
	return n
}

// ShowAuth shows an exclusive TagAuth notification.
func (c *Center) ShowAuth(message string, severity Severity) Notification {
	return c.Show(message, severity, WithTag(TagAuth))
}

// Dismiss removes a visible notification early. Unknown IDs are ignored.
func (c *Center) Dismiss(id string) bool {
	return c.remove(id)
}

func (c *Center) remove(id string) bool {
	for i, n := range c.active {
		if n.ID != id {
			continue
		}
		c.active = append(c.active[:i], c.active[i+1:]...)
		c.listener.NotificationRemoved(n)
		return true
	}
	return false
}

// Active returns the visible notifications in display order.
func (c *Center) Active() []Notification {
	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

// ActiveByTag returns the visible notifications carrying tag.
func (c *Center) ActiveByTag(tag Tag) []Notification {
	var out []Notification
	for _, n := range c.active {
		if n.Tag == tag {
			out = append(out, n)
		}
	}
	return out
}

// ShowLoading raises the overlay. Raising it twice keeps one overlay.
func (c *Center) ShowLoading() {
	if c.loading {
		return
	}
	c.loading = true
	c.listener.LoadingChanged(true)
}

// HideLoading removes the overlay; without an overlay it does nothing.
func (c *Center) HideLoading() {
	if !c.loading {
		return
	}
	c.loading = false
	c.listener.LoadingChanged(false)
}

// Loading reports whether the overlay is visible.
func (c *Center) Loading() bool {
	return c.loading
}
