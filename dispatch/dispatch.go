// Package dispatch intercepts opted-in form submissions and destructive
// actions, coordinating the loading overlay, notifications and navigation.
//
// A Dispatcher is driven from the page's event loop and is not safe for
// concurrent use.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/goPortal/notify"
)

// DefaultLatency is the simulated submission round trip.
const DefaultLatency = time.Second

// Navigator changes the current page.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(message string) bool
}

// Notifier is the part of notify.Center the dispatcher drives.
type Notifier interface {
	Show(message string, severity notify.Severity, opts ...notify.Option) notify.Notification
	ShowLoading()
	HideLoading()
}

// Submission is what a submitter sends.
type Submission struct {
	FormID string
	Action string
	Method string
	Values map[string]string
}

// Submitter performs the external submission effect and calls done exactly
// once, on the event loop, when it completes.
type Submitter interface {
	Submit(ctx context.Context, s Submission, done func(error))
}

// Scheduler runs callbacks on the page's event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// SimulatedSubmitter stands in for the absent backend: every submission
// succeeds after a fixed latency.
type SimulatedSubmitter struct {
	Sched   Scheduler
	Latency time.Duration
}

func (s SimulatedSubmitter) Submit(_ context.Context, _ Submission, done func(error)) {
	d := s.Latency
	if d <= 0 {
		d = DefaultLatency
	}
	s.Sched.AfterFunc(d, func() { done(nil) })
}

// Messages are the localized texts the dispatcher shows.
type Messages struct {
	Saved         string
	SaveFailed    string
	ConfirmDelete string
}

// DestructiveAction is a delete link or button. An empty Message uses the
// default confirmation text; an empty Target confirms without navigating.
type DestructiveAction struct {
	Message string
	Target  string
}

// Dispatcher routes form submissions and destructive actions.
type Dispatcher struct {
	notices   Notifier
	submitter Submitter
	confirmer Confirmer
	nav       Navigator
	messages  Messages
	logger    *slog.Logger

	inflight map[*Form]struct{}
}

// Config collects the dispatcher's collaborators.
type Config struct {
	Notifier  Notifier
	Submitter Submitter
	Confirmer Confirmer
	Navigator Navigator
	Messages  Messages
	Logger    *slog.Logger
}

// New creates a dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		notices:   cfg.Notifier,
		submitter: cfg.Submitter,
		confirmer: cfg.Confirmer,
		nav:       cfg.Navigator,
		messages:  cfg.Messages,
		logger:    cfg.Logger,
		inflight:  make(map[*Form]struct{}),
	}
}

// Submit handles a form submission. It returns false when the form did not
// opt into async handling and the default submission should proceed. A form
// already in flight is intercepted without a second submission.
func (d *Dispatcher) Submit(ctx context.Context, form *Form) bool {
	if form == nil || !form.Async {
		return false
	}
	if _, busy := d.inflight[form]; busy {
		return true
	}
	if d.submitter == nil {
		d.logger.Warn("async form without submitter", "form", form.ID)
		return true
	}

	d.inflight[form] = struct{}{}
	d.notices.ShowLoading()

	d.submitter.Submit(ctx, form.submission(), func(err error) {
		delete(d.inflight, form)
		d.notices.HideLoading()

		if err != nil {
			d.logger.Warn("form submission failed", "form", form.ID, "error", err)
			d.notices.Show(d.messages.SaveFailed, notify.SeverityDanger)
			return
		}

		d.notices.Show(d.messages.Saved, notify.SeveritySuccess)
		form.Reset()
		if form.Redirect != "" && d.nav != nil {
			d.nav.Navigate(ctx, form.Redirect)
		}
	})
	return true
}

// InFlight reports whether form has a pending submission.
func (d *Dispatcher) InFlight(form *Form) bool {
	_, ok := d.inflight[form]
	return ok
}

// ConfirmDestructive asks for confirmation before a destructive action and
// reports whether it proceeded. Declining has no side effect.
func (d *Dispatcher) ConfirmDestructive(ctx context.Context, action DestructiveAction) bool {
	if d.confirmer == nil {
		return false
	}
	msg := action.Message
	if msg == "" {
		msg = d.messages.ConfirmDelete
	}
	if !d.confirmer.Confirm(msg) {
		return false
	}
	if action.Target != "" && d.nav != nil {
		d.nav.Navigate(ctx, action.Target)
	}
	return true
}
