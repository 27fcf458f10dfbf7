package goPortal

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/goPortal/internal/audit"
)

// Navigator changes the current page. In a browser host it sets the location;
// in an HTTP host it answers with a redirect.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmerFunc adapts a function to [Confirmer].
type ConfirmerFunc func(message string) bool

func (f ConfirmerFunc) Confirm(message string) bool { return f(message) }

// Scheduler is the page's event loop: a clock plus one-shot timers whose
// callbacks run one at a time.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func())
}

// ContextEnder is implemented by context-scoped stores that can be cleared
// when their browsing context ends.
type ContextEnder interface {
	End()
}

// AuditEvent is one audit record.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink logs audit events through a structured logger.
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer.
var NewChannelSink = internalaudit.NewChannelSink

// NewJSONWriterSink creates a [JSONWriterSink].
var NewJSONWriterSink = internalaudit.NewJSONWriterSink

// NewSlogSink creates a [SlogSink].
var NewSlogSink = internalaudit.NewSlogSink
