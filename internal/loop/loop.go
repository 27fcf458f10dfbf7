// Package loop provides the single-threaded event loop that page components
// run on: timer callbacks execute one at a time, ordered by deadline, and
// never interleave.
//
// A Loop is driven either manually with Advance (virtual time, used by tests
// and by hosts that own their own clock) or in real time by Run. Callers must
// pick one driver per Loop.
package loop

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("loop closed")

type timer struct {
	due time.Time
	seq uint64
	fn  func()
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timer)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

type call struct {
	fn   func()
	done chan struct{}
}

// Loop is a cooperative scheduler with a monotonic virtual clock.
type Loop struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers timerHeap
	closed bool

	wake  chan struct{}
	calls chan call
	quit  chan struct{}
}

// New creates a loop whose clock starts at start.
func New(start time.Time) *Loop {
	return &Loop{
		now:   start,
		wake:  make(chan struct{}, 1),
		calls: make(chan call),
		quit:  make(chan struct{}),
	}
}

// Now returns the loop clock.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// AfterFunc schedules fn to run once, d after the current loop time. There is
// no cancellation: a scheduled callback runs unless the loop is closed first.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.seq++
	heap.Push(&l.timers, &timer{due: l.now.Add(d), seq: l.seq, fn: fn})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending reports the number of scheduled callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Advance moves the clock forward by d and runs every callback that falls due,
// including callbacks scheduled by earlier callbacks within the window. It
// returns the number of callbacks run.
func (l *Loop) Advance(d time.Duration) int {
	return l.advanceTo(l.Now().Add(d))
}

func (l *Loop) advanceTo(t time.Time) int {
	n := 0
	for {
		l.mu.Lock()
		if l.closed || len(l.timers) == 0 || l.timers[0].due.After(t) {
			if t.After(l.now) {
				l.now = t
			}
			l.mu.Unlock()
			return n
		}
		next := heap.Pop(&l.timers).(*timer)
		if next.due.After(l.now) {
			l.now = next.due
		}
		l.mu.Unlock()

		next.fn()
		n++
	}
}

// Close tears the page down: pending callbacks are dropped and Run returns.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.timers = nil
	close(l.quit)
}

// Run drives the loop in real time until ctx is done or the loop is closed.
// Functions passed to Do execute on this goroutine between callbacks.
func (l *Loop) Run(ctx context.Context) error {
	t := time.NewTimer(time.Hour)
	defer t.Stop()

	for {
		l.advanceTo(time.Now())

		l.mu.Lock()
		wait := time.Hour
		if len(l.timers) > 0 {
			wait = time.Until(l.timers[0].due)
		}
		l.mu.Unlock()
		if wait < 0 {
			wait = 0
		}
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case <-l.wake:
		case <-t.C:
		case c := <-l.calls:
			l.advanceTo(time.Now())
			c.fn()
			close(c.done)
		}
	}
}

// Do runs fn on the goroutine executing Run and waits for it to finish. It
// blocks until Run picks the call up, ctx is done, or the loop closes.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case l.calls <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.quit:
		return ErrClosed
	}
	<-c.done
	return nil
}
