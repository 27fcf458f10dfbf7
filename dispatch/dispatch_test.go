package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goPortal/internal/loop"
	"github.com/MrEthical07/goPortal/notify"
)

type recordingNav struct{ paths []string }

func (n *recordingNav) Navigate(_ context.Context, path string) { n.paths = append(n.paths, path) }

type scriptedConfirmer struct {
	answer bool
	asked  []string
}

func (c *scriptedConfirmer) Confirm(msg string) bool {
	c.asked = append(c.asked, msg)
	return c.answer
}

type failingSubmitter struct{ sched Scheduler }

func (f failingSubmitter) Submit(_ context.Context, _ Submission, done func(error)) {
	f.sched.AfterFunc(time.Second, func() { done(errors.New("backend down")) })
}

var testMessages = Messages{
	Saved:         "Data berhasil disimpan!",
	SaveFailed:    "Data gagal disimpan!",
	ConfirmDelete: "Apakah Anda yakin ingin menghapus data ini?",
}

type harness struct {
	loop    *loop.Loop
	center  *notify.Center
	nav     *recordingNav
	confirm *scriptedConfirmer
	d       *Dispatcher
}

func newHarness(sub func(*loop.Loop) Submitter) *harness {
	l := loop.New(time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC))
	h := &harness{
		loop:    l,
		center:  notify.NewCenter(l, nil, 0),
		nav:     &recordingNav{},
		confirm: &scriptedConfirmer{},
	}
	h.d = New(Config{
		Notifier:  h.center,
		Submitter: sub(l),
		Confirmer: h.confirm,
		Navigator: h.nav,
		Messages:  testMessages,
	})
	return h
}

func simulated(l *loop.Loop) Submitter { return SimulatedSubmitter{Sched: l} }

func TestAsyncSubmitLifecycle(t *testing.T) {
	h := newHarness(simulated)
	form := NewForm("siswa", map[string]string{"kelas": "X-A"})
	form.Async = true
	form.Redirect = "/admin/siswa.html"
	form.Set("nama", "Budi")

	if !h.d.Submit(context.Background(), form) {
		t.Fatal("expected async form to be intercepted")
	}
	if !h.center.Loading() {
		t.Fatal("expected loading overlay during submission")
	}
	if len(h.nav.paths) != 0 {
		t.Fatal("navigated before completion")
	}

	h.loop.Advance(DefaultLatency)

	if h.center.Loading() {
		t.Fatal("expected overlay hidden after completion")
	}
	active := h.center.Active()
	if len(active) != 1 || active[0].Message != testMessages.Saved || active[0].Severity != notify.SeveritySuccess {
		t.Fatalf("expected success notification, got %+v", active)
	}
	if form.Value("nama") != "" || form.Value("kelas") != "X-A" {
		t.Fatalf("expected form reset to initial values, got %v", form.Values())
	}
	if len(h.nav.paths) != 1 || h.nav.paths[0] != "/admin/siswa.html" {
		t.Fatalf("expected redirect, got %v", h.nav.paths)
	}
}

func TestNonAsyncFormNotIntercepted(t *testing.T) {
	h := newHarness(simulated)
	if h.d.Submit(context.Background(), NewForm("plain", nil)) {
		t.Fatal("expected default submission to proceed")
	}
	if h.d.Submit(context.Background(), nil) {
		t.Fatal("expected nil form to be ignored")
	}
	if h.center.Loading() || h.loop.Pending() != 0 {
		t.Fatal("expected no side effects")
	}
}

func TestSubmitWithoutRedirectStays(t *testing.T) {
	h := newHarness(simulated)
	form := NewForm("nilai", nil)
	form.Async = true

	h.d.Submit(context.Background(), form)
	h.loop.Advance(DefaultLatency)
	if len(h.nav.paths) != 0 {
		t.Fatalf("unexpected navigation %v", h.nav.paths)
	}
}

func TestDuplicateSubmitWhileInFlight(t *testing.T) {
	h := newHarness(simulated)
	form := NewForm("nilai", nil)
	form.Async = true

	h.d.Submit(context.Background(), form)
	if !h.d.Submit(context.Background(), form) {
		t.Fatal("expected duplicate submit to be intercepted")
	}
	if h.loop.Pending() != 1 {
		t.Fatalf("expected a single pending submission, got %d", h.loop.Pending())
	}
	h.loop.Advance(DefaultLatency)
	if h.d.InFlight(form) {
		t.Fatal("expected form no longer in flight")
	}
}

func TestSubmitFailureKeepsFields(t *testing.T) {
	h := newHarness(func(l *loop.Loop) Submitter { return failingSubmitter{sched: l} })
	form := NewForm("nilai", nil)
	form.Async = true
	form.Redirect = "/guru/nilai.html"
	form.Set("skor", "90")

	h.d.Submit(context.Background(), form)
	h.loop.Advance(time.Second)

	if h.center.Loading() {
		t.Fatal("expected overlay hidden after failure")
	}
	active := h.center.Active()
	if len(active) != 1 || active[0].Severity != notify.SeverityDanger {
		t.Fatalf("expected danger notification, got %+v", active)
	}
	if form.Value("skor") != "90" || len(h.nav.paths) != 0 {
		t.Fatal("expected fields kept and no redirect")
	}
}

func TestConfirmDestructiveDeclinedHasNoSideEffect(t *testing.T) {
	h := newHarness(simulated)
	h.confirm.answer = false

	if h.d.ConfirmDestructive(context.Background(), DestructiveAction{Target: "/admin/siswa/hapus?id=7"}) {
		t.Fatal("expected declined action not to proceed")
	}
	if len(h.nav.paths) != 0 || len(h.center.Active()) != 0 {
		t.Fatal("declined action must not navigate or notify")
	}
	if len(h.confirm.asked) != 1 || h.confirm.asked[0] != testMessages.ConfirmDelete {
		t.Fatalf("expected default confirmation text, asked %v", h.confirm.asked)
	}
}

func TestConfirmDestructiveAccepted(t *testing.T) {
	h := newHarness(simulated)
	h.confirm.answer = true

	ok := h.d.ConfirmDestructive(context.Background(), DestructiveAction{
		Message: "Hapus guru ini?",
		Target:  "/admin/guru/hapus?id=3",
	})
	if !ok {
		t.Fatal("expected confirmed action to proceed")
	}
	if h.confirm.asked[0] != "Hapus guru ini?" {
		t.Fatalf("expected custom message, got %q", h.confirm.asked[0])
	}
	if len(h.nav.paths) != 1 || h.nav.paths[0] != "/admin/guru/hapus?id=3" {
		t.Fatalf("expected navigation to target, got %v", h.nav.paths)
	}
}
