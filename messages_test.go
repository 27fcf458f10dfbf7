package goPortal

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrEthical07/goPortal/guard"
	"github.com/MrEthical07/goPortal/session"
)

func TestMessageMapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: %v", ErrCredentialsUnavailable, errors.New("timeout"))
	if got := Message("id", wrapped); got != "Layanan login sedang tidak tersedia. Coba lagi nanti." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message("en", ErrInvalidCredentials); got != "Wrong email or password!" {
		t.Fatalf("unexpected english message %q", got)
	}
	if got := Message("id", guard.ErrUnmappedRole); got == "" {
		t.Fatal("expected message for unmapped role")
	}
	if got := Message("id", errors.New("other")); got != "" {
		t.Fatalf("expected no message for unrelated error, got %q", got)
	}
}

func TestMessagesForFallsBack(t *testing.T) {
	if MessagesFor("xx").MissingFields != "Mohon isi semua field!" {
		t.Fatal("expected Indonesian fallback")
	}
	for _, locale := range Locales() {
		m := MessagesFor(locale)
		for _, role := range session.Roles() {
			if m.RoleName(role) == string(role) {
				t.Fatalf("locale %s has no display name for %s", locale, role)
			}
		}
	}
}

func TestFormatTime(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC)
	if got := MessagesFor("id").FormatTime(at); got != "9 Maret 2025 pukul 14.05" {
		t.Fatalf("id format = %q", got)
	}
	if got := MessagesFor("en").FormatTime(at); got != "March 9, 2025 at 14:05" {
		t.Fatalf("en format = %q", got)
	}
}
