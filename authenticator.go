package goPortal

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goPortal/credential"
	"github.com/MrEthical07/goPortal/session"
)

// Authenticator verifies submitted credentials against a credential lookup.
// It has no side effects: persisting the record and navigating are the
// Controller's job.
type Authenticator struct {
	lookup credential.Lookup
	clock  func() time.Time
}

// NewAuthenticator creates an authenticator. A nil clock uses time.Now.
func NewAuthenticator(lookup credential.Lookup, clock func() time.Time) *Authenticator {
	if clock == nil {
		clock = time.Now
	}
	return &Authenticator{lookup: lookup, clock: clock}
}

// ValidateCredentials performs the checks that need no lookup: every field
// must be present and the identity must look like an email address.
func ValidateCredentials(identity, secret, role string) error {
	if identity == "" || secret == "" || role == "" {
		return ErrMissingFields
	}
	if !validEmail(identity) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// validEmail accepts local@domain.tld: no whitespace, exactly one '@', a
// non-empty local part and some dot in the domain with text on both sides.
func validEmail(s string) bool {
	if strings.ContainsFunc(s, isSpace) {
		return false
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || strings.Count(s, "@") != 1 {
		return false
	}
	domain := s[at+1:]
	for i := 1; i < len(domain)-1; i++ {
		if domain[i] == '.' {
			return true
		}
	}
	return false
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', 0x85, 0xA0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

// Authenticate validates the input and compares it with the entry of the
// claimed role. Any mismatch returns ErrInvalidCredentials without saying
// which part was wrong.
func (a *Authenticator) Authenticate(ctx context.Context, identity, secret, claimedRole string) (*session.Record, error) {
	if err := ValidateCredentials(identity, secret, claimedRole); err != nil {
		return nil, err
	}
	if a == nil || a.lookup == nil {
		return nil, ErrCredentialsUnavailable
	}

	role, err := session.ParseRole(claimedRole)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	entry, ok, err := a.lookup.Lookup(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsUnavailable, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	identityOK := identity == entry.Identity
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(entry.Secret)) == 1
	if !identityOK || !secretOK {
		return nil, ErrInvalidCredentials
	}

	return &session.Record{
		Identity: identity,
		Role:     role,
		IssuedAt: a.clock(),
	}, nil
}
