package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRecordCorrupt is returned when a stored record cannot be decoded or
// names a role outside the known set.
var ErrRecordCorrupt = errors.New("session record corrupt")

type wireRecord struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	LoginTime string `json:"loginTime"`
}

// Encode renders r in the stored JSON shape.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil record")
	}
	if !r.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, r.Role)
	}
	return json.Marshal(wireRecord{
		Email:     r.Identity,
		Role:      string(r.Role),
		LoginTime: r.IssuedAt.UTC().Format(time.RFC3339Nano),
	})
}

// Decode parses a stored record. Every failure wraps [ErrRecordCorrupt].
func Decode(data []byte) (*Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if w.Email == "" {
		return nil, fmt.Errorf("%w: missing identity", ErrRecordCorrupt)
	}
	role, err := ParseRole(w.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	r := &Record{Identity: w.Email, Role: role}
	if w.LoginTime != "" {
		issued, err := time.Parse(time.RFC3339Nano, w.LoginTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
		}
		r.IssuedAt = issued
	}
	return r, nil
}
