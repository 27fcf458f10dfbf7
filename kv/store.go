package kv

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the storage backend cannot be reached.
var ErrUnavailable = errors.New("storage unavailable")

// Store is the key-value capability injected into session and layout
// components. Get reports ok=false for a missing key; it is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
