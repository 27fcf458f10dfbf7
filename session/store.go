package session

import (
	"context"
	"errors"

	"github.com/MrEthical07/goPortal/kv"
)

// DefaultKey is the storage key holding the current record.
const DefaultKey = "currentUser"

// Store keeps the session record of one browsing context. The backing
// [kv.Store] must be context-scoped; independent contexts get independent
// stores and never see each other's record.
type Store struct {
	kv  kv.Store
	key string
}

// NewStore creates a session store over backend. An empty key defaults to
// [DefaultKey].
func NewStore(backend kv.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: backend, key: key}
}

// Put replaces the current record.
func (s *Store) Put(ctx context.Context, r *Record) error {
	if s == nil || s.kv == nil {
		return errors.New("session store not initialized")
	}
	data, err := Encode(r)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, string(data))
}

// Get returns the current record, or nil when no record is present.
// A stored value that cannot be decoded returns [ErrRecordCorrupt].
func (s *Store) Get(ctx context.Context) (*Record, error) {
	if s == nil || s.kv == nil {
		return nil, nil
	}
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return Decode([]byte(raw))
}

// Clear removes the current record. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil || s.kv == nil {
		return nil
	}
	return s.kv.Delete(ctx, s.key)
}
