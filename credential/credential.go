// Package credential provides the credential lookup capability used by the
// authenticator. A static [Table] backs the simulated login; a real identity
// provider can implement [Lookup] without touching guard logic.
package credential

import (
	"context"

	"github.com/MrEthical07/goPortal/session"
)

// Entry is the expected identity and secret for one role.
type Entry struct {
	Identity string
	Secret   string
}

// Lookup resolves the credential entry for a claimed role. ok is false for a
// role with no entry.
type Lookup interface {
	Lookup(ctx context.Context, role session.Role) (entry Entry, ok bool, err error)
}

// Table is an immutable role -> entry mapping.
type Table struct {
	entries map[session.Role]Entry
}

// NewTable copies entries into a new table.
func NewTable(entries map[session.Role]Entry) *Table {
	cp := make(map[session.Role]Entry, len(entries))
	for role, e := range entries {
		cp[role] = e
	}
	return &Table{entries: cp}
}

// DefaultTable returns the demonstration accounts of the school portal.
func DefaultTable() *Table {
	return NewTable(map[session.Role]Entry{
		session.RoleAdmin:      {Identity: "admin@ulilamwal.sch.id", Secret: "admin123"},
		session.RoleTeacher:    {Identity: "guru@ulilamwal.sch.id", Secret: "guru123"},
		session.RoleHeadmaster: {Identity: "kepala@ulilamwal.sch.id", Secret: "kepala123"},
	})
}

func (t *Table) Lookup(_ context.Context, role session.Role) (Entry, bool, error) {
	if t == nil {
		return Entry{}, false, nil
	}
	e, ok := t.entries[role]
	return e, ok, nil
}

// LookupFunc adapts a function to [Lookup].
type LookupFunc func(ctx context.Context, role session.Role) (Entry, bool, error)

func (f LookupFunc) Lookup(ctx context.Context, role session.Role) (Entry, bool, error) {
	return f(ctx, role)
}
