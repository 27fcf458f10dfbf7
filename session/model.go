package session

import (
	"errors"
	"time"
)

// Role identifies the portal audience a record was issued for.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleHeadmaster Role = "headmaster"
)

// ErrUnknownRole is returned by [ParseRole] for values outside the role set.
var ErrUnknownRole = errors.New("unknown role")

// Roles lists the known roles in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTeacher, RoleHeadmaster}
}

// Valid reports whether r belongs to the known role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleHeadmaster:
		return true
	}
	return false
}

// ParseRole maps a submitted role value to a [Role]. The school's Indonesian
// form values ("guru", "kepala-sekolah") are accepted as aliases.
func ParseRole(v string) (Role, error) {
	switch v {
	case "admin":
		return RoleAdmin, nil
	case "teacher", "guru":
		return RoleTeacher, nil
	case "headmaster", "kepala-sekolah":
		return RoleHeadmaster, nil
	}
	return "", ErrUnknownRole
}

// Record is the proof of a successful login for the current browsing context.
type Record struct {
	Identity string
	Role     Role
	IssuedAt time.Time
}
