package goPortal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// User-info placeholder fields rendered in page headers.
const (
	UserInfoUsername  = "username"
	UserInfoRole      = "role"
	UserInfoLoginTime = "login-time"
)

// UserInfo returns the text of a user-info placeholder. Without a session the
// username and role fall back to generic labels and the login time is empty.
// Unknown fields return an empty string.
func (c *Controller) UserInfo(ctx context.Context, field string) string {
	if c == nil {
		return ""
	}
	rec, err := c.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("read session for user info", "field", field, "error", err)
		rec = nil
	}

	switch field {
	case UserInfoUsername:
		if rec == nil || rec.Identity == "" {
			return c.messages.UnknownUser
		}
		return rec.Identity
	case UserInfoRole:
		if rec == nil || rec.Role == "" {
			return c.messages.UnknownRole
		}
		return c.messages.RoleName(rec.Role)
	case UserInfoLoginTime:
		if rec == nil || rec.IssuedAt.IsZero() {
			return ""
		}
		return c.messages.FormatTime(rec.IssuedAt.In(c.location))
	}
	return ""
}

// FormatTime formats t with the catalog layout and month names.
func (m Messages) FormatTime(t time.Time) string {
	out := t.Format(m.TimeLayout)
	month := t.Month()
	if name := m.Months[month-1]; name != "" {
		out = strings.Replace(out, month.String(), name, 1)
	}
	return out
}

type fixedZone struct {
	abbr   string
	offset int
}

// Indonesian zones, used when the host has no zoneinfo database.
var fixedZones = map[string]fixedZone{
	"Asia/Jakarta":   {abbr: "WIB", offset: 7 * 3600},
	"Asia/Pontianak": {abbr: "WIB", offset: 7 * 3600},
	"Asia/Makassar":  {abbr: "WITA", offset: 8 * 3600},
	"Asia/Jayapura":  {abbr: "WIT", offset: 9 * 3600},
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if z, ok := fixedZones[name]; ok {
		return time.FixedZone(z.abbr, z.offset), nil
	}
	return nil, fmt.Errorf("load time zone %q: %w", name, err)
}
