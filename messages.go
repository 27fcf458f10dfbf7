package goPortal

import (
	"errors"

	"github.com/MrEthical07/goPortal/guard"
	"github.com/MrEthical07/goPortal/session"
)

// Messages is the localized text shown by a Controller.
type Messages struct {
	MissingFields          string
	InvalidEmailFormat     string
	InvalidCredentials     string
	CredentialsUnavailable string
	SessionUnavailable     string
	UnmappedRole           string
	Saved                  string
	SaveFailed             string
	ConfirmDelete          string
	ConfirmLogout          string

	UnknownUser string
	UnknownRole string
	RoleNames   map[session.Role]string
	Months      [12]string
	// TimeLayout formats login times. Month names are substituted from Months.
	TimeLayout string
}

var messageCatalog = map[string]Messages{
	"id": {
		MissingFields:          "Mohon isi semua field!",
		InvalidEmailFormat:     "Format email tidak valid!",
		InvalidCredentials:     "Email atau password salah!",
		CredentialsUnavailable: "Layanan login sedang tidak tersedia. Coba lagi nanti.",
		SessionUnavailable:     "Sesi tidak dapat disimpan. Coba lagi nanti.",
		UnmappedRole:           "Peran pengguna tidak dikenali. Silakan login kembali.",
		Saved:                  "Data berhasil disimpan!",
		SaveFailed:             "Data gagal disimpan!",
		ConfirmDelete:          "Apakah Anda yakin ingin menghapus data ini?",
		ConfirmLogout:          "Apakah Anda yakin ingin logout?",
		UnknownUser:            "User",
		UnknownRole:            "Role",
		RoleNames: map[session.Role]string{
			session.RoleAdmin:      "Administrator",
			session.RoleTeacher:    "Guru",
			session.RoleHeadmaster: "Kepala Sekolah",
		},
		Months: [12]string{
			"Januari", "Februari", "Maret", "April", "Mei", "Juni",
			"Juli", "Agustus", "September", "Oktober", "November", "Desember",
		},
		TimeLayout: "2 January 2006 pukul 15.04",
	},
	"en": {
		MissingFields:          "Please fill in all fields!",
		InvalidEmailFormat:     "Invalid email format!",
		InvalidCredentials:     "Wrong email or password!",
		CredentialsUnavailable: "Login is temporarily unavailable. Try again later.",
		SessionUnavailable:     "The session could not be saved. Try again later.",
		UnmappedRole:           "Unrecognized user role. Please log in again.",
		Saved:                  "Data saved successfully!",
		SaveFailed:             "Data could not be saved!",
		ConfirmDelete:          "Are you sure you want to delete this data?",
		ConfirmLogout:          "Are you sure you want to log out?",
		UnknownUser:            "User",
		UnknownRole:            "Role",
		RoleNames: map[session.Role]string{
			session.RoleAdmin:      "Administrator",
			session.RoleTeacher:    "Teacher",
			session.RoleHeadmaster: "Headmaster",
		},
		Months: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
		TimeLayout: "January 2, 2006 at 15:04",
	},
}

// MessagesFor returns the catalog of locale. Unknown locales fall back to
// Indonesian.
func MessagesFor(locale string) Messages {
	if m, ok := messageCatalog[locale]; ok {
		return m
	}
	return messageCatalog["id"]
}

// Locales lists the supported locales.
func Locales() []string {
	return []string{"id", "en"}
}

// Message maps a presentation error to its inline message. Errors without a
// mapping return an empty string.
func Message(locale string, err error) string {
	return MessagesFor(locale).For(err)
}

// For maps err to its inline message.
func (m Messages) For(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFields):
		return m.MissingFields
	case errors.Is(err, ErrInvalidEmailFormat):
		return m.InvalidEmailFormat
	case errors.Is(err, ErrInvalidCredentials):
		return m.InvalidCredentials
	case errors.Is(err, ErrCredentialsUnavailable):
		return m.CredentialsUnavailable
	case errors.Is(err, ErrSessionUnavailable):
		return m.SessionUnavailable
	case errors.Is(err, guard.ErrUnmappedRole):
		return m.UnmappedRole
	}
	return ""
}

// RoleName returns the display name of role, or the raw value when the
// catalog has none.
func (m Messages) RoleName(role session.Role) string {
	if name, ok := m.RoleNames[role]; ok {
		return name
	}
	return string(role)
}
