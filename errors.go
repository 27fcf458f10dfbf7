package goPortal

import "errors"

var (
	// ErrMissingFields is returned when identity, secret or role is empty.
	ErrMissingFields = errors.New("missing fields")
	// ErrInvalidEmailFormat is returned when the identity is not an email address.
	ErrInvalidEmailFormat = errors.New("invalid email format")
	// ErrInvalidCredentials is returned for any identity, secret or role
	// mismatch. It deliberately does not say which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCredentialsUnavailable is returned when the credential lookup fails.
	ErrCredentialsUnavailable = errors.New("credential lookup unavailable")
	// ErrSessionUnavailable is returned when the session record cannot be
	// written or read.
	ErrSessionUnavailable = errors.New("session storage unavailable")
	// ErrControllerNotReady is returned by methods called on a nil or
	// unbuilt Controller.
	ErrControllerNotReady = errors.New("controller not initialized")
)
