package goPortal

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goPortal/guard"
	"github.com/MrEthical07/goPortal/session"
)

const (
	auditEventLoginSuccess   = "login_success"
	auditEventLoginFailure   = "login_failure"
	auditEventLogout         = "logout"
	auditEventSessionCorrupt = "session_corrupt"
	auditEventUnmappedRole   = "unmapped_role"
)

// AuditErrorCode is the stable error label carried by audit events.
type AuditErrorCode string

const (
	auditErrMissingFields      AuditErrorCode = "missing_fields"
	auditErrInvalidEmail       AuditErrorCode = "invalid_email"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrSessionCorrupt     AuditErrorCode = "session_corrupt"
	auditErrUnmappedRole       AuditErrorCode = "unmapped_role"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (c *Controller) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity string,
	role session.Role,
	page string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.telemetry == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Identity:  identity,
		Role:      string(role),
		ContextID: contextIDFromContext(ctx),
		Page:      page,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.telemetry.emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingFields):
		return auditErrMissingFields
	case errors.Is(err, ErrInvalidEmailFormat):
		return auditErrInvalidEmail
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrCredentialsUnavailable),
		errors.Is(err, ErrSessionUnavailable):
		return auditErrUnavailable
	case errors.Is(err, session.ErrRecordCorrupt):
		return auditErrSessionCorrupt
	case errors.Is(err, guard.ErrUnmappedRole):
		return auditErrUnmappedRole
	default:
		return auditErrInternal
	}
}
