package authflow

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess              = "login_success"
	auditEventLoginFailure              = "login_failure"
	auditEventChallengeIssued           = "challenge_issued"
	auditEventChallengeIssueFailed      = "challenge_issue_failed"
	auditEventChallengeVerified         = "challenge_verified"
	auditEventChallengeVerifyFailed     = "challenge_verify_failed"
	auditEventChallengeResend           = "challenge_resend"
	auditEventChallengeAbandoned        = "challenge_abandoned"
	auditEventRegisterSuccess           = "register_success"
	auditEventRegisterFailure           = "register_failure"
	auditEventRegisterDuplicate         = "register_duplicate"
	auditEventVerificationEmailSent     = "verification_email_sent"
	auditEventVerificationEmailFailed   = "verification_email_failed"
	auditEventVerificationConfirm       = "verification_confirm"
	auditEventPasswordResetRequest      = "password_reset_request"
	auditEventPasswordResetConfirm      = "password_reset_confirm"
	auditEventEmailChangeRequest        = "email_change_request"
	auditEventEmailChangeConfirm        = "email_change_confirm"
	auditEventSessionAdopted            = "session_adopted"
	auditEventSessionCleared            = "session_cleared"
	auditEventSessionRefresh            = "session_refresh"
	auditEventSessionRefreshUnavailable = "session_refresh_unavailable"
)

// AuditErrorCode defines a public type used by authflow APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidCode        AuditErrorCode = "invalid_code"
	auditErrIncorrectPassword  AuditErrorCode = "incorrect_password"
	auditErrTokenInvalid       AuditErrorCode = "invalid_token"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrChallengeIssue     AuditErrorCode = "challenge_issue_failed"
	auditErrChallengeInvalid   AuditErrorCode = "challenge_invalid"
	auditErrChallengeExpired   AuditErrorCode = "challenge_expired"
	auditErrChallengeState     AuditErrorCode = "challenge_state"
	auditErrFlowBusy           AuditErrorCode = "flow_busy"
	auditErrThrottled          AuditErrorCode = "resend_throttled"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrValidation         AuditErrorCode = "validation"
	auditErrSessionRequired    AuditErrorCode = "session_required"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	email string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Email:     email,
		SessionID: sessionID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// auditContextEnricher stamps request-scoped context values onto every
// event before it is queued. The builder wires it into the dispatcher so
// individual flow methods never repeat this bookkeeping.
func auditContextEnricher(ctx context.Context, event *AuditEvent) {
	label := deviceLabelFromContext(ctx)
	requestID := RequestIDFromContext(ctx)
	if label == "" && requestID == "" {
		return
	}

	if event.Metadata == nil {
		event.Metadata = map[string]string{}
	}
	if label != "" {
		event.Metadata["device"] = label
	}
	if requestID != "" {
		event.Metadata["request_id"] = requestID
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrIncorrectPassword):
		return auditErrIncorrectPassword
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrChallengeIssueFailed):
		return auditErrChallengeIssue
	case errors.Is(err, ErrChallengeInvalid):
		return auditErrChallengeInvalid
	case errors.Is(err, ErrChallengeExpired):
		return auditErrChallengeExpired
	case errors.Is(err, ErrChallengeState):
		return auditErrChallengeState
	case errors.Is(err, ErrFlowBusy):
		return auditErrFlowBusy
	case errors.Is(err, ErrResendThrottled):
		return auditErrThrottled
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrSessionRequired):
		return auditErrSessionRequired
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	default:
		if _, ok := AsValidationError(err); ok {
			return auditErrValidation
		}
		return auditErrInternal
	}
}
