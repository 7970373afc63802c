package authflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/halcyonlabs/authflow/token"
)

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// RequestPasswordReset asks the backend to mail a reset link. The backend
// answers the same way for known and unknown addresses, so neither does
// this method.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	release, err := e.begin("password_reset_request")
	if err != nil {
		return err
	}
	defer release()

	email = strings.TrimSpace(strings.ToLower(email))
	if ve := validateEmail(email); ve != nil {
		return ve
	}

	start := time.Now()
	err = e.backend.RequestPasswordReset(ctx, email)
	e.observeBackend(start)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, email, "", err, nil)
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, email, "", nil, nil)
	return nil
}

// InspectPasswordResetToken describes the inspectpasswordresettoken operation and its observable behavior.
//
// InspectPasswordResetToken decodes the link token so the reset screen can
// show which account it is for before the user types anything. The claims
// are advisory; only ConfirmPasswordReset decides whether the token is
// honored.
func (e *Engine) InspectPasswordResetToken(tok string) (*token.Inspection, error) {
	inspection, err := token.Inspect(tok)
	if err != nil && inspection == nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return inspection, nil
}

// ConfirmPasswordReset describes the confirmpasswordreset operation and its observable behavior.
//
// ConfirmPasswordReset redeems the reset link with the replacement
// password. Local policy failures come back as non-terminal validation
// outcomes without a backend call; a rejected token is terminal.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, tok, password, passwordConfirm string) ConfirmOutcome {
	inspection, inspectErr := token.Inspect(tok)
	if inspectErr != nil && inspection == nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return confirmFailure(fmt.Errorf("%w: %v", ErrTokenInvalid, inspectErr), nil)
	}

	if ve := e.validateNewPassword(password, passwordConfirm); ve != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return confirmFailure(ve, inspection)
	}

	start := time.Now()
	err := e.backend.ConfirmPasswordReset(ctx, tok, password, passwordConfirm)
	e.observeBackend(start)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, emailFromInspection(inspection), "", err, nil)
		return confirmFailure(err, inspection)
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, emailFromInspection(inspection), "", nil, nil)

	return ConfirmOutcome{State: OutcomeSuccess, Context: inspection}
}
