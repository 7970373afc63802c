package authflow

import (
	"context"
	"fmt"
	"time"

	"github.com/halcyonlabs/authflow/token"
)

// EnterVerifyEmail describes the enterverifyemail operation and its observable behavior.
//
// EnterVerifyEmail prepares the verify-email screen for the signed-in,
// unverified account. When auto-send is configured and no mail has gone out
// for this account yet, one is requested; entering the screen again does
// not send another.
func (e *Engine) EnterVerifyEmail(ctx context.Context) error {
	current := e.watcher.Current()
	if current == nil {
		return ErrSessionRequired
	}
	if current.Verified || !e.config.Verification.AutoSendOnEntry {
		return nil
	}

	e.autoSentMu.Lock()
	sent := e.autoSent[current.Email]
	if !sent {
		e.autoSent[current.Email] = true
	}
	e.autoSentMu.Unlock()
	if sent {
		return nil
	}

	if !e.resend.CanSend(ctx, current.Email) {
		return nil
	}

	return e.sendVerificationEmail(ctx, current.Email)
}

// ResendVerificationEmail describes the resendverificationemail operation and its observable behavior.
//
// ResendVerificationEmail requests another verification mail for the
// signed-in account, honoring the cooldown. ErrResendThrottled reports an
// active cooldown; RemainingResendSeconds says how long is left.
func (e *Engine) ResendVerificationEmail(ctx context.Context) error {
	release, err := e.begin("resend_verification")
	if err != nil {
		return err
	}
	defer release()

	current := e.watcher.Current()
	if current == nil {
		return ErrSessionRequired
	}

	if !e.resend.CanSend(ctx, current.Email) {
		e.metricInc(MetricVerificationEmailThrottled)
		return ErrResendThrottled
	}

	return e.sendVerificationEmail(ctx, current.Email)
}

func (e *Engine) sendVerificationEmail(ctx context.Context, email string) error {
	start := time.Now()
	err := e.backend.RequestVerificationEmail(ctx, email)
	e.observeBackend(start)
	if err != nil {
		e.emitAudit(ctx, auditEventVerificationEmailFailed, false, email, "", err, nil)
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e.resend.RecordSent(ctx, email)
	e.metricInc(MetricVerificationEmailSent)
	e.emitAudit(ctx, auditEventVerificationEmailSent, true, email, "", nil, nil)
	return nil
}

// RemainingResendSeconds describes the remainingresendseconds operation and its observable behavior.
//
// RemainingResendSeconds returns the seconds left in the resend cooldown
// for the signed-in account, or 0.
func (e *Engine) RemainingResendSeconds(ctx context.Context) int {
	current := e.watcher.Current()
	if current == nil {
		return 0
	}
	return e.resend.RemainingSeconds(ctx, current.Email)
}

// ResendCountdown describes the resendcountdown operation and its observable behavior.
//
// ResendCountdown starts a one-second ticker over the remaining cooldown
// for the signed-in account. The caller must Stop it.
func (e *Engine) ResendCountdown(ctx context.Context) *Countdown {
	current := e.watcher.Current()
	if current == nil {
		return e.resend.StartCountdown(ctx, "")
	}
	return e.resend.StartCountdown(ctx, current.Email)
}

// CheckVerified describes the checkverified operation and its observable behavior.
//
// CheckVerified re-reads the session from the backend so a verification
// completed in another tab or device is picked up. It returns whether the
// account is now verified. Transport failures leave the local answer
// untouched.
func (e *Engine) CheckVerified(ctx context.Context) (bool, error) {
	if _, err := e.watcher.Refresh(ctx); err != nil {
		return false, err
	}
	current := e.watcher.Current()
	return current != nil && current.Verified, nil
}

// ConfirmVerification describes the confirmverification operation and its observable behavior.
//
// ConfirmVerification redeems a verification link token, typically handed
// to the app by a deep link. The decoded token claims ride along in the
// outcome so the confirmation screen can name the address involved even on
// failure.
func (e *Engine) ConfirmVerification(ctx context.Context, tok string) ConfirmOutcome {
	inspection, inspectErr := token.Inspect(tok)
	if inspectErr != nil && inspection == nil {
		e.metricInc(MetricVerificationConfirmFailure)
		return confirmFailure(fmt.Errorf("%w: %v", ErrTokenInvalid, inspectErr), nil)
	}

	start := time.Now()
	err := e.backend.ConfirmVerification(ctx, tok)
	e.observeBackend(start)
	if err != nil {
		e.metricInc(MetricVerificationConfirmFailure)
		e.emitAudit(ctx, auditEventVerificationConfirm, false, emailFromInspection(inspection), "", err, nil)
		return confirmFailure(err, inspection)
	}

	e.metricInc(MetricVerificationConfirmSuccess)
	e.emitAudit(ctx, auditEventVerificationConfirm, true, emailFromInspection(inspection), "", nil, nil)

	// Pick up the verified flag when the confirmed account is the one
	// signed in here.
	if current := e.watcher.Current(); current != nil && inspection != nil && current.Email == inspection.SubjectEmail {
		_, _ = e.watcher.Refresh(ctx)
	}

	return ConfirmOutcome{State: OutcomeSuccess, Context: inspection}
}

func emailFromInspection(inspection *token.Inspection) string {
	if inspection == nil {
		return ""
	}
	return inspection.SubjectEmail
}
