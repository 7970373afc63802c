package authflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/halcyonlabs/authflow/token"
)

// RequestEmailChange describes the requestemailchange operation and its observable behavior.
//
// RequestEmailChange asks the backend to mail a change-confirmation link to
// the new address on behalf of the signed-in account.
func (e *Engine) RequestEmailChange(ctx context.Context, newEmail string) error {
	release, err := e.begin("email_change_request")
	if err != nil {
		return err
	}
	defer release()

	handle := e.watcher.Handle()
	if handle == nil {
		return ErrSessionRequired
	}

	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if ve := validateEmail(newEmail); ve != nil {
		return ve
	}
	if newEmail == handle.Record.Email {
		return &ValidationError{Field: "newEmail", Message: "New email matches the current one."}
	}

	start := time.Now()
	err = e.backend.RequestEmailChange(ctx, handle, newEmail)
	e.observeBackend(start)
	if err != nil {
		e.emitAudit(ctx, auditEventEmailChangeRequest, false, handle.Record.Email, handle.Record.ID, err, nil)
		if ve, ok := AsValidationError(err); ok {
			return ve
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e.metricInc(MetricEmailChangeRequest)
	e.emitAudit(ctx, auditEventEmailChangeRequest, true, handle.Record.Email, handle.Record.ID, nil, func() map[string]string {
		return map[string]string{"new_email": newEmail}
	})
	return nil
}

// EmailChangeConfirm defines a public type used by authflow APIs.
//
// EmailChangeConfirm is the screen-scoped controller for redeeming an
// email-change link. The link requires the account password to be re-proven;
// a wrong password keeps the screen usable while a dead token ends it.
type EmailChangeConfirm struct {
	engine     *Engine
	token      string
	inspection *token.Inspection

	mu   sync.Mutex
	done bool
}

// BeginEmailChangeConfirm describes the beginemailchangeconfirm operation and its observable behavior.
//
// BeginEmailChangeConfirm decodes the link token and returns the screen
// controller together with the advisory claims (current and new address)
// for display. An unreadable token still returns a controller; Submit will
// then report the terminal outcome.
func (e *Engine) BeginEmailChangeConfirm(tok string) (*EmailChangeConfirm, *token.Inspection) {
	inspection, _ := token.Inspect(tok)
	return &EmailChangeConfirm{
		engine:     e,
		token:      tok,
		inspection: inspection,
	}, inspection
}

// Submit describes the submit operation and its observable behavior.
//
// Submit redeems the token with the re-proven password. A wrong password
// comes back as a non-terminal outcome so the user can retry; token
// rejections are terminal and lock the controller.
func (c *EmailChangeConfirm) Submit(ctx context.Context, currentPassword string) ConfirmOutcome {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return confirmFailure(ErrTokenInvalid, c.inspection)
	}
	c.mu.Unlock()

	e := c.engine

	if currentPassword == "" {
		ve := &ValidationError{Field: "currentPassword", Message: "Password is required."}
		return confirmFailure(ve, c.inspection)
	}

	start := time.Now()
	err := e.backend.ConfirmEmailChange(ctx, c.token, currentPassword)
	e.observeBackend(start)
	if err != nil {
		e.metricInc(MetricEmailChangeConfirmFailure)
		e.emitAudit(ctx, auditEventEmailChangeConfirm, false, emailFromInspection(c.inspection), "", err, nil)

		outcome := confirmFailure(err, c.inspection)
		if outcome.Terminal {
			c.mu.Lock()
			c.done = true
			c.mu.Unlock()
		}
		return outcome
	}

	c.mu.Lock()
	c.done = true
	c.mu.Unlock()

	e.metricInc(MetricEmailChangeConfirmSuccess)
	e.emitAudit(ctx, auditEventEmailChangeConfirm, true, emailFromInspection(c.inspection), "", nil, func() map[string]string {
		if c.inspection == nil {
			return nil
		}
		return map[string]string{"new_email": c.inspection.NewEmail}
	})

	// The signed-in session, if any, now carries a stale address.
	if e.watcher.Current() != nil {
		_, _ = e.watcher.Refresh(ctx)
	}

	return ConfirmOutcome{State: OutcomeSuccess, Context: c.inspection}
}
