package authflow

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RegisterResult defines a public type used by authflow APIs.
type RegisterResult struct {
	Session     *Session
	Destination Destination
}

// Register describes the register operation and its observable behavior.
//
// Register creates the account and leaves the new, unverified session
// signed in. The first verification mail is requested in the background;
// registration itself never fails because a mail could not be sent.
func (e *Engine) Register(ctx context.Context, req CreateAccountRequest) (*RegisterResult, error) {
	release, err := e.begin("register")
	if err != nil {
		return nil, err
	}
	defer release()

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if ve := validateEmail(req.Email); ve != nil {
		return nil, ve
	}
	if req.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "Name is required."}
	}
	if ve := e.validateNewPassword(req.Password, req.PasswordConfirm); ve != nil {
		return nil, ve
	}

	start := time.Now()
	handle, err := e.backend.CreateAccount(ctx, req)
	e.observeBackend(start)
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, req.Email, "", err, nil)
			return nil, ve
		}
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, req.Email, "", err, nil)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if err := e.watcher.Adopt(ctx, handle); err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, req.Email, handle.Record.ID, nil, nil)

	go e.sendVerificationAsync(req.Email)

	current := e.watcher.Current()
	return &RegisterResult{
		Session:     current,
		Destination: Decide(current),
	}, nil
}

// sendVerificationAsync fires the first verification mail without holding
// up registration. Failures are audited and the user can resend from the
// verify-email screen.
func (e *Engine) sendVerificationAsync(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), e.config.Backend.Timeout)
	defer cancel()

	if err := e.backend.RequestVerificationEmail(ctx, email); err != nil {
		e.emitAudit(ctx, auditEventVerificationEmailFailed, false, email, "", err, nil)
		return
	}

	e.resend.RecordSent(ctx, email)
	e.metricInc(MetricVerificationEmailSent)
	e.emitAudit(ctx, auditEventVerificationEmailSent, true, email, "", nil, nil)

	e.autoSentMu.Lock()
	e.autoSent[email] = true
	e.autoSentMu.Unlock()
}
