package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Login describes the login operation and its observable behavior.
//
// Login exchanges credentials with the backend. When the account has a
// second factor the result carries a running ChallengeFlow whose first code
// has already been issued; otherwise the session is adopted immediately and
// the result says where to navigate.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	release, err := e.begin("login")
	if err != nil {
		return nil, err
	}
	defer release()

	email = strings.TrimSpace(strings.ToLower(email))
	if ve := validateEmail(email); ve != nil {
		return nil, ve
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Message: "Password is required."}
	}

	start := time.Now()
	handle, err := e.backend.AuthenticateWithPassword(ctx, email, password)
	e.observeBackend(start)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, email, "", err, nil)
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if handle.SecondFactorRequired {
		flow := newChallengeFlow(e, email)
		if err := flow.Issue(ctx); err != nil {
			// The password was accepted but no code went out. The flow is
			// still usable: Issue can be retried on the same screen.
			return &LoginResult{ChallengeRequired: true, Flow: flow}, err
		}
		return &LoginResult{ChallengeRequired: true, Flow: flow}, nil
	}

	if err := e.watcher.Adopt(ctx, handle); err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, email, handle.Record.ID, nil, nil)

	return &LoginResult{Destination: Decide(&handle.Record)}, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout clears the local session. See Watcher.Logout.
func (e *Engine) Logout(ctx context.Context) {
	e.watcher.Logout(ctx)
}
