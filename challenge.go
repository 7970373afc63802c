package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ChallengeState defines a public type used by authflow APIs.
type ChallengeState int

const (
	// ChallengeNotStarted is an exported constant or variable used by the flow engine.
	ChallengeNotStarted ChallengeState = iota
	// ChallengeIssued is an exported constant or variable used by the flow engine.
	ChallengeIssued
	// ChallengeVerified is an exported constant or variable used by the flow engine.
	ChallengeVerified
	// ChallengeAbandoned is an exported constant or variable used by the flow engine.
	ChallengeAbandoned
	// ChallengeExpired is an exported constant or variable used by the flow engine.
	ChallengeExpired
)

func (s ChallengeState) String() string {
	switch s {
	case ChallengeNotStarted:
		return "not_started"
	case ChallengeIssued:
		return "issued"
	case ChallengeVerified:
		return "verified"
	case ChallengeAbandoned:
		return "abandoned"
	case ChallengeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ChallengeFlow defines a public type used by authflow APIs.
//
// ChallengeFlow drives a one-time-code exchange for a single login attempt.
// Verified, Abandoned and Expired are terminal; a new login starts a new
// flow. Only one Issue/Verify/Resend call runs at a time, a concurrent
// second call fails with ErrFlowBusy.
type ChallengeFlow struct {
	engine *Engine
	email  string

	mu        sync.Mutex
	busy      bool
	state     ChallengeState
	challenge *Challenge
}

func newChallengeFlow(engine *Engine, email string) *ChallengeFlow {
	return &ChallengeFlow{
		engine: engine,
		email:  email,
		state:  ChallengeNotStarted,
	}
}

// State describes the state operation and its observable behavior.
func (f *ChallengeFlow) State() ChallengeState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// TargetEmail describes the targetemail operation and its observable behavior.
func (f *ChallengeFlow) TargetEmail() string {
	return f.email
}

func (f *ChallengeFlow) acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrFlowBusy
	}
	f.busy = true
	return nil
}

func (f *ChallengeFlow) release() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

// Issue describes the issue operation and its observable behavior.
//
// Issue asks the backend for a fresh one-time code. On success the flow
// moves to ChallengeIssued; on failure it stays in ChallengeNotStarted so
// the caller can retry.
func (f *ChallengeFlow) Issue(ctx context.Context) error {
	if err := f.acquire(); err != nil {
		return err
	}
	defer f.release()

	f.mu.Lock()
	if f.state != ChallengeNotStarted {
		f.mu.Unlock()
		return ErrChallengeState
	}
	f.mu.Unlock()

	return f.issueLocked(ctx, auditEventChallengeIssued, MetricChallengeIssued)
}

// issueLocked performs the backend round trip and installs the resulting
// challenge. Callers hold the busy flag but not mu.
func (f *ChallengeFlow) issueLocked(ctx context.Context, event string, metric MetricID) error {
	start := time.Now()
	challengeID, err := f.engine.backend.RequestOneTimeCode(ctx, f.email)
	f.engine.observeBackend(start)
	if err != nil {
		f.engine.metricInc(MetricChallengeIssueFailed)
		f.engine.emitAudit(ctx, auditEventChallengeIssueFailed, false, f.email, "", err, nil)
		return fmt.Errorf("%w: %v", ErrChallengeIssueFailed, err)
	}

	f.mu.Lock()
	f.state = ChallengeIssued
	f.challenge = &Challenge{
		ChallengeID: challengeID,
		TargetEmail: f.email,
		IssuedAt:    time.Now(),
	}
	f.mu.Unlock()

	f.engine.metricInc(metric)
	f.engine.emitAudit(ctx, event, true, f.email, "", nil, nil)
	return nil
}

// Resend describes the resend operation and its observable behavior.
//
// Resend discards the held challenge before asking for a new one, so a code
// from the old mail can never verify once the user asked for a fresh one.
// When the reissue itself fails the flow stays in ChallengeIssued with no
// usable challenge; submitting the stale code then fails with
// ErrChallengeInvalid rather than silently succeeding.
func (f *ChallengeFlow) Resend(ctx context.Context) error {
	if err := f.acquire(); err != nil {
		return err
	}
	defer f.release()

	f.mu.Lock()
	if f.state != ChallengeIssued {
		f.mu.Unlock()
		return ErrChallengeState
	}
	f.challenge = nil
	f.mu.Unlock()

	return f.issueLocked(ctx, auditEventChallengeResend, MetricChallengeResend)
}

// Verify describes the verify operation and its observable behavior.
//
// Verify submits the code. On success the session handle returned by the
// backend is adopted and the flow moves to ChallengeVerified. A wrong code
// keeps the flow in ChallengeIssued for another attempt; a challenge the
// backend no longer recognizes as live moves the flow to the terminal
// ChallengeExpired state.
func (f *ChallengeFlow) Verify(ctx context.Context, code string) error {
	if err := f.acquire(); err != nil {
		return err
	}
	defer f.release()

	f.mu.Lock()
	if f.state != ChallengeIssued {
		f.mu.Unlock()
		return ErrChallengeState
	}
	challenge := f.challenge
	f.mu.Unlock()

	if challenge == nil {
		return ErrChallengeInvalid
	}

	code = strings.TrimSpace(code)
	if ve := f.engine.validateCode(code); ve != nil {
		f.engine.metricInc(MetricChallengeVerifyFailure)
		return ve
	}

	start := time.Now()
	handle, err := f.engine.backend.VerifyOneTimeCode(ctx, challenge.ChallengeID, code)
	f.engine.observeBackend(start)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode):
			f.engine.metricInc(MetricChallengeVerifyFailure)
			f.engine.emitAudit(ctx, auditEventChallengeVerifyFailed, false, f.email, "", err, nil)
			return err
		case errors.Is(err, ErrChallengeExpired), errors.Is(err, ErrChallengeInvalid):
			f.mu.Lock()
			f.state = ChallengeExpired
			f.challenge = nil
			f.mu.Unlock()
			f.engine.metricInc(MetricChallengeVerifyFailure)
			f.engine.emitAudit(ctx, auditEventChallengeVerifyFailed, false, f.email, "", err, nil)
			return err
		default:
			f.engine.metricInc(MetricChallengeVerifyFailure)
			f.engine.emitAudit(ctx, auditEventChallengeVerifyFailed, false, f.email, "", err, nil)
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	if err := f.engine.watcher.Adopt(ctx, handle); err != nil {
		return err
	}

	f.mu.Lock()
	f.state = ChallengeVerified
	f.challenge = nil
	f.mu.Unlock()

	f.engine.metricInc(MetricChallengeVerifySuccess)
	f.engine.emitAudit(ctx, auditEventChallengeVerified, true, f.email, handle.Record.ID, nil, nil)
	return nil
}

// Abandon describes the abandon operation and its observable behavior.
//
// Abandon ends the flow without a session. Abandoning a flow that already
// reached a terminal state is a no-op.
func (f *ChallengeFlow) Abandon(ctx context.Context) {
	f.mu.Lock()
	if f.state != ChallengeNotStarted && f.state != ChallengeIssued {
		f.mu.Unlock()
		return
	}
	f.state = ChallengeAbandoned
	f.challenge = nil
	f.mu.Unlock()

	f.engine.metricInc(MetricChallengeAbandoned)
	f.engine.emitAudit(ctx, auditEventChallengeAbandoned, true, f.email, "", nil, nil)
}
