package authflow

import (
	"context"
	"errors"
	"testing"
)

// stubBackend lets each test script exactly the backend answers it needs.
type stubBackend struct {
	createAccount      func(context.Context, CreateAccountRequest) (*SessionHandle, error)
	authenticate       func(context.Context, string, string) (*SessionHandle, error)
	requestCode        func(context.Context, string) (string, error)
	verifyCode         func(context.Context, string, string) (*SessionHandle, error)
	requestVerifyMail  func(context.Context, string) error
	confirmVerify      func(context.Context, string) error
	requestReset       func(context.Context, string) error
	confirmReset       func(context.Context, string, string, string) error
	requestEmailChange func(context.Context, *SessionHandle, string) error
	confirmEmailChange func(context.Context, string, string) error
	refreshSession     func(context.Context, *SessionHandle) (*Session, error)
}

var errStubUnscripted = errors.New("backend call not scripted")

func (s *stubBackend) CreateAccount(ctx context.Context, req CreateAccountRequest) (*SessionHandle, error) {
	if s.createAccount == nil {
		return nil, errStubUnscripted
	}
	return s.createAccount(ctx, req)
}

func (s *stubBackend) AuthenticateWithPassword(ctx context.Context, email, password string) (*SessionHandle, error) {
	if s.authenticate == nil {
		return nil, errStubUnscripted
	}
	return s.authenticate(ctx, email, password)
}

func (s *stubBackend) RequestOneTimeCode(ctx context.Context, email string) (string, error) {
	if s.requestCode == nil {
		return "", errStubUnscripted
	}
	return s.requestCode(ctx, email)
}

func (s *stubBackend) VerifyOneTimeCode(ctx context.Context, challengeID, code string) (*SessionHandle, error) {
	if s.verifyCode == nil {
		return nil, errStubUnscripted
	}
	return s.verifyCode(ctx, challengeID, code)
}

func (s *stubBackend) RequestVerificationEmail(ctx context.Context, email string) error {
	if s.requestVerifyMail == nil {
		return errStubUnscripted
	}
	return s.requestVerifyMail(ctx, email)
}

func (s *stubBackend) ConfirmVerification(ctx context.Context, tok string) error {
	if s.confirmVerify == nil {
		return errStubUnscripted
	}
	return s.confirmVerify(ctx, tok)
}

func (s *stubBackend) RequestPasswordReset(ctx context.Context, email string) error {
	if s.requestReset == nil {
		return errStubUnscripted
	}
	return s.requestReset(ctx, email)
}

func (s *stubBackend) ConfirmPasswordReset(ctx context.Context, tok, password, passwordConfirm string) error {
	if s.confirmReset == nil {
		return errStubUnscripted
	}
	return s.confirmReset(ctx, tok, password, passwordConfirm)
}

func (s *stubBackend) RequestEmailChange(ctx context.Context, handle *SessionHandle, newEmail string) error {
	if s.requestEmailChange == nil {
		return errStubUnscripted
	}
	return s.requestEmailChange(ctx, handle, newEmail)
}

func (s *stubBackend) ConfirmEmailChange(ctx context.Context, tok, currentPassword string) error {
	if s.confirmEmailChange == nil {
		return errStubUnscripted
	}
	return s.confirmEmailChange(ctx, tok, currentPassword)
}

func (s *stubBackend) RefreshSession(ctx context.Context, handle *SessionHandle) (*Session, error) {
	if s.refreshSession == nil {
		return nil, errStubUnscripted
	}
	return s.refreshSession(ctx, handle)
}

func newStubEngine(t *testing.T, backend Backend, store *memStore) *Engine {
	t.Helper()
	if store == nil {
		store = newMemStore()
	}
	engine, err := New().
		WithBackend(backend).
		WithStateStore(store).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func fullHandle(id, email string, verified bool) *SessionHandle {
	return &SessionHandle{
		Token: "tok-" + id,
		Record: Session{
			ID:          id,
			Email:       email,
			DisplayName: "Test User",
			Verified:    verified,
		},
	}
}
