package authflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/halcyonlabs/authflow"
	"github.com/halcyonlabs/authflow/devbackend"
	"github.com/halcyonlabs/authflow/state/redisstate"
)

// newDevEngine wires a full engine against the in-memory dev backend with
// flow state kept in miniredis, the same shape an app would run in dev.
func newDevEngine(t *testing.T, cfg devbackend.Config) (*authflow.Engine, *devbackend.Backend) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	backend, err := devbackend.New(cfg)
	if err != nil {
		t.Fatalf("devbackend.New failed: %v", err)
	}

	engine, err := authflow.New().
		WithBackend(backend).
		WithStateStore(redisstate.New(rdb, "afs-test")).
		WithMetricsEnabled(true).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, backend
}

func mustCreateAccount(t *testing.T, backend *devbackend.Backend, email, password string) {
	t.Helper()
	_, err := backend.CreateAccount(context.Background(), authflow.CreateAccountRequest{
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
		Name:            "Alice",
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
}

func lastMail(t *testing.T, backend *devbackend.Backend, to string) devbackend.Mail {
	t.Helper()
	mails := backend.Mailbox()
	for i := len(mails) - 1; i >= 0; i-- {
		if mails[i].To == to {
			return mails[i]
		}
	}
	t.Fatalf("no mail delivered to %s", to)
	return devbackend.Mail{}
}

func TestRegisterThenLoginLifecycle(t *testing.T) {
	engine, _ := newDevEngine(t, devbackend.DefaultConfig())
	ctx := context.Background()

	result, err := engine.Register(ctx, authflow.CreateAccountRequest{
		Email:           "alice@example.com",
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
		Name:            "Alice",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.Session == nil || result.Session.Email != "alice@example.com" {
		t.Fatalf("unexpected session: %+v", result.Session)
	}
	if result.Destination != authflow.DestinationVerifyEmail {
		t.Fatalf("expected fresh account to land on verify-email, got %v", result.Destination)
	}

	engine.Logout(ctx)
	if engine.Watcher().Current() != nil {
		t.Fatal("expected logout to clear the session")
	}

	login, err := engine.Login(ctx, "Alice@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.ChallengeRequired {
		t.Fatal("expected no second factor by default")
	}
	if login.Destination != authflow.DestinationVerifyEmail {
		t.Fatalf("unexpected destination: %v", login.Destination)
	}
	if current := engine.Watcher().Current(); current == nil || current.Email != "alice@example.com" {
		t.Fatalf("unexpected current session: %+v", current)
	}
}

func TestDuplicateRegistrationLeavesNoSession(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())
	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")

	_, err := engine.Register(context.Background(), authflow.CreateAccountRequest{
		Email:           "alice@example.com",
		Password:        "another-pass",
		PasswordConfirm: "another-pass",
		Name:            "Imposter",
	})
	ve, ok := authflow.AsValidationError(err)
	if !ok || ve.Field != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}
	if engine.Watcher().Current() != nil {
		t.Fatal("failed registration must not sign anyone in")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())
	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")

	_, err := engine.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, authflow.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSecondFactorLoginEndToEnd(t *testing.T) {
	cfg := devbackend.DefaultConfig()
	cfg.SecondFactor = true
	engine, backend := newDevEngine(t, cfg)
	ctx := context.Background()

	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")

	result, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.ChallengeRequired || result.Flow == nil {
		t.Fatalf("expected a running challenge flow, got %+v", result)
	}
	if result.Flow.State() != authflow.ChallengeIssued {
		t.Fatalf("expected issued flow, got %v", result.Flow.State())
	}
	if engine.Watcher().Current() != nil {
		t.Fatal("no session may exist before the code is verified")
	}

	code := lastMail(t, backend, "alice@example.com").Code
	if code == "" {
		t.Fatal("expected a mailed one-time code")
	}
	if err := result.Flow.Verify(ctx, code); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	current := engine.Watcher().Current()
	if current == nil || current.Email != "alice@example.com" {
		t.Fatalf("expected signed-in session after verify, got %+v", current)
	}
}

func TestSecondFactorResendDeliversFreshCode(t *testing.T) {
	cfg := devbackend.DefaultConfig()
	cfg.SecondFactor = true
	engine, backend := newDevEngine(t, cfg)
	ctx := context.Background()

	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")

	result, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := result.Flow.Resend(ctx); err != nil {
		t.Fatalf("Resend failed: %v", err)
	}

	code := lastMail(t, backend, "alice@example.com").Code
	if err := result.Flow.Verify(ctx, code); err != nil {
		t.Fatalf("Verify with resent code failed: %v", err)
	}
}

func TestResendVerificationThrottled(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())
	ctx := context.Background()

	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")
	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.ResendVerificationEmail(ctx); err != nil {
		t.Fatalf("first resend failed: %v", err)
	}
	if err := engine.ResendVerificationEmail(ctx); !errors.Is(err, authflow.ErrResendThrottled) {
		t.Fatalf("expected ErrResendThrottled, got %v", err)
	}
	if remaining := engine.RemainingResendSeconds(ctx); remaining <= 0 {
		t.Fatalf("expected a running cooldown, got %d", remaining)
	}
}

func TestConfirmVerificationEndToEnd(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())
	ctx := context.Background()

	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")
	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := engine.ResendVerificationEmail(ctx); err != nil {
		t.Fatalf("resend failed: %v", err)
	}

	tok := lastMail(t, backend, "alice@example.com").Token
	if tok == "" {
		t.Fatal("expected a mailed verification token")
	}

	outcome := engine.ConfirmVerification(ctx, tok)
	if outcome.State != authflow.OutcomeSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.Context == nil || outcome.Context.SubjectEmail != "alice@example.com" {
		t.Fatalf("expected decoded token context, got %+v", outcome.Context)
	}

	// The confirmed account is the signed-in one, so the local session was
	// refreshed.
	if current := engine.Watcher().Current(); current == nil || !current.Verified {
		t.Fatalf("expected verified session, got %+v", current)
	}
	if dest := authflow.Decide(engine.Watcher().Current()); dest != authflow.DestinationProtected {
		t.Fatalf("expected protected destination, got %v", dest)
	}
}

func TestConfirmVerificationGarbageTokenIsTerminal(t *testing.T) {
	engine, _ := newDevEngine(t, devbackend.DefaultConfig())

	outcome := engine.ConfirmVerification(context.Background(), "not-a-token")
	if outcome.State != authflow.OutcomeError || !outcome.Terminal {
		t.Fatalf("expected terminal error, got %+v", outcome)
	}
	if outcome.ErrorKind != authflow.ConfirmErrorInvalid {
		t.Fatalf("expected invalid-token classification, got %v", outcome.ErrorKind)
	}
}

func TestPasswordResetEndToEnd(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())
	ctx := context.Background()

	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	tok := lastMail(t, backend, "alice@example.com").Token

	inspection, err := engine.InspectPasswordResetToken(tok)
	if err != nil || inspection.SubjectEmail != "alice@example.com" {
		t.Fatalf("unexpected inspection: %+v, %v", inspection, err)
	}

	// Local policy failures never reach the backend and stay retryable.
	outcome := engine.ConfirmPasswordReset(ctx, tok, "short", "short")
	if outcome.State != authflow.OutcomeError || outcome.Terminal {
		t.Fatalf("expected retryable policy failure, got %+v", outcome)
	}
	if outcome.ErrorKind != authflow.ConfirmErrorValidation {
		t.Fatalf("expected validation classification, got %v", outcome.ErrorKind)
	}
	outcome = engine.ConfirmPasswordReset(ctx, tok, "new-password", "different")
	if outcome.ErrorKind != authflow.ConfirmErrorValidation {
		t.Fatalf("expected mismatch to classify as validation, got %+v", outcome)
	}

	outcome = engine.ConfirmPasswordReset(ctx, tok, "new-password", "new-password")
	if outcome.State != authflow.OutcomeSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}

	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); !errors.Is(err, authflow.ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "new-password"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestRequestPasswordResetDoesNotRevealAccounts(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())

	if err := engine.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success for unknown address, got %v", err)
	}
	if len(backend.Mailbox()) != 0 {
		t.Fatal("no mail may be sent for unknown addresses")
	}
}

func TestEmailChangeEndToEnd(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())
	ctx := context.Background()

	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")
	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.RequestEmailChange(ctx, "alice@example.com"); err == nil {
		t.Fatal("expected same-address change to be rejected")
	}
	if err := engine.RequestEmailChange(ctx, "alice.new@example.com"); err != nil {
		t.Fatalf("RequestEmailChange failed: %v", err)
	}

	tok := lastMail(t, backend, "alice.new@example.com").Token
	confirm, inspection := engine.BeginEmailChangeConfirm(tok)
	if inspection == nil || inspection.NewEmail != "alice.new@example.com" {
		t.Fatalf("unexpected inspection: %+v", inspection)
	}

	// A wrong password keeps the screen alive.
	outcome := confirm.Submit(ctx, "wrong")
	if outcome.Terminal || outcome.ErrorKind != authflow.ConfirmErrorIncorrectPassword {
		t.Fatalf("expected retryable wrong-password outcome, got %+v", outcome)
	}

	outcome = confirm.Submit(ctx, "correct-horse")
	if outcome.State != authflow.OutcomeSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if current := engine.Watcher().Current(); current == nil || current.Email != "alice.new@example.com" {
		t.Fatalf("expected refreshed session with new address, got %+v", current)
	}

	// The controller is spent after success.
	outcome = confirm.Submit(ctx, "correct-horse")
	if outcome.State != authflow.OutcomeError || !outcome.Terminal {
		t.Fatalf("expected spent controller to report a terminal error, got %+v", outcome)
	}
}

func TestEmailChangeBadTokenIsTerminal(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())
	ctx := context.Background()

	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")
	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	confirm, _ := engine.BeginEmailChangeConfirm("garbage")
	outcome := confirm.Submit(ctx, "correct-horse")
	if !outcome.Terminal || outcome.ErrorKind != authflow.ConfirmErrorInvalid {
		t.Fatalf("expected terminal invalid-token outcome, got %+v", outcome)
	}
}

func TestCheckVerifiedPicksUpOutOfBandConfirmation(t *testing.T) {
	engine, backend := newDevEngine(t, devbackend.DefaultConfig())
	ctx := context.Background()

	mustCreateAccount(t, backend, "alice@example.com", "correct-horse")
	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	verified, err := engine.CheckVerified(ctx)
	if err != nil || verified {
		t.Fatalf("expected unverified account, got %v, %v", verified, err)
	}

	// Confirm against the backend directly, standing in for another device.
	if err := backend.RequestVerificationEmail(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	tok := lastMail(t, backend, "alice@example.com").Token
	if err := backend.ConfirmVerification(ctx, tok); err != nil {
		t.Fatalf("ConfirmVerification failed: %v", err)
	}

	verified, err = engine.CheckVerified(ctx)
	if err != nil {
		t.Fatalf("CheckVerified failed: %v", err)
	}
	if !verified {
		t.Fatal("expected the out-of-band confirmation to be picked up")
	}
}
