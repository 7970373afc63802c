package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/halcyonlabs/authflow/session"
	"github.com/halcyonlabs/authflow/token"
)

// Session defines a public type used by authflow APIs.
//
// Session is the display-level record of the signed-in account. See the
// session package for the persisted form.
type Session = session.Session

// SessionHandle defines a public type used by authflow APIs.
//
// SessionHandle pairs a session record with the opaque token that
// authenticates follow-up backend calls.
type SessionHandle = session.Handle

// Challenge defines a public type used by authflow APIs.
//
// Challenge identifies a pending one-time-code exchange. The code itself is
// delivered out of band; the client only ever holds the challenge identifier.
type Challenge struct {
	ChallengeID string
	TargetEmail string
	IssuedAt    time.Time
}

// CreateAccountRequest defines a public type used by authflow APIs.
type CreateAccountRequest struct {
	Email           string
	Password        string
	PasswordConfirm string
	Name            string
}

// Backend defines a public type used by authflow APIs.
//
// Backend is the collaborator that owns credentials, accounts and link
// tokens. The engine orchestrates multi-step flows on top of it and treats
// every method as a network call: implementations must honor context
// cancellation and return the package sentinels (ErrInvalidCredentials,
// ErrInvalidCode, ErrTokenExpired, ...) for rejections they can classify.
type Backend interface {
	// CreateAccount registers a new account and signs it in, returning the
	// initial, unverified session handle. A duplicate email is reported as
	// a *ValidationError scoped to the email field.
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*SessionHandle, error)

	// AuthenticateWithPassword exchanges credentials for a session handle.
	// When a second factor is enforced the handle carries no token and has
	// SecondFactorRequired set.
	AuthenticateWithPassword(ctx context.Context, email, password string) (*SessionHandle, error)

	// RequestOneTimeCode issues a fresh one-time code for the account and
	// returns the challenge identifier to verify it against.
	RequestOneTimeCode(ctx context.Context, email string) (string, error)

	// VerifyOneTimeCode redeems a code against a previously issued
	// challenge and returns the full session handle on success.
	VerifyOneTimeCode(ctx context.Context, challengeID, code string) (*SessionHandle, error)

	// RequestVerificationEmail sends (or re-sends) the address
	// verification mail for the account.
	RequestVerificationEmail(ctx context.Context, email string) error

	// ConfirmVerification redeems a verification link token.
	ConfirmVerification(ctx context.Context, tok string) error

	// RequestPasswordReset sends the reset mail. Unknown addresses are not
	// distinguishable from known ones.
	RequestPasswordReset(ctx context.Context, email string) error

	// ConfirmPasswordReset redeems a reset link token together with the
	// replacement password.
	ConfirmPasswordReset(ctx context.Context, tok, password, passwordConfirm string) error

	// RequestEmailChange sends the change-confirmation mail to the new
	// address on behalf of the authenticated session.
	RequestEmailChange(ctx context.Context, handle *SessionHandle, newEmail string) error

	// ConfirmEmailChange redeems an email-change link token, re-proving
	// the account password.
	ConfirmEmailChange(ctx context.Context, tok, currentPassword string) error

	// RefreshSession re-reads the session record behind the handle.
	// Returns ErrUnauthorized when the token is no longer accepted.
	RefreshSession(ctx context.Context, handle *SessionHandle) (*Session, error)
}

// Destination defines a public type used by authflow APIs.
//
// Destination names the screen a session state maps to.
type Destination int

const (
	// DestinationLogin is an exported constant or variable used by the flow engine.
	DestinationLogin Destination = iota
	// DestinationVerifyEmail is an exported constant or variable used by the flow engine.
	DestinationVerifyEmail
	// DestinationProtected is an exported constant or variable used by the flow engine.
	DestinationProtected
)

func (d Destination) String() string {
	switch d {
	case DestinationLogin:
		return "login"
	case DestinationVerifyEmail:
		return "verify_email"
	case DestinationProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// LoginResult defines a public type used by authflow APIs.
//
// LoginResult reports the outcome of a password exchange. When
// ChallengeRequired is set the session is not live yet and Flow carries the
// running one-time-code exchange; otherwise Destination says where the now
// signed-in account should land.
type LoginResult struct {
	ChallengeRequired bool
	Flow              *ChallengeFlow
	Destination       Destination
}

// OutcomeState defines a public type used by authflow APIs.
type OutcomeState int

const (
	// OutcomePending is an exported constant or variable used by the flow engine.
	OutcomePending OutcomeState = iota
	// OutcomeSuccess is an exported constant or variable used by the flow engine.
	OutcomeSuccess
	// OutcomeError is an exported constant or variable used by the flow engine.
	OutcomeError
)

// ConfirmErrorKind defines a public type used by authflow APIs.
//
// ConfirmErrorKind classifies a failed link-token confirmation so callers can
// choose between a terminal error screen and an inline retry.
type ConfirmErrorKind int

const (
	// ConfirmErrorNone is an exported constant or variable used by the flow engine.
	ConfirmErrorNone ConfirmErrorKind = iota
	// ConfirmErrorExpired is an exported constant or variable used by the flow engine.
	ConfirmErrorExpired
	// ConfirmErrorInvalid is an exported constant or variable used by the flow engine.
	ConfirmErrorInvalid
	// ConfirmErrorIncorrectPassword is an exported constant or variable used by the flow engine.
	ConfirmErrorIncorrectPassword
	// ConfirmErrorValidation is an exported constant or variable used by the flow engine.
	ConfirmErrorValidation
	// ConfirmErrorOther is an exported constant or variable used by the flow engine.
	ConfirmErrorOther
)

// ConfirmOutcome defines a public type used by authflow APIs.
//
// ConfirmOutcome is the result of redeeming a link token. Terminal marks
// outcomes that cannot be retried on the same screen (the token itself is
// dead); non-terminal errors leave the screen usable for another attempt.
// Context carries the advisory claims decoded from the link token, when the
// token was readable, regardless of outcome.
type ConfirmOutcome struct {
	State     OutcomeState
	ErrorKind ConfirmErrorKind
	Terminal  bool
	Context   *token.Inspection
	Err       error
}

func confirmFailure(err error, ctxInfo *token.Inspection) ConfirmOutcome {
	out := ConfirmOutcome{State: OutcomeError, Err: err, Context: ctxInfo}
	switch {
	case errors.Is(err, ErrTokenExpired):
		out.ErrorKind = ConfirmErrorExpired
		out.Terminal = true
	case errors.Is(err, ErrTokenInvalid):
		out.ErrorKind = ConfirmErrorInvalid
		out.Terminal = true
	case errors.Is(err, ErrIncorrectPassword):
		out.ErrorKind = ConfirmErrorIncorrectPassword
	default:
		if _, ok := AsValidationError(err); ok {
			out.ErrorKind = ConfirmErrorValidation
		} else {
			out.ErrorKind = ConfirmErrorOther
		}
	}
	return out
}
