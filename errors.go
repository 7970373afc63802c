package authflow

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the flow engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the flow engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode is an exported constant or variable used by the flow engine.
	ErrInvalidCode = errors.New("invalid one-time code")
	// ErrIncorrectPassword is an exported constant or variable used by the flow engine.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrTokenInvalid is an exported constant or variable used by the flow engine.
	ErrTokenInvalid = errors.New("invalid link token")
	// ErrTokenExpired is an exported constant or variable used by the flow engine.
	ErrTokenExpired = errors.New("link token expired")
	// ErrChallengeIssueFailed is an exported constant or variable used by the flow engine.
	ErrChallengeIssueFailed = errors.New("one-time code issue failed")
	// ErrChallengeInvalid is an exported constant or variable used by the flow engine.
	ErrChallengeInvalid = errors.New("challenge invalid")
	// ErrChallengeExpired is an exported constant or variable used by the flow engine.
	ErrChallengeExpired = errors.New("challenge expired")
	// ErrChallengeState is an exported constant or variable used by the flow engine.
	ErrChallengeState = errors.New("operation not valid in current challenge state")
	// ErrFlowBusy is an exported constant or variable used by the flow engine.
	ErrFlowBusy = errors.New("flow action already in flight")
	// ErrResendThrottled is an exported constant or variable used by the flow engine.
	ErrResendThrottled = errors.New("resend cooldown active")
	// ErrAccountExists is an exported constant or variable used by the flow engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrPasswordPolicy is an exported constant or variable used by the flow engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrSessionRequired is an exported constant or variable used by the flow engine.
	ErrSessionRequired = errors.New("no active session")
	// ErrBackendUnavailable is an exported constant or variable used by the flow engine.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the flow engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError defines a public type used by authflow APIs.
//
// ValidationError carries a field-level validation failure that is resolved
// locally and never reaches the network, or a field-scoped rejection returned
// by the backend (for example a duplicate registration email).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// AsValidationError describes the asvalidationerror operation and its observable behavior.
//
// AsValidationError unwraps err into a *ValidationError when one is present
// anywhere in its chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
