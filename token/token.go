package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is an exported constant or variable used by the flow engine.
	ErrMalformed = errors.New("malformed link token")
	// ErrMissingClaims is an exported constant or variable used by the flow engine.
	ErrMissingClaims = errors.New("link token missing required claims")
	// ErrExpired is an exported constant or variable used by the flow engine.
	ErrExpired = errors.New("link token expired")
)

// Purpose values carried in the token's "purpose" claim.
const (
	// PurposeVerification is an exported constant or variable used by the flow engine.
	PurposeVerification = "verification"
	// PurposeEmailChange is an exported constant or variable used by the flow engine.
	PurposeEmailChange = "email_change"
	// PurposePasswordReset is an exported constant or variable used by the flow engine.
	PurposePasswordReset = "password_reset"
)

// Inspection defines a public type used by authflow APIs.
//
// Inspection instances are intended to be treated as display-only context.
// They carry no proof of authenticity and must never drive an authorization
// decision.
type Inspection struct {
	SubjectEmail string
	NewEmail     string
	Purpose      string
	ExpiresAt    time.Time
}

type linkClaims struct {
	Email    string `json:"email"`
	NewEmail string `json:"newEmail,omitempty"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// Inspect describes the inspect operation and its observable behavior.
//
// Inspect decodes tok's claims without signature verification. It returns
// ErrMalformed for anything that is not a three-segment compact token with a
// JSON payload, ErrMissingClaims when purpose, subject email, or expiry are
// absent, and ErrExpired — together with the decoded Inspection — when the
// token's expiry is not in the future. Callers that receive ErrExpired can
// still render "what would have happened" context from the returned value.
func Inspect(tok string) (*Inspection, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.Count(tok, ".") != 2 {
		return nil, ErrMalformed
	}

	claims := &linkClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return nil, ErrMalformed
	}

	if claims.Purpose == "" || claims.Email == "" || claims.ExpiresAt == nil {
		return nil, ErrMissingClaims
	}

	inspection := &Inspection{
		SubjectEmail: claims.Email,
		NewEmail:     claims.NewEmail,
		Purpose:      claims.Purpose,
		ExpiresAt:    claims.ExpiresAt.Time,
	}

	if !claims.ExpiresAt.Time.After(time.Now()) {
		return inspection, ErrExpired
	}

	return inspection, nil
}
