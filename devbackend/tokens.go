package devbackend

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/halcyonlabs/authflow"
	"github.com/halcyonlabs/authflow/token"
)

const (
	purposeVerification  = token.PurposeVerification
	purposeEmailChange   = token.PurposeEmailChange
	purposePasswordReset = token.PurposePasswordReset
)

type linkClaims struct {
	Purpose  string `json:"purpose"`
	Email    string `json:"email"`
	NewEmail string `json:"newEmail,omitempty"`
	jwt.RegisteredClaims
}

func (b *Backend) mintLinkToken(purpose, email, newEmail string) (string, error) {
	now := b.now()
	claims := linkClaims{
		Purpose:  purpose,
		Email:    email,
		NewEmail: newEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.config.LinkTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.config.SigningKey)
}

func (b *Backend) parseLinkToken(tok, wantPurpose string) (*linkClaims, error) {
	claims := &linkClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return b.config.SigningKey, nil
	}, jwt.WithTimeFunc(b.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authflow.ErrTokenExpired
		}
		return nil, authflow.ErrTokenInvalid
	}
	if !parsed.Valid || claims.Purpose != wantPurpose || claims.Email == "" {
		return nil, authflow.ErrTokenInvalid
	}
	return claims, nil
}
