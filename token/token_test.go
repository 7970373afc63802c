package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintLinkToken(t *testing.T, purpose, email, newEmail string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"purpose": purpose,
		"email":   email,
		"exp":     expiresAt.Unix(),
	}
	if newEmail != "" {
		claims["newEmail"] = newEmail
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return signed
}

func TestInspectValidToken(t *testing.T) {
	expiresAt := time.Now().Add(30 * time.Minute)
	tok := mintLinkToken(t, PurposeEmailChange, "old@example.com", "new@example.com", expiresAt)

	inspection, err := Inspect(tok)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if inspection.SubjectEmail != "old@example.com" {
		t.Fatalf("unexpected subject email: %q", inspection.SubjectEmail)
	}
	if inspection.NewEmail != "new@example.com" {
		t.Fatalf("unexpected new email: %q", inspection.NewEmail)
	}
	if inspection.Purpose != PurposeEmailChange {
		t.Fatalf("unexpected purpose: %q", inspection.Purpose)
	}
	if inspection.ExpiresAt.Unix() != expiresAt.Unix() {
		t.Fatalf("unexpected expiry: %v", inspection.ExpiresAt)
	}
}

func TestInspectSegmentCount(t *testing.T) {
	for _, tok := range []string{
		"",
		"justonesegment",
		"two.segments",
		"four.whole.token.segments",
		"   ",
	} {
		if _, err := Inspect(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", tok, err)
		}
	}
}

func TestInspectPayloadNotJSON(t *testing.T) {
	if _, err := Inspect("aGVhZGVy.bm90LWpzb24.c2ln"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestInspectMissingClaims(t *testing.T) {
	missingPurpose, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := Inspect(missingPurpose); !errors.Is(err, ErrMissingClaims) {
		t.Fatalf("expected ErrMissingClaims, got %v", err)
	}

	missingExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"purpose": PurposeVerification,
		"email":   "user@example.com",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := Inspect(missingExpiry); !errors.Is(err, ErrMissingClaims) {
		t.Fatalf("expected ErrMissingClaims, got %v", err)
	}
}

func TestInspectExpiredReturnsClaims(t *testing.T) {
	tok := mintLinkToken(t, PurposePasswordReset, "user@example.com", "", time.Now().Add(-time.Minute))

	inspection, err := Inspect(tok)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if inspection == nil {
		t.Fatal("expected decoded claims alongside ErrExpired")
	}
	if inspection.SubjectEmail != "user@example.com" || inspection.Purpose != PurposePasswordReset {
		t.Fatalf("unexpected expired inspection: %+v", inspection)
	}
}

// FuzzInspect exercises the inspector with arbitrary token strings.
// Goal: no panics; invalid inputs must be rejected with typed errors.
func FuzzInspect(f *testing.F) {
	claims := jwt.MapClaims{
		"purpose": PurposeVerification,
		"email":   "user@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	seed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("fuzz-secret"))
	if err != nil {
		f.Fatal(err)
	}

	f.Add(seed)
	f.Add("")
	f.Add("not.a.token")
	f.Add("a.b.c.d")
	f.Add("eyJhbGciOiJub25lIn0.eyJwdXJwb3NlIjoidmVyaWZpY2F0aW9uIn0.")

	f.Fuzz(func(t *testing.T, input string) {
		inspection, err := Inspect(input)
		if err != nil && !errors.Is(err, ErrExpired) {
			return
		}
		if inspection == nil {
			t.Fatal("Inspect returned nil inspection without a hard error")
		}
	})
}
