package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonlabs/authflow"
)

// Config defines a public type used by authflow APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// BaseAddr is the backend base URL, e.g. "https://api.example.com".
	BaseAddr string

	Timeout time.Duration

	// HTTPClient overrides the default client; the Timeout field is
	// ignored when set.
	HTTPClient *http.Client
}

// Client defines a public type used by authflow APIs.
//
// Client implements authflow.Backend against a remote HTTP backend.
type Client struct {
	base string
	http *http.Client
}

// New describes the new operation and its observable behavior.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseAddr), "/")
	if base == "" {
		return nil, errors.New("base address required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, http: httpClient}, nil
}

type wireSession struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Verified    bool   `json:"verified"`
}

type wireHandle struct {
	Token                string      `json:"token"`
	SecondFactorRequired bool        `json:"secondFactorRequired"`
	Record               wireSession `json:"record"`
}

type wireError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type wireErrorEnvelope struct {
	Error wireError `json:"error"`
}

func (s wireSession) toSession() authflow.Session {
	return authflow.Session{
		ID:          s.ID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		Verified:    s.Verified,
	}
}

func (h wireHandle) toHandle() *authflow.SessionHandle {
	return &authflow.SessionHandle{
		Token:                h.Token,
		SecondFactorRequired: h.SecondFactorRequired,
		Record:               h.Record.toSession(),
	}
}

func mapWireError(status int, wire wireError) error {
	switch wire.Code {
	case "invalid_credentials":
		return authflow.ErrInvalidCredentials
	case "unauthorized":
		return authflow.ErrUnauthorized
	case "incorrect_password":
		return authflow.ErrIncorrectPassword
	case "invalid_code":
		return authflow.ErrInvalidCode
	case "challenge_invalid":
		return authflow.ErrChallengeInvalid
	case "challenge_expired":
		return authflow.ErrChallengeExpired
	case "token_invalid":
		return authflow.ErrTokenInvalid
	case "token_expired":
		return authflow.ErrTokenExpired
	case "validation":
		return &authflow.ValidationError{Field: wire.Field, Message: wire.Message}
	default:
		return fmt.Errorf("backend rejected request: status %d code %q", status, wire.Code)
	}
}

// call performs one JSON round trip. out may be nil for endpoints whose
// success body is ignored.
func (c *Client) call(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	requestID := authflow.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope wireErrorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Code == "" {
			return fmt.Errorf("backend rejected request: status %d", resp.StatusCode)
		}
		return mapWireError(resp.StatusCode, envelope.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateAccount describes the createaccount operation and its observable behavior.
func (c *Client) CreateAccount(ctx context.Context, req authflow.CreateAccountRequest) (*authflow.SessionHandle, error) {
	in := map[string]string{
		"email":           req.Email,
		"password":        req.Password,
		"passwordConfirm": req.PasswordConfirm,
		"name":            req.Name,
	}
	var out wireHandle
	if err := c.call(ctx, http.MethodPost, "/accounts", "", in, &out); err != nil {
		return nil, err
	}
	return out.toHandle(), nil
}

// AuthenticateWithPassword describes the authenticatewithpassword operation and its observable behavior.
func (c *Client) AuthenticateWithPassword(ctx context.Context, email, password string) (*authflow.SessionHandle, error) {
	in := map[string]string{"email": email, "password": password}
	var out wireHandle
	if err := c.call(ctx, http.MethodPost, "/auth/password", "", in, &out); err != nil {
		return nil, err
	}
	return out.toHandle(), nil
}

// RequestOneTimeCode describes the requestonetimecode operation and its observable behavior.
func (c *Client) RequestOneTimeCode(ctx context.Context, email string) (string, error) {
	in := map[string]string{"email": email}
	var out struct {
		ChallengeID string `json:"challengeId"`
	}
	if err := c.call(ctx, http.MethodPost, "/auth/otp/request", "", in, &out); err != nil {
		return "", err
	}
	return out.ChallengeID, nil
}

// VerifyOneTimeCode describes the verifyonetimecode operation and its observable behavior.
func (c *Client) VerifyOneTimeCode(ctx context.Context, challengeID, code string) (*authflow.SessionHandle, error) {
	in := map[string]string{"challengeId": challengeID, "code": code}
	var out wireHandle
	if err := c.call(ctx, http.MethodPost, "/auth/otp/verify", "", in, &out); err != nil {
		return nil, err
	}
	return out.toHandle(), nil
}

// RequestVerificationEmail describes the requestverificationemail operation and its observable behavior.
func (c *Client) RequestVerificationEmail(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/verification/request", "", map[string]string{"email": email}, nil)
}

// ConfirmVerification describes the confirmverification operation and its observable behavior.
func (c *Client) ConfirmVerification(ctx context.Context, tok string) error {
	return c.call(ctx, http.MethodPost, "/verification/confirm", "", map[string]string{"token": tok}, nil)
}

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/password-reset/request", "", map[string]string{"email": email}, nil)
}

// ConfirmPasswordReset describes the confirmpasswordreset operation and its observable behavior.
func (c *Client) ConfirmPasswordReset(ctx context.Context, tok, password, passwordConfirm string) error {
	in := map[string]string{
		"token":           tok,
		"password":        password,
		"passwordConfirm": passwordConfirm,
	}
	return c.call(ctx, http.MethodPost, "/password-reset/confirm", "", in, nil)
}

// RequestEmailChange describes the requestemailchange operation and its observable behavior.
func (c *Client) RequestEmailChange(ctx context.Context, handle *authflow.SessionHandle, newEmail string) error {
	if handle == nil || handle.Token == "" {
		return authflow.ErrUnauthorized
	}
	return c.call(ctx, http.MethodPost, "/email-change/request", handle.Token, map[string]string{"newEmail": newEmail}, nil)
}

// ConfirmEmailChange describes the confirmemailchange operation and its observable behavior.
func (c *Client) ConfirmEmailChange(ctx context.Context, tok, currentPassword string) error {
	in := map[string]string{"token": tok, "currentPassword": currentPassword}
	return c.call(ctx, http.MethodPost, "/email-change/confirm", "", in, nil)
}

// RefreshSession describes the refreshsession operation and its observable behavior.
func (c *Client) RefreshSession(ctx context.Context, handle *authflow.SessionHandle) (*authflow.Session, error) {
	if handle == nil || handle.Token == "" {
		return nil, authflow.ErrUnauthorized
	}
	var out wireSession
	if err := c.call(ctx, http.MethodGet, "/session", handle.Token, nil, &out); err != nil {
		return nil, err
	}
	record := out.toSession()
	return &record, nil
}
