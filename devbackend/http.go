package devbackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/halcyonlabs/authflow"
)

// Wire types shared with the remote client. Field names are part of the
// backend HTTP contract.

type wireSession struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Verified    bool   `json:"verified"`
}

type wireHandle struct {
	Token                string      `json:"token,omitempty"`
	SecondFactorRequired bool        `json:"secondFactorRequired,omitempty"`
	Record               wireSession `json:"record"`
}

type wireError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

type wireErrorEnvelope struct {
	Error wireError `json:"error"`
}

func toWireHandle(h *authflow.SessionHandle) wireHandle {
	return wireHandle{
		Token:                h.Token,
		SecondFactorRequired: h.SecondFactorRequired,
		Record: wireSession{
			ID:          h.Record.ID,
			Email:       h.Record.Email,
			DisplayName: h.Record.DisplayName,
			Verified:    h.Record.Verified,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var status int
	var wire wireError

	var ve *authflow.ValidationError
	switch {
	case errors.As(err, &ve):
		status, wire = http.StatusBadRequest, wireError{Code: "validation", Field: ve.Field, Message: ve.Message}
	case errors.Is(err, authflow.ErrInvalidCredentials):
		status, wire = http.StatusUnauthorized, wireError{Code: "invalid_credentials"}
	case errors.Is(err, authflow.ErrUnauthorized):
		status, wire = http.StatusUnauthorized, wireError{Code: "unauthorized"}
	case errors.Is(err, authflow.ErrIncorrectPassword):
		status, wire = http.StatusUnauthorized, wireError{Code: "incorrect_password"}
	case errors.Is(err, authflow.ErrInvalidCode):
		status, wire = http.StatusBadRequest, wireError{Code: "invalid_code"}
	case errors.Is(err, authflow.ErrChallengeExpired):
		status, wire = http.StatusGone, wireError{Code: "challenge_expired"}
	case errors.Is(err, authflow.ErrChallengeInvalid):
		status, wire = http.StatusBadRequest, wireError{Code: "challenge_invalid"}
	case errors.Is(err, authflow.ErrTokenExpired):
		status, wire = http.StatusGone, wireError{Code: "token_expired"}
	case errors.Is(err, authflow.ErrTokenInvalid):
		status, wire = http.StatusBadRequest, wireError{Code: "token_invalid"}
	default:
		status, wire = http.StatusInternalServerError, wireError{Code: "internal"}
	}

	writeJSON(w, status, wireErrorEnvelope{Error: wire})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, wireErrorEnvelope{Error: wireError{Code: "bad_request"}})
		return false
	}
	return true
}

func bearerHandle(r *http.Request) *authflow.SessionHandle {
	auth := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || tok == "" {
		return nil
	}
	return &authflow.SessionHandle{Token: tok}
}

// NewHTTPHandler describes the newhttphandler operation and its observable behavior.
//
// NewHTTPHandler exposes the dev backend over the same HTTP contract the
// remote client speaks, for the bundled dev server and client tests.
func NewHTTPHandler(b *Backend) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /accounts", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email           string `json:"email"`
			Password        string `json:"password"`
			PasswordConfirm string `json:"passwordConfirm"`
			Name            string `json:"name"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		handle, err := b.CreateAccount(r.Context(), authflow.CreateAccountRequest{
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
			Name:            req.Name,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toWireHandle(handle))
	})

	mux.HandleFunc("POST /auth/password", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		handle, err := b.AuthenticateWithPassword(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWireHandle(handle))
	})

	mux.HandleFunc("POST /auth/otp/request", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		challengeID, err := b.RequestOneTimeCode(r.Context(), req.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"challengeId": challengeID})
	})

	mux.HandleFunc("POST /auth/otp/verify", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ChallengeID string `json:"challengeId"`
			Code        string `json:"code"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		handle, err := b.VerifyOneTimeCode(r.Context(), req.ChallengeID, req.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWireHandle(handle))
	})

	mux.HandleFunc("POST /verification/request", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := b.RequestVerificationEmail(r.Context(), req.Email); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	mux.HandleFunc("POST /verification/confirm", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := b.ConfirmVerification(r.Context(), req.Token); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	mux.HandleFunc("POST /password-reset/request", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := b.RequestPasswordReset(r.Context(), req.Email); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	mux.HandleFunc("POST /password-reset/confirm", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token           string `json:"token"`
			Password        string `json:"password"`
			PasswordConfirm string `json:"passwordConfirm"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := b.ConfirmPasswordReset(r.Context(), req.Token, req.Password, req.PasswordConfirm); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	mux.HandleFunc("POST /email-change/request", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NewEmail string `json:"newEmail"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := b.RequestEmailChange(r.Context(), bearerHandle(r), req.NewEmail); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	mux.HandleFunc("POST /email-change/confirm", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token           string `json:"token"`
			CurrentPassword string `json:"currentPassword"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := b.ConfirmEmailChange(r.Context(), req.Token, req.CurrentPassword); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	mux.HandleFunc("GET /session", func(w http.ResponseWriter, r *http.Request) {
		handle := bearerHandle(r)
		if handle == nil {
			writeError(w, authflow.ErrUnauthorized)
			return
		}
		record, err := b.RefreshSession(r.Context(), handle)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wireSession{
			ID:          record.ID,
			Email:       record.Email,
			DisplayName: record.DisplayName,
			Verified:    record.Verified,
		})
	})

	return mux
}
