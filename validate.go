package authflow

import "strings"

// Local input validation mirrors what the backend enforces so obviously bad
// submissions never cost a network round trip. The backend remains the
// authority; anything that passes here can still come back rejected.

func validateEmail(email string) *ValidationError {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required."}
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return &ValidationError{Field: "email", Message: "Email address is not valid."}
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.ContainsAny(email, " \t") {
		return &ValidationError{Field: "email", Message: "Email address is not valid."}
	}
	return nil
}

func (e *Engine) validateNewPassword(password, confirm string) *ValidationError {
	if len(password) < e.config.Password.MinLength {
		return &ValidationError{Field: "password", Message: "Password is too short."}
	}
	if password != confirm {
		return &ValidationError{Field: "passwordConfirm", Message: "Passwords do not match."}
	}
	return nil
}

func (e *Engine) validateCode(code string) *ValidationError {
	code = strings.TrimSpace(code)
	if len(code) != e.config.Challenge.CodeLength {
		return &ValidationError{Field: "code", Message: "Code has the wrong length."}
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return &ValidationError{Field: "code", Message: "Code must be digits only."}
		}
	}
	return nil
}
