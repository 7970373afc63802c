package devbackend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"github.com/halcyonlabs/authflow"
	"github.com/halcyonlabs/authflow/password"
)

// Config defines a public type used by authflow APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// SecondFactor makes password logins require a one-time code.
	SecondFactor bool

	// ChallengeTTL bounds how long an issued one-time code stays valid.
	ChallengeTTL time.Duration

	// LinkTokenTTL bounds verification, reset and email-change links.
	LinkTokenTTL time.Duration

	// SigningKey signs link tokens. A development default is used when
	// empty.
	SigningKey []byte
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
func DefaultConfig() Config {
	return Config{
		SecondFactor: false,
		ChallengeTTL: 5 * time.Minute,
		LinkTokenTTL: time.Hour,
		SigningKey:   []byte("authflow-devbackend-signing-key"),
	}
}

// Mail defines a public type used by authflow APIs.
//
// Mail is a captured outgoing message. Token and Code expose the payload a
// real mail would embed in a link or body.
type Mail struct {
	To      string
	Subject string
	Body    string
	Token   string
	Code    string
}

type account struct {
	id           string
	email        string
	name         string
	passwordHash string
	verified     bool
}

type challenge struct {
	email     string
	secret    string
	expiresAt time.Time
}

// Backend defines a public type used by authflow APIs.
//
// Backend is the in-memory dev implementation of authflow.Backend. All
// methods are safe for concurrent use.
type Backend struct {
	config Config
	hasher *password.Hasher

	mu         sync.Mutex
	accounts   map[string]*account   // keyed by email
	sessions   map[string]string     // token -> email
	challenges map[string]*challenge // challenge id -> challenge
	mailbox    []Mail

	now func() time.Time
}

// New describes the new operation and its observable behavior.
func New(cfg Config) (*Backend, error) {
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	if cfg.LinkTokenTTL <= 0 {
		cfg.LinkTokenTTL = time.Hour
	}
	if len(cfg.SigningKey) == 0 {
		cfg.SigningKey = DefaultConfig().SigningKey
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		return nil, err
	}

	return &Backend{
		config:     cfg,
		hasher:     hasher,
		accounts:   make(map[string]*account),
		sessions:   make(map[string]string),
		challenges: make(map[string]*challenge),
		now:        time.Now,
	}, nil
}

// Mailbox describes the mailbox operation and its observable behavior.
//
// Mailbox returns a copy of every captured mail in send order.
func (b *Backend) Mailbox() []Mail {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Mail, len(b.mailbox))
	copy(out, b.mailbox)
	return out
}

// CodeFor describes the codefor operation and its observable behavior.
//
// CodeFor returns the currently valid one-time code for a challenge, for
// tests that do not want to parse it out of the mailbox.
func (b *Backend) CodeFor(challengeID string) (string, error) {
	b.mu.Lock()
	ch, ok := b.challenges[challengeID]
	b.mu.Unlock()
	if !ok {
		return "", authflow.ErrChallengeInvalid
	}
	return totp.GenerateCode(ch.secret, b.now())
}

func (b *Backend) deliver(mail Mail) {
	b.mu.Lock()
	b.mailbox = append(b.mailbox, mail)
	b.mu.Unlock()
}

func (b *Backend) sessionRecord(a *account) authflow.Session {
	return authflow.Session{
		ID:          a.id,
		Email:       a.email,
		DisplayName: a.name,
		Verified:    a.verified,
	}
}

func (b *Backend) openSession(a *account) *authflow.SessionHandle {
	tok := uuid.NewString()
	b.sessions[tok] = a.email
	return &authflow.SessionHandle{
		Token:  tok,
		Record: b.sessionRecord(a),
	}
}

// CreateAccount describes the createaccount operation and its observable behavior.
func (b *Backend) CreateAccount(ctx context.Context, req authflow.CreateAccountRequest) (*authflow.SessionHandle, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := b.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.accounts[email]; exists {
		return nil, &authflow.ValidationError{Field: "email", Message: "This email already exists."}
	}

	a := &account{
		id:           uuid.NewString(),
		email:        email,
		name:         req.Name,
		passwordHash: hash,
	}
	b.accounts[email] = a

	return b.openSession(a), nil
}

// AuthenticateWithPassword describes the authenticatewithpassword operation and its observable behavior.
func (b *Backend) AuthenticateWithPassword(ctx context.Context, email, pw string) (*authflow.SessionHandle, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	b.mu.Lock()
	a, ok := b.accounts[email]
	b.mu.Unlock()
	if !ok {
		return nil, authflow.ErrInvalidCredentials
	}

	match, err := b.hasher.Verify(pw, a.passwordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, authflow.ErrInvalidCredentials
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.config.SecondFactor {
		return &authflow.SessionHandle{
			SecondFactorRequired: true,
			Record:               b.sessionRecord(a),
		}, nil
	}

	return b.openSession(a), nil
}

// RequestOneTimeCode describes the requestonetimecode operation and its observable behavior.
//
// RequestOneTimeCode invalidates any challenge already pending for the
// account before issuing a new one, so only the most recent mailed code can
// ever verify.
func (b *Backend) RequestOneTimeCode(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	b.mu.Lock()
	if _, ok := b.accounts[email]; !ok {
		b.mu.Unlock()
		return "", authflow.ErrInvalidCredentials
	}
	for id, ch := range b.challenges {
		if ch.email == email {
			delete(b.challenges, id)
		}
	}
	b.mu.Unlock()

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "authflow-dev",
		AccountName: email,
	})
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	ch := &challenge{
		email:     email,
		secret:    key.Secret(),
		expiresAt: b.now().Add(b.config.ChallengeTTL),
	}

	b.mu.Lock()
	b.challenges[id] = ch
	b.mu.Unlock()

	code, err := totp.GenerateCode(ch.secret, b.now())
	if err != nil {
		return "", err
	}
	b.deliver(Mail{
		To:      email,
		Subject: "Your sign-in code",
		Body:    fmt.Sprintf("Your one-time code is %s.", code),
		Code:    code,
	})

	return id, nil
}

// VerifyOneTimeCode describes the verifyonetimecode operation and its observable behavior.
func (b *Backend) VerifyOneTimeCode(ctx context.Context, challengeID, code string) (*authflow.SessionHandle, error) {
	b.mu.Lock()
	ch, ok := b.challenges[challengeID]
	b.mu.Unlock()
	if !ok {
		return nil, authflow.ErrChallengeInvalid
	}

	if b.now().After(ch.expiresAt) {
		b.mu.Lock()
		delete(b.challenges, challengeID)
		b.mu.Unlock()
		return nil, authflow.ErrChallengeExpired
	}

	if !totp.Validate(code, ch.secret) {
		return nil, authflow.ErrInvalidCode
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.challenges, challengeID)

	a, ok := b.accounts[ch.email]
	if !ok {
		return nil, authflow.ErrChallengeInvalid
	}
	return b.openSession(a), nil
}

// RequestVerificationEmail describes the requestverificationemail operation and its observable behavior.
func (b *Backend) RequestVerificationEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	b.mu.Lock()
	_, ok := b.accounts[email]
	b.mu.Unlock()
	if !ok {
		return authflow.ErrUnauthorized
	}

	tok, err := b.mintLinkToken(purposeVerification, email, "")
	if err != nil {
		return err
	}
	b.deliver(Mail{
		To:      email,
		Subject: "Verify your email",
		Body:    fmt.Sprintf("Open the app link to verify: authflow://verify?token=%s", tok),
		Token:   tok,
	})
	return nil
}

// ConfirmVerification describes the confirmverification operation and its observable behavior.
func (b *Backend) ConfirmVerification(ctx context.Context, tok string) error {
	claims, err := b.parseLinkToken(tok, purposeVerification)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[claims.Email]
	if !ok {
		return authflow.ErrTokenInvalid
	}
	a.verified = true
	return nil
}

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// Unknown addresses answer success without sending anything, so callers
// cannot probe which emails exist.
func (b *Backend) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	b.mu.Lock()
	_, ok := b.accounts[email]
	b.mu.Unlock()
	if !ok {
		return nil
	}

	tok, err := b.mintLinkToken(purposePasswordReset, email, "")
	if err != nil {
		return err
	}
	b.deliver(Mail{
		To:      email,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Open the app link to reset: authflow://reset?token=%s", tok),
		Token:   tok,
	})
	return nil
}

// ConfirmPasswordReset describes the confirmpasswordreset operation and its observable behavior.
func (b *Backend) ConfirmPasswordReset(ctx context.Context, tok, pw, pwConfirm string) error {
	claims, err := b.parseLinkToken(tok, purposePasswordReset)
	if err != nil {
		return err
	}
	if pw != pwConfirm {
		return &authflow.ValidationError{Field: "passwordConfirm", Message: "Passwords do not match."}
	}

	hash, err := b.hasher.Hash(pw)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[claims.Email]
	if !ok {
		return authflow.ErrTokenInvalid
	}
	a.passwordHash = hash

	// Existing sessions for the account are revoked.
	for sessTok, email := range b.sessions {
		if email == a.email {
			delete(b.sessions, sessTok)
		}
	}
	return nil
}

// RequestEmailChange describes the requestemailchange operation and its observable behavior.
func (b *Backend) RequestEmailChange(ctx context.Context, handle *authflow.SessionHandle, newEmail string) error {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))

	b.mu.Lock()
	email, ok := "", false
	if handle != nil {
		email, ok = b.sessions[handle.Token]
	}
	if !ok {
		b.mu.Unlock()
		return authflow.ErrUnauthorized
	}
	if _, taken := b.accounts[newEmail]; taken {
		b.mu.Unlock()
		return &authflow.ValidationError{Field: "newEmail", Message: "This email already exists."}
	}
	b.mu.Unlock()

	tok, err := b.mintLinkToken(purposeEmailChange, email, newEmail)
	if err != nil {
		return err
	}
	b.deliver(Mail{
		To:      newEmail,
		Subject: "Confirm your new email",
		Body:    fmt.Sprintf("Open the app link to confirm: authflow://email-change?token=%s", tok),
		Token:   tok,
	})
	return nil
}

// ConfirmEmailChange describes the confirmemailchange operation and its observable behavior.
func (b *Backend) ConfirmEmailChange(ctx context.Context, tok, currentPassword string) error {
	claims, err := b.parseLinkToken(tok, purposeEmailChange)
	if err != nil {
		return err
	}

	b.mu.Lock()
	a, ok := b.accounts[claims.Email]
	b.mu.Unlock()
	if !ok {
		return authflow.ErrTokenInvalid
	}

	match, err := b.hasher.Verify(currentPassword, a.passwordHash)
	if err != nil {
		return err
	}
	if !match {
		return authflow.ErrIncorrectPassword
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.accounts[claims.NewEmail]; taken {
		return &authflow.ValidationError{Field: "newEmail", Message: "This email already exists."}
	}

	delete(b.accounts, a.email)
	a.email = claims.NewEmail
	b.accounts[a.email] = a

	for sessTok, email := range b.sessions {
		if email == claims.Email {
			b.sessions[sessTok] = a.email
		}
	}
	return nil
}

// RefreshSession describes the refreshsession operation and its observable behavior.
func (b *Backend) RefreshSession(ctx context.Context, handle *authflow.SessionHandle) (*authflow.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handle == nil {
		return nil, authflow.ErrUnauthorized
	}
	email, ok := b.sessions[handle.Token]
	if !ok {
		return nil, authflow.ErrUnauthorized
	}
	a, ok := b.accounts[email]
	if !ok {
		return nil, authflow.ErrUnauthorized
	}

	record := b.sessionRecord(a)
	return &record, nil
}
