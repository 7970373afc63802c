package authflow

import (
	"errors"
	"os"
	"time"
)

// Config defines a public type used by authflow APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Backend      BackendConfig
	Password     PasswordPolicyConfig
	Verification VerificationConfig
	Challenge    ChallengeConfig
	Session      SessionConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig defines a public type used by authflow APIs.
//
// BackendConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BackendConfig struct {
	// BaseAddr is the base URL of the remote backend. Only consulted by the
	// remote HTTP client; ignored when a Backend is injected directly.
	BaseAddr string
	Timeout  time.Duration
}

/*
====================================
PASSWORD POLICY CONFIG
====================================
*/

// PasswordPolicyConfig defines a public type used by authflow APIs.
//
// PasswordPolicyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordPolicyConfig struct {
	MinLength int
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

// VerificationConfig defines a public type used by authflow APIs.
//
// VerificationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationConfig struct {
	// ResendWindow is the cooldown between verification mails for the same
	// account, enforced across restarts via the state store.
	ResendWindow time.Duration

	// AutoSendOnEntry sends a verification mail the first time the
	// verify-email screen is entered for an unverified session.
	AutoSendOnEntry bool
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig defines a public type used by authflow APIs.
//
// ChallengeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChallengeConfig struct {
	// CodeLength is the expected one-time-code length; submissions of any
	// other length are rejected locally without a backend call.
	CodeLength int
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by authflow APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// StateKey is the state-store key the adopted session snapshot is
	// persisted under.
	StateKey string

	// ResendStateKeyPrefix prefixes the per-account resend-throttle keys.
	ResendStateKeyPrefix string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authflow APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authflow APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig returns the configuration the builder starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			BaseAddr: os.Getenv("AUTHFLOW_BACKEND_ADDR"),
			Timeout:  10 * time.Second,
		},
		Password: PasswordPolicyConfig{
			MinLength: 8,
		},
		Verification: VerificationConfig{
			ResendWindow:    30 * time.Second,
			AutoSendOnEntry: true,
		},
		Challenge: ChallengeConfig{
			CodeLength: 6,
		},
		Session: SessionConfig{
			StateKey:             "session",
			ResendStateKeyPrefix: "resend",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation fails.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Backend.Timeout <= 0 {
		return errors.New("Backend Timeout must be > 0")
	}

	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	if c.Verification.ResendWindow <= 0 {
		return errors.New("Verification ResendWindow must be > 0")
	}

	if c.Challenge.CodeLength < 4 || c.Challenge.CodeLength > 10 {
		return errors.New("Challenge CodeLength must be between 4 and 10")
	}

	if c.Session.StateKey == "" {
		return errors.New("Session StateKey must not be empty")
	}
	if c.Session.ResendStateKeyPrefix == "" {
		return errors.New("Session ResendStateKeyPrefix must not be empty")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
