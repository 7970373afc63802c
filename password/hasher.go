package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// Config defines a public type used by authflow APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher defines a public type used by authflow APIs.
//
// Hasher instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Hasher struct {
	config Config
}

// NewHasher describes the newhasher operation and its observable behavior.
//
// NewHasher may return an error when input validation fails. A zero-value
// Config selects DefaultConfig.
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if cfg.Memory < 8*1024 {
		return nil, errors.New("memory must be >= 8192 KB")
	}
	if cfg.Time < 1 {
		return nil, errors.New("time must be >= 1")
	}
	if cfg.Parallelism < 1 {
		return nil, errors.New("parallelism must be >= 1")
	}
	if cfg.SaltLength < 16 {
		return nil, errors.New("salt length must be >= 16")
	}
	if cfg.KeyLength < 16 {
		return nil, errors.New("key length must be >= 16")
	}
	return &Hasher{config: cfg}, nil
}

// Hash describes the hash operation and its observable behavior.
//
// Hash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify describes the verify operation and its observable behavior.
//
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return false, errors.New("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, errors.New("invalid hash version")
	}
	if version != argon2.Version {
		return false, errors.New("unsupported argon2 version")
	}

	var memory, timeCost uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &parallelism); err != nil {
		return false, errors.New("invalid hash parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errors.New("invalid salt encoding")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, errors.New("invalid key encoding")
	}
	if len(key) == 0 {
		return false, errors.New("empty key")
	}

	computed := argon2.IDKey([]byte(password), salt, timeCost, memory, parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}
