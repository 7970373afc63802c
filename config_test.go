package authflow

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Verification.ResendWindow != 30*time.Second {
		t.Fatalf("unexpected resend window: %v", cfg.Verification.ResendWindow)
	}
	if cfg.Challenge.CodeLength != 6 {
		t.Fatalf("unexpected code length: %d", cfg.Challenge.CodeLength)
	}
	if !cfg.Verification.AutoSendOnEntry {
		t.Fatal("expected auto-send on entry by default")
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero backend timeout", func(c *Config) { c.Backend.Timeout = 0 }},
		{"zero min length", func(c *Config) { c.Password.MinLength = 0 }},
		{"zero resend window", func(c *Config) { c.Verification.ResendWindow = 0 }},
		{"code too short", func(c *Config) { c.Challenge.CodeLength = 3 }},
		{"code too long", func(c *Config) { c.Challenge.CodeLength = 11 }},
		{"empty state key", func(c *Config) { c.Session.StateKey = "" }},
		{"empty resend prefix", func(c *Config) { c.Session.ResendStateKeyPrefix = "" }},
		{"audit enabled without buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
