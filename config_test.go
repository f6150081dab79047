package goUserbot

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValidOnceCredentialed(t *testing.T) {
	cfg := defaultConfig()
	if err := validateConfig(cfg); err == nil {
		t.Fatal("defaults without API credentials must not validate")
	}
	cfg.API.ID = 1
	cfg.API.Hash = "h"
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("credentialed defaults should validate, got %v", err)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	base := testConfig()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero api id", func(c *Config) { c.API.ID = 0 }},
		{"empty api hash", func(c *Config) { c.API.Hash = "" }},
		{"zero 2fa attempts", func(c *Config) { c.Auth.TwoFactorMaxAttempts = 0 }},
		{"zero page size", func(c *Config) { c.Registry.PageSize = 0 }},
		{"negative pacing", func(c *Config) { c.Rate.JoinsPerMinute = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := validateConfig(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("USERBOT_API_ID", "94017")
	t.Setenv("USERBOT_API_HASH", "env-hash")
	t.Setenv("USERBOT_2FA_MAX_ATTEMPTS", "5")
	t.Setenv("USERBOT_CALL_TIMEOUT", "10s")
	t.Setenv("USERBOT_RATE_NONBLOCKING", "true")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.API.ID != 94017 || cfg.API.Hash != "env-hash" {
		t.Fatalf("credentials not mapped: %+v", cfg.API)
	}
	if cfg.Auth.TwoFactorMaxAttempts != 5 {
		t.Fatalf("2FA attempts = %d, want 5", cfg.Auth.TwoFactorMaxAttempts)
	}
	if cfg.Transport.CallTimeout != 10*time.Second {
		t.Fatalf("call timeout = %v, want 10s", cfg.Transport.CallTimeout)
	}
	if !cfg.Rate.NonBlocking {
		t.Fatal("non-blocking flag not mapped")
	}
	// Untouched knobs keep their defaults.
	if cfg.Registry.StaleAfter != 15*time.Minute || cfg.Session.RedisPrefix != "ub" {
		t.Fatalf("defaults lost in env overlay: %+v", cfg)
	}
}

func TestConfigFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("USERBOT_API_ID", "")
	t.Setenv("USERBOT_API_HASH", "")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected an error without API credentials")
	}
}
