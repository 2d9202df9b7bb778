package authcore

import (
	"bytes"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = bytes.Repeat([]byte("k"), 32)
	return cfg
}

func TestDefaultConfigCarriesContractConstants(t *testing.T) {
	cfg := defaultConfig()

	if cfg.JWT.AccessTTL != time.Hour {
		t.Fatalf("access TTL = %v, want 1h", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("refresh TTL = %v, want 168h", cfg.JWT.RefreshTTL)
	}
	if cfg.Throttle.MaxLoginAttempts != 5 {
		t.Fatalf("max login attempts = %d, want 5", cfg.Throttle.MaxLoginAttempts)
	}
	if cfg.Throttle.LoginCooldownDuration != 15*time.Minute {
		t.Fatalf("login cooldown = %v, want 15m", cfg.Throttle.LoginCooldownDuration)
	}
	if cfg.PasswordReset.TokenTTL != 30*time.Minute {
		t.Fatalf("reset token TTL = %v, want 30m", cfg.PasswordReset.TokenTTL)
	}
	if cfg.PasswordReset.MaxRequests != 3 {
		t.Fatalf("reset max requests = %d, want 3", cfg.PasswordReset.MaxRequests)
	}
	if cfg.PasswordReset.RequestWindow != time.Hour {
		t.Fatalf("reset window = %v, want 1h", cfg.PasswordReset.RequestWindow)
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.Secret = []byte("short")

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestValidateRejectsBadDurations(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.JWT.AccessTTL = 0 },
		func(c *Config) { c.JWT.RefreshTTL = 0 },
		func(c *Config) { c.JWT.RefreshTTL = time.Minute },
		func(c *Config) { c.JWT.Leeway = 5 * time.Minute },
		func(c *Config) { c.Throttle.MaxLoginAttempts = 0 },
		func(c *Config) { c.Throttle.LoginCooldownDuration = 0 },
		func(c *Config) { c.PasswordReset.TokenTTL = 0 },
		func(c *Config) { c.PasswordReset.MaxRequests = 0 },
		func(c *Config) { c.PasswordReset.RequestWindow = 0 },
		func(c *Config) { c.StoreTimeout = 0 },
	}

	for i, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestValidateAcceptsDefaultsWithSecret(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestCloneConfigDetachesSecret(t *testing.T) {
	cfg := validConfig()
	clone := cloneConfig(cfg)

	clone.JWT.Secret[0] = 'x'
	if cfg.JWT.Secret[0] == 'x' {
		t.Fatal("clone must not share the secret backing array")
	}
}
