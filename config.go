package authcore

import (
	"errors"
	"time"
)

/*
====================================
CONFIG STRUCTS
====================================
*/

// JWTConfig defines a public type used by authcore APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	// Secret is the HMAC-SHA256 signing key. Must be at least 32 bytes.
	Secret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Issuer string
	Leeway time.Duration
}

// ThrottleConfig defines a public type used by authcore APIs.
//
// ThrottleConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ThrottleConfig struct {
	// MaxLoginAttempts is the number of consecutive failures after which
	// login is blocked for the remainder of the cooldown window.
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// PasswordResetConfig defines a public type used by authcore APIs.
//
// PasswordResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetConfig struct {
	// TokenTTL bounds how long an issued reset token may be redeemed.
	TokenTTL time.Duration

	// MaxRequests caps reset requests per email inside one fixed window.
	MaxRequests   int
	RequestWindow time.Duration

	// ResetURLBase is the frontend page the emailed link points at. The
	// token is appended as a query parameter.
	ResetURLBase string
}

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT           JWTConfig
	Throttle      ThrottleConfig
	PasswordReset PasswordResetConfig
	Metrics       MetricsConfig

	// StoreTimeout bounds every Redis round-trip made by the engine.
	StoreTimeout time.Duration
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the stock configuration. Callers still need to
// set JWT.Secret before the config validates.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Throttle: ThrottleConfig{
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL:      30 * time.Minute,
			MaxRequests:   3,
			RequestWindow: time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		StoreTimeout: 3 * time.Second,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2 minutes")
	}

	// Throttle
	if c.Throttle.MaxLoginAttempts <= 0 {
		return errors.New("Throttle MaxLoginAttempts must be > 0")
	}
	if c.Throttle.LoginCooldownDuration <= 0 {
		return errors.New("Throttle LoginCooldownDuration must be > 0")
	}

	// Password reset
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}
	if c.PasswordReset.MaxRequests <= 0 {
		return errors.New("PasswordReset MaxRequests must be > 0")
	}
	if c.PasswordReset.RequestWindow <= 0 {
		return errors.New("PasswordReset RequestWindow must be > 0")
	}

	if c.StoreTimeout <= 0 {
		return errors.New("StoreTimeout must be > 0")
	}

	return nil
}
