package authcore

import (
	"errors"

	"github.com/SideProjectSFY/cloneNova/jwt"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	users  UserStore
	hasher PasswordHasher
	mailer EmailSender

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the HMAC signing key without replacing the rest of the
// active configuration.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.JWT.Secret = cloneBytes(secret)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore describes the withuserstore operation and its observable behavior.
//
// WithUserStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithPasswordHasher describes the withpasswordhasher operation and its observable behavior.
//
// WithPasswordHasher does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithPasswordHasher(hasher PasswordHasher) *Builder {
	b.hasher = hasher
	return b
}

// WithEmailSender describes the withemailsender operation and its observable behavior.
//
// WithEmailSender does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithEmailSender(sender EmailSender) *Builder {
	b.mailer = sender
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.hasher == nil {
		return nil, errors.New("password hasher required")
	}

	jm, err := jwt.NewManager(jwt.Config{
		Secret:     cloneBytes(cfg.JWT.Secret),
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		sessions:   newSessionStore(b.redis, cfg.JWT.RefreshTTL),
		throttle:   newAttemptThrottle(b.redis, cfg.Throttle),
		resets:     newResetStore(b.redis, cfg.PasswordReset),
		metrics:    NewMetrics(cfg.Metrics),
		hasher:     b.hasher,
		mailer:     b.mailer,
		jwtManager: jm,
		users:      b.users,
	}

	b.built = true

	return engine, nil
}
