package authcore

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/SideProjectSFY/cloneNova/jwt"
)

// TokenTypeBearer is an exported constant or variable used by the authentication engine.
const TokenTypeBearer = "Bearer"

// Engine defines a public type used by authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config     Config
	sessions   *sessionStore
	throttle   *attemptThrottle
	resets     *resetStore
	metrics    *Metrics
	hasher     PasswordHasher
	mailer     EmailSender
	jwtManager *jwt.Manager
	users      UserStore
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// storeCtx bounds a Redis round-trip so a hung store cannot stall a login
// indefinitely.
func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.StoreTimeout)
}

func (e *Engine) ready() error {
	if e == nil || e.users == nil || e.hasher == nil || e.jwtManager == nil ||
		e.sessions == nil || e.throttle == nil || e.resets == nil {
		return ErrEngineNotReady
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login describes the login operation and its observable behavior.
//
// Login authenticates an email+password pair. A blocked email is rejected
// before any credential work happens, so throttled attempts reveal nothing
// about the password. A soft-deleted account is rejected before the
// password check and never counts against the failure budget. Failed
// lookups and password mismatches both count; a success clears the budget.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	blocked, err := e.throttle.Blocked(sctx, email)
	if err != nil {
		return nil, err
	}
	if blocked {
		e.metricInc(MetricLoginRateLimited)
		if ip := clientIPFromContext(ctx); ip != "" {
			log.Printf("authcore: rate limited login from %s", ip)
		}
		return nil, ErrLoginRateLimited
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			if recErr := e.throttle.RecordFailure(sctx, email); recErr != nil {
				return nil, recErr
			}
			e.metricInc(MetricLoginFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !user.Active() {
		e.metricInc(MetricLoginFailure)
		return nil, ErrAccountDisabled
	}

	// Social accounts carry no usable local hash, so they fall out of the
	// password check like any other mismatch; a separate rejection would
	// confirm the account exists.
	ok, err := e.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		if recErr := e.throttle.RecordFailure(sctx, email); recErr != nil {
			return nil, recErr
		}
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}
	password = ""

	accessToken, err := e.jwtManager.IssueAccess(user.ID, user.Email, user.Nickname)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}
	refreshToken, err := e.jwtManager.IssueRefresh(user.ID)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	// Last login wins: the stored token replaces any earlier session's.
	if err := e.sessions.Put(sctx, user.ID, refreshToken); err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	// Clearing the failure counter is cleanup and must not fail the login.
	if err := e.throttle.Clear(sctx, email); err != nil {
		log.Print("authcore: login attempt counter clear failed")
	}

	e.metricInc(MetricLoginSuccess)

	return &LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        TokenTypeBearer,
		ExpiresIn:        int64(e.config.JWT.AccessTTL.Seconds()),
		RefreshExpiresIn: int64(e.config.JWT.RefreshTTL.Seconds()),
		User: UserSummary{
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Nickname:  user.Nickname,
			Provider:  user.Provider,
			AvatarURL: user.AvatarURL,
		},
	}, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout deletes the user's stored refresh token. The presented refresh
// token must be valid and belong to the same account as the caller;
// otherwise [ErrUnauthorized] is returned and nothing is revoked. Access
// tokens already in the wild stay valid until they expire. Logging out
// twice is not an error.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if err := e.ready(); err != nil {
		return err
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return ErrUnauthorized
	}
	tokenUserID, err := claims.UserID()
	if err != nil || tokenUserID != userID {
		return ErrUnauthorized
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if err := e.sessions.Delete(sctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	return nil
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh exchanges a valid refresh token for a new access token. The
// presented token must match the stored one byte for byte; absence and
// mismatch are indistinguishable to the caller. The refresh token itself
// is not rotated and stays valid until its original expiry.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	stored, found, err := e.sessions.Get(sctx, userID)
	if err != nil {
		return nil, err
	}
	if !found || subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricRefreshFailure)
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !user.Active() {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrAccountDisabled
	}

	accessToken, err := e.jwtManager.IssueAccess(user.ID, user.Email, user.Nickname)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)

	return &RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(e.config.JWT.AccessTTL.Seconds()),
	}, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate verifies an access token and confirms the account behind it
// still exists and is active. A token for a soft-deleted account stops
// authenticating the moment the account is deleted, not when the token
// expires. Refresh tokens are rejected here even though they are signed
// with the same key.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*Principal, error) {
	if e == nil || e.jwtManager == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !user.Active() {
		return nil, ErrAccountDisabled
	}

	return &Principal{
		UserID:   userID,
		Email:    claims.Email,
		Nickname: claims.Nickname,
	}, nil
}

// LoginRetryAfterSeconds reports the cooldown a rate limited caller must
// observe. The value is the full fixed window, not the remaining TTL.
func (e *Engine) LoginRetryAfterSeconds() int64 {
	if e == nil {
		return int64(defaultConfig().Throttle.LoginCooldownDuration.Seconds())
	}
	return int64(e.config.Throttle.LoginCooldownDuration.Seconds())
}
