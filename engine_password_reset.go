package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
)

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// RequestPasswordReset issues a single-use reset token for the account and
// mails the reset link. An unknown email is reported as [ErrUserNotFound]
// rather than hidden behind a generic success; the API deliberately trades
// enumeration resistance for a precise client error here.
//
// RequestPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// RequestPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrUserNotFound
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !user.Local() {
		return nil, ErrSocialAccount
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if err := e.resets.RecordRequest(sctx, email); err != nil {
		return nil, err
	}

	token, err := e.resets.Issue(sctx, user.ID)
	if err != nil {
		return nil, err
	}

	if e.mailer != nil {
		if err := e.mailer.SendPasswordReset(ctx, user.Email, e.resetURL(token)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMailDeliveryFailed, err)
		}
	} else {
		log.Print("authcore: no mailer configured, reset link not delivered")
	}

	e.metricInc(MetricPasswordResetRequest)

	ttl := e.config.PasswordReset.TokenTTL
	return &ResetRequest{
		Email:     user.Email,
		ExpiresIn: int64(ttl.Seconds()),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// VerifyPasswordReset describes the verifypasswordreset operation and its observable behavior.
//
// VerifyPasswordReset redeems a reset token and installs the new password.
// The token is consumed atomically before any password work, so a token
// can never be redeemed twice, even by concurrent requests. A successful
// reset also revokes the user's refresh token.
//
// VerifyPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// VerifyPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyPasswordReset(ctx context.Context, token, newPassword string) (*ResetConfirmation, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrResetExpired
	}
	if newPassword == "" {
		return nil, ErrPasswordPolicy
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	userID, err := e.resets.Consume(sctx, token)
	if err != nil {
		if errors.Is(err, ErrResetExpired) {
			e.metricInc(MetricPasswordResetConfirmFailure)
		}
		return nil, err
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricPasswordResetConfirmFailure)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !user.Local() {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return nil, ErrSocialAccount
	}

	if same, err := e.hasher.Verify(newPassword, user.PasswordHash); err == nil && same {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return nil, ErrPasswordReuse
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	newPassword = ""

	if err := e.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Force a fresh login everywhere after a reset.
	if err := e.sessions.Delete(sctx, user.ID); err != nil {
		log.Print("authcore: refresh token revocation after reset failed")
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)

	return &ResetConfirmation{
		Email:     MaskEmail(user.Email),
		ChangedAt: time.Now(),
	}, nil
}

func (e *Engine) resetURL(token string) string {
	base := strings.TrimRight(e.config.PasswordReset.ResetURLBase, "/")
	return base + "?token=" + url.QueryEscape(token)
}

// MaskEmail redacts the local part of an address for display: the first
// two characters survive (one when the local part has at most two), the
// rest collapses to "**", and the domain stays intact.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return maskLocalPart(email)
	}
	return maskLocalPart(email[:at]) + email[at:]
}

func maskLocalPart(local string) string {
	if local == "" {
		return "**"
	}

	keep := 2
	if len(local) <= 2 {
		keep = 1
	}
	return local[:keep] + "**"
}
