package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Register describes the register operation and its observable behavior.
//
// Register creates a local account after checking that both the email and
// the nickname are free. The duplicate checks are advisory; the user store
// is expected to hold unique constraints and may still reject the insert
// under a concurrent signup.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*UserSummary, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	nickname := strings.TrimSpace(input.Nickname)
	if email == "" || nickname == "" {
		return nil, ErrInvalidCredentials
	}
	if input.Password == "" {
		return nil, ErrPasswordPolicy
	}

	taken, err := e.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if taken {
		e.metricInc(MetricRegisterDuplicate)
		return nil, ErrEmailTaken
	}

	taken, err = e.users.NicknameExists(ctx, nickname)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if taken {
		e.metricInc(MetricRegisterDuplicate)
		return nil, ErrNicknameTaken
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	input.Password = ""

	user, err := e.users.Create(ctx, CreateUserInput{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Nickname:     nickname,
		PasswordHash: hash,
		Provider:     ProviderLocal,
	})
	if err != nil {
		// A concurrent signup can slip past the advisory checks and hit
		// the unique constraints instead.
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrNicknameTaken) {
			e.metricInc(MetricRegisterDuplicate)
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricRegisterSuccess)

	return &UserSummary{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Nickname:  user.Nickname,
		Provider:  user.Provider,
		AvatarURL: user.AvatarURL,
	}, nil
}

// CheckEmailAvailable reports whether the email is free to register.
func (e *Engine) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	email = normalizeEmail(email)
	if email == "" {
		return false, ErrInvalidCredentials
	}

	taken, err := e.users.EmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return !taken, nil
}

// CheckNicknameAvailable reports whether the nickname is free to register.
func (e *Engine) CheckNicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return false, ErrInvalidCredentials
	}

	taken, err := e.users.NicknameExists(ctx, nickname)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return !taken, nil
}
