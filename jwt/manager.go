package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TypeAccess is an exported constant or variable used by the authentication engine.
	TypeAccess = "access"
	// TypeRefresh is an exported constant or variable used by the authentication engine.
	TypeRefresh = "refresh"

	minSecretBytes = 32
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Manager defines a public type used by authcore APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// Claims defines a public type used by authcore APIs.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim as a numeric account id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("invalid subject claim")
	}
	return id, nil
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL describes the accessttl operation and its observable behavior.
func (j *Manager) AccessTTL() time.Duration {
	return j.config.AccessTTL
}

// RefreshTTL describes the refreshttl operation and its observable behavior.
func (j *Manager) RefreshTTL() time.Duration {
	return j.config.RefreshTTL
}

// IssueAccess describes the issueaccess operation and its observable behavior.
//
// IssueAccess may return an error when input validation, dependency calls, or security checks fail.
// IssueAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (j *Manager) IssueAccess(userID int64, email, nickname string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:     email,
		Nickname:  nickname,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.config.Secret)
}

// IssueRefresh describes the issuerefresh operation and its observable behavior.
//
// IssueRefresh carries only the subject and a random jti; profile claims
// stay out of the long-lived token.
// IssueRefresh may return an error when input validation, dependency calls, or security checks fail.
func (j *Manager) IssueRefresh(userID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.config.Secret)
}

// Parse describes the parse operation and its observable behavior.
//
// Parse verifies the signature and registered claims but does not check
// the type claim; callers enforce access/refresh separation through
// [Manager.ParseAccess] and [Manager.ParseRefresh].
// Parse may return an error when input validation, dependency calls, or security checks fail.
func (j *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return j.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// ParseAccess describes the parseaccess operation and its observable behavior.
//
// ParseAccess may return an error when input validation, dependency calls, or security checks fail.
// ParseAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (j *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := j.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeAccess {
		return nil, errors.New("token is not an access token")
	}
	return claims, nil
}

// ParseRefresh describes the parserefresh operation and its observable behavior.
//
// ParseRefresh may return an error when input validation, dependency calls, or security checks fail.
// ParseRefresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (j *Manager) ParseRefresh(tokenStr string) (*Claims, error) {
	claims, err := j.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeRefresh {
		return nil, errors.New("token is not a refresh token")
	}
	if claims.ID == "" {
		return nil, errors.New("refresh token missing jti")
	}
	return claims, nil
}
