// Package identity implements admin authentication with JWT session
// cookies. A single admin credential is configured at startup; the
// password may be supplied as a bcrypt hash or, for local setups, as
// plaintext.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when the username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a session token fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// Config holds the admin credential and token parameters.
type Config struct {
	Username      string
	Password      string // bcrypt hash ($2a$/$2b$/$2y$ prefix) or plaintext
	JWTSecret     string
	TokenDuration time.Duration
}

// Service issues and validates admin session tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService creates a new identity service.
func NewService(cfg Config) *Service {
	if cfg.TokenDuration <= 0 {
		cfg.TokenDuration = 24 * time.Hour
	}
	return &Service{cfg: cfg, now: time.Now}
}

// TokenDuration returns the configured session lifetime.
func (s *Service) TokenDuration() time.Duration {
	return s.cfg.TokenDuration
}

// Login verifies the credential pair and returns a signed session token.
func (s *Service) Login(_ context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	if !userOK || !s.passwordMatches(password) {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(username)
}

// ValidateToken checks a session token and returns the subject.
func (s *Service) ValidateToken(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *Service) passwordMatches(password string) bool {
	stored := s.cfg.Password
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func (s *Service) issueToken(subject string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
