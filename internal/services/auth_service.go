// Package services – AuthService
//
// Signup, login, and session verification. Passwords are stored as bcrypt
// hashes; the authentication session is a signed JWT (HS256) carried in an
// HTTP-only cookie and verified by the access gate on every non-public
// request. The chat session identifier is unrelated to this session.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
	"github.com/tbourn/go-gatedchat-backend/internal/repo"
)

// minPasswordLen is the signup password floor.
const minPasswordLen = 8

// AuthService owns user profiles and auth session tokens.
type AuthService struct {
	DB     *gorm.DB
	Secret []byte

	// TTL bounds session token lifetime; <= 0 defaults to 24h.
	TTL time.Duration
}

// Signup creates a profile with a bcrypt-hashed credential. Email matching
// is case-insensitive (stored lowercased).
func (s *AuthService) Signup(ctx context.Context, email, password, fullName string) (*domain.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	if _, err := repo.GetUserByEmail(ctx, s.DB, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return repo.CreateUserProfile(ctx, s.DB, email, strings.TrimSpace(fullName), string(hash))
}

// Login verifies credentials, stamps last_login, and issues a session
// token. Unknown users, inactive accounts, and wrong passwords all return
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := repo.GetUserByEmail(ctx, s.DB, email)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := repo.MarkUserLogin(ctx, s.DB, user.ID); err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifySession validates a session token and returns the user id it was
// issued for. Any parse, signature, or expiry failure is an error; the gate
// treats all of them as "no valid session".
func (s *AuthService) VerifySession(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.Secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("session token missing subject")
	}
	return claims.Subject, nil
}

// SessionTTL returns the effective token lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *AuthService) issueToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.SessionTTL())),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}
