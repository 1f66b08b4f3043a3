package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		DB:     newServicesDB(t),
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
	}
}

func TestAuthService_SignupValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "", "longenough", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("empty email: want ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Signup(ctx, "nobody", "longenough", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("malformed email: want ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Signup(ctx, "a@example.com", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("short password: want ErrWeakPassword, got %v", err)
	}
}

func TestAuthService_SignupLoginVerify(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "Alice@Example.com", "correct horse", "Alice")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not lowercased: %q", user.Email)
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password stored in plain text")
	}

	// Duplicate signup, case-insensitive.
	if _, err := svc.Signup(ctx, "ALICE@example.com", "correct horse", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate: want ErrEmailTaken, got %v", err)
	}

	token, logged, err := svc.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("empty session token")
	}
	if logged.LastLogin == nil {
		t.Fatal("last_login not stamped")
	}

	uid, err := svc.VerifySession(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != user.ID {
		t.Fatalf("verified subject = %q, want %q", uid, user.ID)
	}
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "bob@example.com", "correct horse", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, _, err := svc.Login(ctx, "bob@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: want ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_VerifySessionRejectsTampering(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "carol@example.com", "correct horse", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	token, _, err := svc.Login(ctx, "carol@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Different signing key.
	other := &AuthService{Secret: []byte("another-secret")}
	if _, err := other.VerifySession(token); err == nil {
		t.Fatal("token verified under a different secret")
	}

	if _, err := svc.VerifySession("not-a-token"); err == nil {
		t.Fatal("garbage token verified")
	}

	// Expired token, signed with the right key.
	claims := jwt.RegisteredClaims{
		Subject:   "user-x",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.Secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.VerifySession(tok); err == nil {
		t.Fatal("expired token verified")
	}
}
