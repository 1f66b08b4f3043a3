// Auth HTTP handlers.
//
// This file exposes the authentication subsystem:
//   - POST /api/auth/signup
//   - POST /api/auth/login
//   - POST /api/auth/logout
//
// Login sets the session cookie the gate verifies; logout clears it. These
// paths are public to the gate so unauthenticated users can reach them, but
// only after the IP allowlist check would have passed for any gated page
// they were redirected from.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gatedchat-backend/internal/http/middleware"
	"github.com/tbourn/go-gatedchat-backend/internal/services"
)

// AuthHandlers groups the authentication endpoints.
type AuthHandlers struct {
	auth       *services.AuthService
	production bool
}

// NewAuth constructs AuthHandlers. production controls the Secure flag on
// the session cookie.
func NewAuth(auth *services.AuthService, production bool) *AuthHandlers {
	return &AuthHandlers{auth: auth, production: production}
}

// SignupRequest is the JSON payload for account creation.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// LoginRequest is the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account. The new user still has to log in; no session
// is issued here.
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.FullName)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, gin.H{"user": user})
	case errors.Is(err, services.ErrInvalidEmail):
		apiError(c, http.StatusBadRequest, "A valid email is required")
	case errors.Is(err, services.ErrWeakPassword):
		apiError(c, http.StatusBadRequest, "Password must be at least 8 characters")
	case errors.Is(err, services.ErrEmailTaken):
		apiError(c, http.StatusConflict, "Email already registered")
	default:
		apiError(c, http.StatusInternalServerError, "Failed to create account")
	}
}

// Login verifies credentials and sets the session cookie the gate checks.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		apiError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			apiError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		apiError(c, http.StatusInternalServerError, "Failed to log in")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.auth.SessionTTL().Seconds()), "/", "", h.production, true)
	ok(c, http.StatusOK, gin.H{"user": user})
}

// Logout clears the session cookie. Always succeeds.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.production, true)
	ok(c, http.StatusOK, gin.H{"success": true})
}
