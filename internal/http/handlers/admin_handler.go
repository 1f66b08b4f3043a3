// Admin HTTP handlers.
//
// This file exposes the admin query surface:
//   - POST   /api/admin/login
//   - GET    /api/admin/ip-whitelist
//   - POST   /api/admin/ip-whitelist
//   - PATCH  /api/admin/ip-whitelist
//   - DELETE /api/admin/ip-whitelist?id=
//   - GET    /api/admin/access-logs?limit=
//   - GET    /api/admin/sessions
//   - GET    /api/admin/history?sessionId=
//   - GET    /api/admin/stats
//
// Every handler except login independently re-verifies the admin_key
// cookie. The gate also checks it for /admin pages, but the API endpoints
// do not trust the gate alone: some deployment paths may sit behind a
// different edge. Defense in depth, not redundancy.
package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
	"github.com/tbourn/go-gatedchat-backend/internal/http/middleware"
	"github.com/tbourn/go-gatedchat-backend/internal/repo"
	"github.com/tbourn/go-gatedchat-backend/internal/services"
	"github.com/tbourn/go-gatedchat-backend/internal/utils"
)

// adminCookieTTLSeconds is the admin_key cookie lifetime (24h).
const adminCookieTTLSeconds = 24 * 60 * 60

// defaultLogLimit bounds the access-log listing when no limit is given.
const defaultLogLimit = 100

// WhitelistManager defines the allowlist operations consumed by the admin
// handlers.
type WhitelistManager interface {
	List(ctx context.Context) ([]domain.WhitelistEntry, error)
	Add(ctx context.Context, ipAddress, description, addedBy string) (*domain.WhitelistEntry, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.WhitelistEntry, error)
	Remove(ctx context.Context, id string) error
}

// StatsProvider defines the dashboard aggregation consumed by the admin
// handlers.
type StatsProvider interface {
	Dashboard(ctx context.Context) (*services.DashboardStats, error)
}

// AdminHandlers groups the admin query surface endpoints.
type AdminHandlers struct {
	db        *gorm.DB
	whitelist WhitelistManager
	stats     StatsProvider

	secret     string
	production bool
}

// NewAdmin constructs AdminHandlers. secret is the shared admin secret;
// production controls the Secure flag on the admin_key cookie.
func NewAdmin(db *gorm.DB, whitelist WhitelistManager, stats StatsProvider, secret string, production bool) *AdminHandlers {
	return &AdminHandlers{
		db:         db,
		whitelist:  whitelist,
		stats:      stats,
		secret:     secret,
		production: production,
	}
}

// requireAdmin verifies the admin_key cookie against the configured secret.
// On failure it writes 401 and returns false.
func (h *AdminHandlers) requireAdmin(c *gin.Context) bool {
	key, err := c.Cookie(middleware.AdminKeyCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(key), []byte(h.secret)) != 1 {
		apiError(c, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}

//
// Auth
//

// AdminLoginRequest is the JSON payload for the admin login endpoint.
type AdminLoginRequest struct {
	SecretKey string `json:"secretKey"`
}

// Login godoc
// @ID          adminLogin
// @Summary     Authenticate as administrator
// @Description Verifies the shared secret and sets the admin_key cookie (24h, SameSite strict).
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.AdminLoginRequest  true  "Admin secret"
// @Success     200  {object}  map[string]bool
// @Failure     401  {object}  map[string]string
// @Router      /api/admin/login [post]
func (h *AdminHandlers) Login(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SecretKey == "" {
		apiError(c, http.StatusBadRequest, "Secret key is required")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.SecretKey), []byte(h.secret)) != 1 {
		apiError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AdminKeyCookie, h.secret, adminCookieTTLSeconds, "/", "", h.production, true)
	ok(c, http.StatusOK, gin.H{"success": true})
}

//
// Whitelist CRUD
//

// WhitelistCreateRequest is the JSON payload for adding an allowlist entry.
type WhitelistCreateRequest struct {
	IPAddress   string `json:"ip_address"`
	Description string `json:"description"`
}

// WhitelistPatchRequest toggles an entry's active flag.
type WhitelistPatchRequest struct {
	ID       string `json:"id"`
	IsActive *bool  `json:"is_active"`
}

// ListWhitelist returns all allowlist entries, newest first.
func (h *AdminHandlers) ListWhitelist(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	entries, err := h.whitelist.List(c.Request.Context())
	if err != nil {
		apiError(c, http.StatusInternalServerError, "Failed to load whitelist")
		return
	}
	ok(c, http.StatusOK, gin.H{"entries": entries})
}

// CreateWhitelist adds a new allowlist entry. Duplicate literals (in any
// active state) and malformed literals are rejected with 400.
func (h *AdminHandlers) CreateWhitelist(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	var req WhitelistCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.IPAddress) == "" {
		apiError(c, http.StatusBadRequest, "IP address is required")
		return
	}

	entry, err := h.whitelist.Add(c.Request.Context(), req.IPAddress, req.Description, "admin")
	switch {
	case err == nil:
		ok(c, http.StatusCreated, entry)
	case errors.Is(err, services.ErrInvalidIP):
		apiError(c, http.StatusBadRequest, "Invalid IP address")
	case errors.Is(err, services.ErrDuplicateIP):
		apiError(c, http.StatusBadRequest, "IP address already whitelisted")
	default:
		apiError(c, http.StatusInternalServerError, "Failed to create whitelist entry")
	}
}

// PatchWhitelist flips an entry's active flag. Deactivation takes effect on
// the next gated request from that IP.
func (h *AdminHandlers) PatchWhitelist(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	var req WhitelistPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" || req.IsActive == nil {
		apiError(c, http.StatusBadRequest, "id and is_active are required")
		return
	}

	entry, err := h.whitelist.SetActive(c.Request.Context(), req.ID, *req.IsActive)
	switch {
	case err == nil:
		ok(c, http.StatusOK, entry)
	case errors.Is(err, services.ErrEntryNotFound):
		apiError(c, http.StatusNotFound, "Whitelist entry not found")
	default:
		apiError(c, http.StatusInternalServerError, "Failed to update whitelist entry")
	}
}

// DeleteWhitelist hard-removes an entry by the id query parameter.
func (h *AdminHandlers) DeleteWhitelist(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		apiError(c, http.StatusBadRequest, "id is required")
		return
	}

	err := h.whitelist.Remove(c.Request.Context(), id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, gin.H{"success": true})
	case errors.Is(err, services.ErrEntryNotFound):
		apiError(c, http.StatusNotFound, "Whitelist entry not found")
	default:
		apiError(c, http.StatusInternalServerError, "Failed to delete whitelist entry")
	}
}

//
// Read-only surface
//

// SessionView is a chat session enriched with the owning user's email when
// the session is tied to an authenticated user.
type SessionView struct {
	domain.ChatSession
	UserEmail string `json:"userEmail,omitempty"`
}

// ListAccessLogs returns recent audit rows, newest first. The limit query
// parameter defaults to 100 and is clamped server-side.
func (h *AdminHandlers) ListAccessLogs(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), defaultLogLimit)
	logs, err := repo.ListAccessLogs(c.Request.Context(), h.db, limit)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "Failed to load access logs")
		return
	}
	ok(c, http.StatusOK, gin.H{"logs": logs})
}

// ListSessions returns all chat sessions, most recently seen first, with
// user emails joined in for sessions tied to an account.
func (h *AdminHandlers) ListSessions(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	ctx := c.Request.Context()
	sessions, err := repo.ListChatSessions(ctx, h.db)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "Failed to load sessions")
		return
	}

	var userIDs []string
	for _, s := range sessions {
		if s.UserID != nil && *s.UserID != "" {
			userIDs = append(userIDs, *s.UserID)
		}
	}
	emails, err := repo.UserEmailsByID(ctx, h.db, userIDs)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "Failed to load sessions")
		return
	}

	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		v := SessionView{ChatSession: s}
		if s.UserID != nil {
			v.UserEmail = emails[*s.UserID]
		}
		views = append(views, v)
	}
	ok(c, http.StatusOK, gin.H{"sessions": views})
}

// SessionHistory returns one session's messages in chronological order.
func (h *AdminHandlers) SessionHistory(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	sessionID := strings.TrimSpace(c.Query("sessionId"))
	if sessionID == "" {
		apiError(c, http.StatusBadRequest, "sessionId is required")
		return
	}
	msgs, err := repo.ListSessionHistory(c.Request.Context(), h.db, sessionID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "Failed to load history")
		return
	}
	ok(c, http.StatusOK, gin.H{"messages": msgs})
}

// Stats returns the dashboard aggregation.
func (h *AdminHandlers) Stats(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	stats, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		apiError(c, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	ok(c, http.StatusOK, stats)
}
