// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements AccessGate, the per-request authorization pipeline
// that fronts every non-public route. The gate evaluates, in strict order:
//
//  1. Public-path bypass: explicitly public prefixes pass untouched.
//  2. IP resolution: the client IP is extracted from proxy headers
//     (clientinfo.ExtractClientIP) and stored in the Gin context.
//  3. Local-development bypass: in non-production mode, loopback and
//     private-range IPs pass silently with no audit row. This is an
//     operator convenience for local work.
//  4. Allowlist check: the store is queried for an active entry matching
//     the resolved IP exactly. No caching, so a deactivation takes effect
//     on the very next request.
//  5. Audit log: one AccessLog row per gated request, grant and denial
//     alike, written before any redirect is issued.
//  6. Block branch: non-allowlisted IPs get a short-lived blocked_ip
//     cookie and a redirect to the denial page. No session check occurs.
//  7. Session check: allowlisted requests must carry a valid session
//     cookie; otherwise they are redirected to the login page.
//  8. Admin sub-gate: paths under the admin prefix additionally require
//     the admin_key cookie to equal the configured secret. This is an
//     independent credential from the session.
//
// The IP check deliberately runs before the session check so that probing
// from non-allowlisted networks never reaches the authentication
// subsystem.
//
// Failure semantics are fail-closed: if the allowlist lookup or the audit
// write fails, the request is denied. Every decision must be
// reconstructable from the audit log, so a request whose decision cannot
// be recorded does not pass.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gatedchat-backend/internal/clientinfo"
	"github.com/tbourn/go-gatedchat-backend/internal/domain"
)

// Cookie names shared between the gate and the handlers that set them.
const (
	// SessionCookie carries the signed authentication session token.
	SessionCookie = "session"
	// AdminKeyCookie carries the static admin secret for admin paths.
	AdminKeyCookie = "admin_key"
	// BlockedIPCookie is set on denial so the denial page can display the
	// blocked address.
	BlockedIPCookie = "blocked_ip"
)

// clientIPKey is the Gin context key holding the gate-resolved client IP.
const clientIPKey = "clientIP"

// userIDKey is the Gin context key holding the authenticated user id.
const userIDKey = "userID"

// GateStore is the persistence surface the gate needs: an allowlist
// membership check and an append-only audit sink.
type GateStore interface {
	IsIPWhitelisted(ctx context.Context, ip string) (bool, error)
	AppendAccessLog(ctx context.Context, rec *domain.AccessLog) error
}

// SessionVerifier validates a session cookie value and returns the user id
// it was issued for.
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

// GateOptions configures AccessGate.
type GateOptions struct {
	Store    GateStore
	Sessions SessionVerifier

	// AdminSecret is the shared static secret required (via AdminKeyCookie)
	// for paths under AdminPrefix.
	AdminSecret string

	// Production disables the local-IP development bypass and marks the
	// blocked_ip cookie Secure.
	Production bool

	// PublicPrefixes lists path prefixes that bypass the gate entirely.
	// The denial, login, and admin-login destinations are always public.
	PublicPrefixes []string

	AdminPrefix    string // defaults to "/admin"
	DeniedPath     string // defaults to "/access-denied"
	LoginPath      string // defaults to "/login"
	AdminLoginPath string // defaults to "/admin/login"

	// BlockedCookieTTL bounds the blocked_ip cookie; defaults to 1h.
	BlockedCookieTTL time.Duration
}

func (o *GateOptions) setDefaults() {
	if o.AdminPrefix == "" {
		o.AdminPrefix = "/admin"
	}
	if o.DeniedPath == "" {
		o.DeniedPath = "/access-denied"
	}
	if o.LoginPath == "" {
		o.LoginPath = "/login"
	}
	if o.AdminLoginPath == "" {
		o.AdminLoginPath = "/admin/login"
	}
	if o.BlockedCookieTTL <= 0 {
		o.BlockedCookieTTL = time.Hour
	}
}

// AccessGate returns the authorization middleware described in the package
// comment. Install it after logging and recovery so every decision is
// observable, and before any gated route group.
func AccessGate(opt GateOptions) gin.HandlerFunc {
	opt.setDefaults()

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if opt.isPublic(path) {
			c.Next()
			return
		}

		ip := clientinfo.ExtractClientIP(c.Request.Header)
		c.Set(clientIPKey, ip)

		// Silent local bypass for development. No audit row on purpose.
		if !opt.Production && clientinfo.IsLocalIP(ip) {
			RecordGateDecision(GateOutcomeBypass)
			c.Next()
			return
		}

		lg := LoggerFrom(c)

		allowed, err := opt.Store.IsIPWhitelisted(c.Request.Context(), ip)
		if err != nil {
			lg.Error().Err(err).Str("client_ip", ip).Msg("allowlist lookup failed")
			opt.deny(c, ip)
			return
		}

		ua := c.Request.UserAgent()
		dev := clientinfo.ParseUserAgent(ua)
		rec := &domain.AccessLog{
			IPAddress:      ip,
			AccessGranted:  allowed,
			UserAgent:      ua,
			BrowserName:    optionalStr(dev.BrowserName),
			BrowserVersion: optionalStr(dev.BrowserVersion),
			OSName:         optionalStr(dev.OSName),
			DeviceType:     optionalStr(dev.DeviceType),
			Path:           path,
		}
		if err := opt.Store.AppendAccessLog(c.Request.Context(), rec); err != nil {
			// Fail closed: an unrecordable decision does not pass.
			lg.Error().Err(err).Str("client_ip", ip).Msg("access log write failed")
			opt.deny(c, ip)
			return
		}

		if !allowed {
			lg.Warn().Str("client_ip", ip).Str("path", path).Msg("ip not allowlisted")
			opt.deny(c, ip)
			return
		}
		RecordGateDecision(GateOutcomeGranted)

		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusTemporaryRedirect, opt.LoginPath)
			c.Abort()
			return
		}
		userID, err := opt.Sessions.VerifySession(token)
		if err != nil {
			lg.Warn().Err(err).Msg("invalid session token")
			c.Redirect(http.StatusTemporaryRedirect, opt.LoginPath)
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)

		if strings.HasPrefix(path, opt.AdminPrefix) {
			key, err := c.Cookie(AdminKeyCookie)
			if err != nil || subtle.ConstantTimeCompare([]byte(key), []byte(opt.AdminSecret)) != 1 {
				c.Redirect(http.StatusTemporaryRedirect, opt.AdminLoginPath)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// isPublic reports whether path bypasses the gate. The three redirect
// destinations are always public so denied clients never loop.
func (o *GateOptions) isPublic(path string) bool {
	if path == o.DeniedPath || path == o.LoginPath || path == o.AdminLoginPath {
		return true
	}
	for _, p := range o.PublicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// deny records the blocked IP in a short-lived cookie and redirects to the
// denial page. The audit row, when one was due, is already written.
func (o *GateOptions) deny(c *gin.Context, ip string) {
	RecordGateDecision(GateOutcomeDenied)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(BlockedIPCookie, ip, int(o.BlockedCookieTTL.Seconds()), "/", "", o.Production, true)
	c.Redirect(http.StatusTemporaryRedirect, o.DeniedPath)
	c.Abort()
}

// ClientIPFrom returns the gate-resolved client IP for the request, falling
// back to fresh header extraction when the gate did not run (public paths).
func ClientIPFrom(c *gin.Context) string {
	if v, ok := c.Get(clientIPKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return clientinfo.ExtractClientIP(c.Request.Header)
}

// UserIDFrom returns the authenticated user id set by the gate, or "".
func UserIDFrom(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	s, _ := v.(string)
	return s
}

// optionalStr maps "" to nil so unparsed device fields stay NULL.
func optionalStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
