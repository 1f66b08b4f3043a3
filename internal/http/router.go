// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns
// such as tracing, correlation IDs, logging/redaction, panic recovery,
// metrics, rate limiting, and the access gate that fronts every non-public
// route.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The gate runs last in the chain, so every decision it makes is
//     already traced, logged, and counted
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-gatedchat-backend/internal/config"
	"github.com/tbourn/go-gatedchat-backend/internal/domain"
	"github.com/tbourn/go-gatedchat-backend/internal/http/handlers"
	"github.com/tbourn/go-gatedchat-backend/internal/http/middleware"
	"github.com/tbourn/go-gatedchat-backend/internal/repo"
	"github.com/tbourn/go-gatedchat-backend/internal/services"
	"github.com/tbourn/go-gatedchat-backend/internal/webhook"
)

// gateStoreShim adapts the repository free functions to the
// middleware.GateStore interface. This keeps the gate decoupled from the
// concrete repo package while reusing existing functions.
type gateStoreShim struct {
	db *gorm.DB
}

// IsIPWhitelisted proxies repo.IsIPWhitelisted.
func (s gateStoreShim) IsIPWhitelisted(ctx context.Context, ip string) (bool, error) {
	return repo.IsIPWhitelisted(ctx, s.db, ip)
}

// AppendAccessLog proxies repo.AppendAccessLog.
func (s gateStoreShim) AppendAccessLog(ctx context.Context, rec *domain.AccessLog) error {
	return repo.AppendAccessLog(ctx, s.db, rec)
}

// publicPrefixes lists path prefixes that bypass the access gate. The API
// groups under /api/auth and /api/admin are public to the gate because
// their handlers authenticate independently (session issuance and the
// admin_key cookie respectively); the gate cannot require a session on the
// endpoints that create one.
var publicPrefixes = []string{
	"/api/auth",
	"/api/admin",
	"/signup",
	"/health",
	"/metrics",
	"/swagger",
	"/favicon.ico",
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given
// Gin engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS and security headers, gzip
//  9. Access gate (IP allowlist + session auth + admin sub-gate)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	production := cfg.Environment == "production"

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Admin-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture. Credentials (cookies) are required by the gate, so
	// wildcard origins are only used when nothing is configured, and then
	// without credentials.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Compress responses for the JSON-heavy admin surface.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Dependency injection: services ← repo/db
	authSvc := &services.AuthService{
		DB:     db,
		Secret: []byte(cfg.SessionSecret),
		TTL:    cfg.SessionTTL,
	}
	relaySvc := &services.RelayService{
		DB:              db,
		Responder:       webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout),
		MaxMessageRunes: 4000,
	}
	wlSvc := &services.WhitelistService{DB: db}
	statsSvc := &services.StatsService{DB: db}

	// 9) Access gate: IP allowlist, audit log, session auth, admin sub-gate
	r.Use(middleware.AccessGate(middleware.GateOptions{
		Store:          gateStoreShim{db: db},
		Sessions:       authSvc,
		AdminSecret:    cfg.AdminSecretKey,
		Production:     production,
		PublicPrefixes: publicPrefixes,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	chatH := handlers.NewChat(relaySvc)
	adminH := handlers.NewAdmin(db, wlSvc, statsSvc, cfg.AdminSecretKey, production)
	authH := handlers.NewAuth(authSvc, production)

	// Pages
	r.GET("/", handlers.ChatPage)
	r.GET("/login", handlers.LoginPage)
	r.GET("/signup", handlers.SignupPage)
	r.GET("/access-denied", handlers.AccessDeniedPage)
	r.GET("/admin", handlers.AdminPage)
	r.GET("/admin/login", handlers.AdminLoginPage)

	// Chat relay (gated)
	r.POST("/api/chat", chatH.Answer)

	// Authentication (public to the gate)
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", authH.Signup)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", authH.Logout)
	}

	// Admin query surface (admin_key cookie enforced per handler)
	admin := r.Group("/api/admin")
	{
		admin.POST("/login", adminH.Login)
		admin.GET("/ip-whitelist", adminH.ListWhitelist)
		admin.POST("/ip-whitelist", adminH.CreateWhitelist)
		admin.PATCH("/ip-whitelist", adminH.PatchWhitelist)
		admin.DELETE("/ip-whitelist", adminH.DeleteWhitelist)
		admin.GET("/access-logs", adminH.ListAccessLogs)
		admin.GET("/sessions", adminH.ListSessions)
		admin.GET("/history", adminH.SessionHistory)
		admin.GET("/stats", adminH.Stats)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Requests exceeding the cap cause downstream body
// reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
