// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by all endpoints. Two
// error shapes coexist:
//
//   - The chat and admin endpoints answer with the dashboard contract, a
//     flat {"error": "..."} body written by apiError(). The messages are
//     human-readable and safe to render directly in the UI.
//   - Router-level fallbacks (404/405, rate limiting, panics) use the
//     structured envelope written by fail(), which carries a stable code
//     and the request correlation ID.
//
// Example envelope response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "resource not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gatedchat-backend/internal/http/middleware"
)

// ErrorResponse is the structured error envelope used by router fallbacks.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with a structured envelope and logs 5xx responses
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router setup (404/405).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// apiError aborts with the flat dashboard-contract error body. Server
// errors are logged with request context; the message itself stays generic.
func apiError(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// ok writes a success JSON response with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
