// Chat HTTP handlers.
//
// This file exposes the chat relay endpoint:
//   - POST /api/chat
//
// The handler is transport-thin: it validates input, calls the relay
// service, and translates the result into the dashboard JSON contract.
// Upstream failures surface as a generic 500; the full error only reaches
// server-side logs.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gatedchat-backend/internal/http/middleware"
	"github.com/tbourn/go-gatedchat-backend/internal/services"
)

// RelayService defines the chat turn operation consumed by the handler.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type RelayService interface {
	// Answer runs one validated chat turn end to end.
	Answer(ctx context.Context, in services.ChatInput) (*services.ChatTurn, error)
}

// ChatHandlers groups the chat endpoints.
type ChatHandlers struct {
	relay RelayService
}

// NewChat constructs ChatHandlers bound to the given relay service.
func NewChat(relay RelayService) *ChatHandlers {
	return &ChatHandlers{relay: relay}
}

// ChatRequest is the JSON payload for a chat turn.
type ChatRequest struct {
	// Message is the user's prompt. Required.
	Message string `json:"message" example:"What are your opening hours?"`
	// SessionID is the client-generated chat session identifier. Optional;
	// without it the turn is not persisted.
	SessionID string `json:"sessionId" example:"sess_8f14e45f"`
	// Fingerprint is an opaque client-supplied device identifier. Optional.
	Fingerprint string `json:"fingerprint"`
}

// ChatResponse is the successful chat turn payload.
type ChatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId,omitempty"`
	Metadata  any    `json:"metadata,omitempty"`
}

// Answer godoc
// @ID          chatAnswer
// @Summary     Relay a chat message
// @Description Forwards the message to the assistant and returns its reply.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ChatRequest  true  "Chat turn payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  map[string]string  "Missing message"
// @Failure     500  {object}  map[string]string  "Relay failure"
// @Router      /api/chat [post]
func (h *ChatHandlers) Answer(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "Message is required")
		return
	}

	turn, err := h.relay.Answer(c.Request.Context(), services.ChatInput{
		Message:     req.Message,
		SessionID:   req.SessionID,
		Fingerprint: req.Fingerprint,
		UserID:      middleware.UserIDFrom(c),
		IPAddress:   middleware.ClientIPFrom(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			apiError(c, http.StatusBadRequest, "Message is required")
		case errors.Is(err, services.ErrMessageTooLong):
			apiError(c, http.StatusBadRequest, "Message is too long")
		default:
			middleware.LoggerFrom(c).Error().Err(err).Msg("chat relay failed")
			apiError(c, http.StatusInternalServerError, "Failed to process request")
		}
		return
	}

	ok(c, http.StatusOK, ChatResponse{
		Reply:     turn.Reply,
		SessionID: turn.SessionID,
		Metadata:  turn.Metadata,
	})
}
