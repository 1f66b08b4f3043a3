// Package services – RelayService
//
// This file implements RelayService, the application-level component that
// owns the lifecycle of a chat turn: it validates the inbound message,
// upserts the chat session, persists the user turn, forwards the query to
// the external responder, and persists the assistant turn once the
// responder succeeds.
//
// Ordering guarantees (per turn): the session upsert and user-turn write
// happen before the outbound call is issued; the assistant-turn write
// happens only after the outbound call returns successfully. On outbound
// failure nothing further is written and the error is surfaced to the
// caller. The steps run sequentially for auditability.
//
// Observability: Answer is OpenTelemetry-instrumented; spans carry the chat
// session identifier.
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
	"github.com/tbourn/go-gatedchat-backend/internal/repo"
)

// Responder is the outbound contract to the external assistant. The
// production implementation is webhook.Client.
type Responder interface {
	// Ask forwards a query and returns the extracted reply plus any
	// metadata the upstream attached.
	Ask(ctx context.Context, query, sessionID string) (reply string, metadata any, err error)
}

// ChatInput is one inbound chat turn. SessionID and Fingerprint are
// client-supplied and optional; UserID and IPAddress come from request
// context when available.
type ChatInput struct {
	Message     string
	SessionID   string
	Fingerprint string
	UserID      string
	IPAddress   string
}

// ChatTurn is the outcome of a relayed turn.
type ChatTurn struct {
	Reply     string
	Metadata  any
	SessionID string
}

// RelayService forwards validated user messages to the external responder
// and owns all ChatSession/ChatMessage writes.
type RelayService struct {
	DB        *gorm.DB
	Responder Responder

	// MaxMessageRunes caps inbound message length; <= 0 disables the guard.
	MaxMessageRunes int
}

// Answer runs one chat turn end to end. Without a sessionID the turn is
// relayed statelessly: there is no session row to attach history to, so
// nothing is persisted.
func (s *RelayService) Answer(ctx context.Context, in ChatInput) (*ChatTurn, error) {
	tr := otel.Tracer("services/RelayService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(attribute.String("chat.session_id", in.SessionID)),
	)
	defer span.End()

	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}

	tracked := in.SessionID != ""
	if tracked {
		if err := repo.TouchChatSession(ctx, s.DB, in.SessionID, in.IPAddress, optional(in.Fingerprint), optional(in.UserID)); err != nil {
			return nil, err
		}
		if _, err := repo.AppendChatMessage(ctx, s.DB, in.SessionID, domain.RoleUser, message); err != nil {
			return nil, err
		}
	}

	reply, metadata, err := s.Responder.Ask(ctx, message, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if tracked {
		if _, err := repo.AppendChatMessage(ctx, s.DB, in.SessionID, domain.RoleAssistant, reply); err != nil {
			return nil, err
		}
	}

	return &ChatTurn{Reply: reply, Metadata: metadata, SessionID: in.SessionID}, nil
}

// optional maps "" to nil so empty client fields stay NULL in the store.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
