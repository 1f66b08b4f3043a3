// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for chat sessions
// and their history.
//
// Concurrency note: TouchChatSession increments message_count with an
// in-database expression (message_count = message_count + 1) so that
// concurrent turns on the same session never lose updates. Callers must not
// read-modify-write the counter.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
)

// TouchChatSession upserts the session row keyed by the client-generated
// sessionID and atomically bumps its message count by one. On first sight
// the row is created with MessageCount = 1; on subsequent turns last_seen,
// ip_address, and (when provided) fingerprint and user_id are refreshed and
// the counter is incremented in place.
func TouchChatSession(ctx context.Context, db *gorm.DB, sessionID, ipAddress string, fingerprint, userID *string) error {
	now := time.Now().UTC()

	assignments := map[string]any{
		"last_seen":     now,
		"ip_address":    ipAddress,
		"is_active":     true,
		"message_count": gorm.Expr("message_count + ?", 1),
	}
	if fingerprint != nil {
		assignments["fingerprint"] = *fingerprint
	}
	if userID != nil {
		assignments["user_id"] = *userID
	}

	s := &domain.ChatSession{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		UserID:       userID,
		IPAddress:    ipAddress,
		Fingerprint:  fingerprint,
		FirstSeen:    now,
		LastSeen:     now,
		MessageCount: 1,
		IsActive:     true,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(s).Error
}

// GetChatSession fetches a session by its client-generated sessionID, or
// ErrNotFound.
func GetChatSession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListChatSessions returns all sessions ordered by last_seen descending.
func ListChatSessions(ctx context.Context, db *gorm.DB) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	err := db.WithContext(ctx).
		Order("last_seen desc").
		Find(&out).Error
	return out, err
}

// AppendChatMessage inserts one chat turn for a session. Rows are
// append-only and ordered by Timestamp ascending on read.
func AppendChatMessage(ctx context.Context, db *gorm.DB, sessionID, role, content string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListSessionHistory returns all chat turns for a session, oldest first.
func ListSessionHistory(ctx context.Context, db *gorm.DB, sessionID string) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp asc").
		Find(&out).Error
	return out, err
}
