// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// append-only access audit log. No function here mutates or deletes rows.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
)

// maxAccessLogPage bounds how many audit rows a single listing may return.
const maxAccessLogPage = 1000

// AppendAccessLog inserts one audit row for a gate decision. The caller
// fills the decision fields; ID and Timestamp are assigned here when unset.
func AppendAccessLog(ctx context.Context, db *gorm.DB, entry *domain.AccessLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(entry).Error
}

// ListAccessLogs returns the most recent audit rows, newest first. A limit
// <= 0 or above the page cap is clamped to the cap.
func ListAccessLogs(ctx context.Context, db *gorm.DB, limit int) ([]domain.AccessLog, error) {
	if limit <= 0 || limit > maxAccessLogPage {
		limit = maxAccessLogPage
	}
	var out []domain.AccessLog
	err := db.WithContext(ctx).
		Order("timestamp desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
