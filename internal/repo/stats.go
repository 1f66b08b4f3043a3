// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate count queries behind the
// admin dashboard. Each function is context-aware and safe to call from
// services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
)

// CountUsers returns the total number of user profiles.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.UserProfile{}).Count(&n).Error
	return n, err
}

// CountUsersActiveSince returns how many users logged in at or after the
// given instant.
func CountUsersActiveSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("last_login >= ?", since).
		Count(&n).Error
	return n, err
}

// CountActiveWhitelist returns the number of active allowlist entries.
func CountActiveWhitelist(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.WhitelistEntry{}).
		Where("is_active = ?", true).
		Count(&n).Error
	return n, err
}

// AccessLogCounts returns the audit totals: all rows, grants, and denials.
func AccessLogCounts(ctx context.Context, db *gorm.DB) (total, granted, denied int64, err error) {
	q := db.WithContext(ctx).Model(&domain.AccessLog{})
	if err = q.Count(&total).Error; err != nil {
		return 0, 0, 0, err
	}
	if err = db.WithContext(ctx).Model(&domain.AccessLog{}).
		Where("access_granted = ?", true).
		Count(&granted).Error; err != nil {
		return 0, 0, 0, err
	}
	denied = total - granted
	return total, granted, denied, nil
}

// CountActiveSessions returns the number of active chat sessions.
func CountActiveSessions(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("is_active = ?", true).
		Count(&n).Error
	return n, err
}

// SumSessionMessages returns the total message count across all chat
// sessions (COALESCE keeps the result 0 when there are no rows).
func SumSessionMessages(ctx context.Context, db *gorm.DB) (int64, error) {
	var row struct {
		Total int64
	}
	err := db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Select("COALESCE(SUM(message_count), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}
