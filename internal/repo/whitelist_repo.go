// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the IP
// allowlist.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an entry is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - CreateWhitelistEntry returns ErrDuplicateIP when the literal already
//     exists in any active state (pre-insert existence check, so the caller
//     fails fast instead of hitting the unique index).
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicateIP is returned when inserting an IP literal that is already
// present in the allowlist, regardless of its active state.
var ErrDuplicateIP = errors.New("ip address already exists in whitelist")

// CreateWhitelistEntry inserts a new allowlist row for the exact IP literal.
// The entry starts active. Duplicate literals (active or not) are rejected
// with ErrDuplicateIP.
func CreateWhitelistEntry(ctx context.Context, db *gorm.DB, ipAddress, description, addedBy string) (*domain.WhitelistEntry, error) {
	var existing int64
	if err := db.WithContext(ctx).
		Model(&domain.WhitelistEntry{}).
		Where("ip_address = ?", ipAddress).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrDuplicateIP
	}

	e := &domain.WhitelistEntry{
		ID:          uuid.NewString(),
		IPAddress:   ipAddress,
		Description: description,
		AddedBy:     addedBy,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// ListWhitelist returns all allowlist entries, newest first.
func ListWhitelist(ctx context.Context, db *gorm.DB) ([]domain.WhitelistEntry, error) {
	var out []domain.WhitelistEntry
	err := db.WithContext(ctx).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// IsIPWhitelisted reports whether an active allowlist entry exists for the
// exact IP literal. Inactive or missing entries both report false. The check
// hits the store on every call; results are never cached.
func IsIPWhitelisted(ctx context.Context, db *gorm.DB, ipAddress string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.WhitelistEntry{}).
		Where("ip_address = ? AND is_active = ?", ipAddress, true).
		Count(&n).Error
	return n > 0, err
}

// GetWhitelistEntry fetches a single entry by id, or ErrNotFound.
func GetWhitelistEntry(ctx context.Context, db *gorm.DB, id string) (*domain.WhitelistEntry, error) {
	var e domain.WhitelistEntry
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// SetWhitelistActive flips the is_active flag of an entry (soft
// deactivation). Returns ErrNotFound when the id does not exist.
func SetWhitelistActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	res := db.WithContext(ctx).
		Model(&domain.WhitelistEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWhitelistEntry hard-removes an entry. Returns ErrNotFound when the
// id does not exist.
func DeleteWhitelistEntry(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.WhitelistEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
