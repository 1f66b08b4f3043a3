// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for user profiles.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
)

// CreateUserProfile inserts a new profile with a hashed credential. The
// unique email index backs the duplicate check performed by the service
// layer; a racing insert still surfaces as a constraint error here.
func CreateUserProfile(ctx context.Context, db *gorm.DB, email, fullName, passwordHash string) (*domain.UserProfile, error) {
	u := &domain.UserProfile{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		IsActive:     true,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail fetches a profile by email, or ErrNotFound.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserProfile fetches a profile by id, or ErrNotFound.
func GetUserProfile(ctx context.Context, db *gorm.DB, id string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// MarkUserLogin stamps last_login for a successful authentication.
func MarkUserLogin(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("id = ?", id).
		Update("last_login", time.Now().UTC()).Error
}

// UserEmailsByID returns an id -> email map for the given profile ids.
// Unknown ids are simply absent from the result.
func UserEmailsByID(ctx context.Context, db *gorm.DB, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	var rows []struct {
		ID    string
		Email string
	}
	err := db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Select("id", "email").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Email
	}
	return out, nil
}
