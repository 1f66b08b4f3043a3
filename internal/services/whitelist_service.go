// Package services – WhitelistService
//
// CRUD over the IP allowlist with input validation. The service validates
// that candidates are syntactic IPv4/IPv6 literals before they reach the
// store; matching at gate time is exact string equality, so a malformed
// literal would be dead weight that can never match a resolved client IP.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-gatedchat-backend/internal/clientinfo"
	"github.com/tbourn/go-gatedchat-backend/internal/domain"
	"github.com/tbourn/go-gatedchat-backend/internal/repo"
)

// WhitelistService manages allowlist entries.
type WhitelistService struct {
	DB *gorm.DB
}

// List returns all entries, newest first.
func (s *WhitelistService) List(ctx context.Context) ([]domain.WhitelistEntry, error) {
	return repo.ListWhitelist(ctx, s.DB)
}

// Add validates and inserts a new allowlist literal. Duplicates (in any
// active state) return ErrDuplicateIP; malformed literals return
// ErrInvalidIP.
func (s *WhitelistService) Add(ctx context.Context, ipAddress, description, addedBy string) (*domain.WhitelistEntry, error) {
	tr := otel.Tracer("services/WhitelistService")
	ctx, span := tr.Start(ctx, "Add",
		trace.WithAttributes(attribute.String("whitelist.ip", ipAddress)),
	)
	defer span.End()

	ipAddress = strings.TrimSpace(ipAddress)
	if ipAddress == "" || !clientinfo.IsValidIP(ipAddress) {
		return nil, ErrInvalidIP
	}
	if addedBy == "" {
		addedBy = "admin"
	}

	entry, err := repo.CreateWhitelistEntry(ctx, s.DB, ipAddress, strings.TrimSpace(description), addedBy)
	if errors.Is(err, repo.ErrDuplicateIP) {
		return nil, ErrDuplicateIP
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SetActive flips the soft-deactivation flag and returns the updated entry.
// Unknown ids return ErrEntryNotFound. Deactivation takes effect on the
// next gated request; the gate never caches allowlist state.
func (s *WhitelistService) SetActive(ctx context.Context, id string, active bool) (*domain.WhitelistEntry, error) {
	if err := repo.SetWhitelistActive(ctx, s.DB, id, active); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return repo.GetWhitelistEntry(ctx, s.DB, id)
}

// Remove hard-deletes an entry. Unknown ids return ErrEntryNotFound.
func (s *WhitelistService) Remove(ctx context.Context, id string) error {
	err := repo.DeleteWhitelistEntry(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrEntryNotFound
	}
	return err
}
