// Package services – StatsService
//
// Read-only aggregation over users, allowlist entries, audit logs, and
// chat sessions for the admin dashboard. Counting only; no analytics.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-gatedchat-backend/internal/repo"
)

// defaultActiveWindow is how far back a login still counts as "active".
const defaultActiveWindow = 30 * 24 * time.Hour

// DashboardStats is the admin dashboard payload. Field names follow the
// dashboard's JSON contract.
type DashboardStats struct {
	TotalUsers      int64 `json:"totalUsers"`
	ActiveUsers     int64 `json:"activeUsers"`
	WhitelistedIPs  int64 `json:"whitelistedIPs"`
	TotalAccessLogs int64 `json:"totalAccessLogs"`
	GrantedAccess   int64 `json:"grantedAccess"`
	DeniedAccess    int64 `json:"deniedAccess"`
	ActiveSessions  int64 `json:"activeSessions"`
	TotalMessages   int64 `json:"totalMessages"`
}

// StatsService aggregates dashboard counts.
type StatsService struct {
	DB *gorm.DB

	// ActiveWindow overrides the 30-day active-user window; <= 0 keeps the
	// default.
	ActiveWindow time.Duration
}

// Dashboard collects all counts. Queries run sequentially; each is a cheap
// indexed count.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	window := s.ActiveWindow
	if window <= 0 {
		window = defaultActiveWindow
	}

	out := &DashboardStats{}
	var err error

	if out.TotalUsers, err = repo.CountUsers(ctx, s.DB); err != nil {
		return nil, err
	}
	if out.ActiveUsers, err = repo.CountUsersActiveSince(ctx, s.DB, time.Now().UTC().Add(-window)); err != nil {
		return nil, err
	}
	if out.WhitelistedIPs, err = repo.CountActiveWhitelist(ctx, s.DB); err != nil {
		return nil, err
	}
	if out.TotalAccessLogs, out.GrantedAccess, out.DeniedAccess, err = repo.AccessLogCounts(ctx, s.DB); err != nil {
		return nil, err
	}
	if out.ActiveSessions, err = repo.CountActiveSessions(ctx, s.DB); err != nil {
		return nil, err
	}
	if out.TotalMessages, err = repo.SumSessionMessages(ctx, s.DB); err != nil {
		return nil, err
	}
	return out, nil
}
