package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
)

func TestAppendAccessLog_FillsDefaults(t *testing.T) {
	db := newTestDB(t)

	rec := &domain.AccessLog{
		IPAddress:     "203.0.113.5",
		AccessGranted: false,
		UserAgent:     "curl/8.0",
		Path:          "/",
	}
	if err := AppendAccessLog(context.Background(), db, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("id not assigned")
	}
	if rec.Timestamp.IsZero() {
		t.Fatal("timestamp not assigned")
	}
}

func TestListAccessLogs_NewestFirstAndLimited(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := &domain.AccessLog{
			IPAddress:     "203.0.113.5",
			AccessGranted: i%2 == 0,
			Path:          "/",
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		}
		if err := AppendAccessLog(ctx, db, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	logs, err := ListAccessLogs(ctx, db, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("len = %d, want 3", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].Timestamp.After(logs[i-1].Timestamp) {
			t.Fatalf("logs not newest-first at index %d", i)
		}
	}
}

func TestAccessLogCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, granted := range []bool{true, true, false} {
		rec := &domain.AccessLog{IPAddress: "203.0.113.5", AccessGranted: granted, Path: "/"}
		if err := AppendAccessLog(ctx, db, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	total, granted, denied, err := AccessLogCounts(ctx, db)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if total != 3 || granted != 2 || denied != 1 {
		t.Fatalf("counts = %d/%d/%d, want 3/2/1", total, granted, denied)
	}
}
