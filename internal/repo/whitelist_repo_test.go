package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-gatedchat-backend/internal/domain"
)

// newTestDB opens a throwaway in-memory database with the full schema.
// Unique DSN per call to avoid cross-test contamination.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateWhitelistEntry_AndLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry, err := CreateWhitelistEntry(ctx, db, "203.0.113.5", "office", "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.ID == "" || !entry.IsActive {
		t.Fatalf("entry not initialized: %+v", entry)
	}

	ok, err := IsIPWhitelisted(ctx, db, "203.0.113.5")
	if err != nil || !ok {
		t.Fatalf("IsIPWhitelisted = %v, %v; want true", ok, err)
	}

	ok, err = IsIPWhitelisted(ctx, db, "198.51.100.1")
	if err != nil || ok {
		t.Fatalf("unknown IP whitelisted = %v, %v; want false", ok, err)
	}
}

func TestCreateWhitelistEntry_DuplicateAnyState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := CreateWhitelistEntry(ctx, db, "203.0.113.5", "", "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Duplicate while active.
	if _, err := CreateWhitelistEntry(ctx, db, "203.0.113.5", "again", "admin"); !errors.Is(err, ErrDuplicateIP) {
		t.Fatalf("want ErrDuplicateIP, got %v", err)
	}

	// Still a duplicate after deactivation.
	if err := SetWhitelistActive(ctx, db, first.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := CreateWhitelistEntry(ctx, db, "203.0.113.5", "again", "admin"); !errors.Is(err, ErrDuplicateIP) {
		t.Fatalf("want ErrDuplicateIP for inactive duplicate, got %v", err)
	}

	var count int64
	db.Model(&domain.WhitelistEntry{}).Count(&count)
	if count != 1 {
		t.Fatalf("row count = %d, want 1", count)
	}
}

func TestSetWhitelistActive_TogglesMembership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry, err := CreateWhitelistEntry(ctx, db, "203.0.113.5", "", "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := SetWhitelistActive(ctx, db, entry.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if ok, _ := IsIPWhitelisted(ctx, db, "203.0.113.5"); ok {
		t.Fatal("deactivated IP still whitelisted")
	}

	if err := SetWhitelistActive(ctx, db, entry.ID, true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if ok, _ := IsIPWhitelisted(ctx, db, "203.0.113.5"); !ok {
		t.Fatal("reactivated IP not whitelisted")
	}
}

func TestSetWhitelistActive_UnknownID(t *testing.T) {
	db := newTestDB(t)

	err := SetWhitelistActive(context.Background(), db, uuid.NewString(), false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteWhitelistEntry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry, err := CreateWhitelistEntry(ctx, db, "203.0.113.5", "", "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := DeleteWhitelistEntry(ctx, db, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := IsIPWhitelisted(ctx, db, "203.0.113.5"); ok {
		t.Fatal("deleted IP still whitelisted")
	}

	if err := DeleteWhitelistEntry(ctx, db, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestListWhitelist_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		if _, err := CreateWhitelistEntry(ctx, db, ip, "", "admin"); err != nil {
			t.Fatalf("create %s: %v", ip, err)
		}
	}

	entries, err := ListWhitelist(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
}
