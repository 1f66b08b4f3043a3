package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestWhitelistService_AddValidatesLiteral(t *testing.T) {
	svc := &WhitelistService{DB: newServicesDB(t)}
	ctx := context.Background()

	for _, bad := range []string{"", "   ", "not-an-ip", "203.0.113.5/24", "203.0.113"} {
		if _, err := svc.Add(ctx, bad, "", "admin"); !errors.Is(err, ErrInvalidIP) {
			t.Errorf("Add(%q): want ErrInvalidIP, got %v", bad, err)
		}
	}

	entry, err := svc.Add(ctx, " 203.0.113.5 ", "office", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if entry.IPAddress != "203.0.113.5" {
		t.Fatalf("ip not trimmed: %q", entry.IPAddress)
	}
	if entry.AddedBy != "admin" {
		t.Fatalf("added_by default = %q, want admin", entry.AddedBy)
	}
}

func TestWhitelistService_AddDuplicate(t *testing.T) {
	svc := &WhitelistService{DB: newServicesDB(t)}
	ctx := context.Background()

	if _, err := svc.Add(ctx, "203.0.113.5", "", "admin"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "203.0.113.5", "", "admin"); !errors.Is(err, ErrDuplicateIP) {
		t.Fatalf("want ErrDuplicateIP, got %v", err)
	}
}

func TestWhitelistService_SetActiveAndRemove(t *testing.T) {
	svc := &WhitelistService{DB: newServicesDB(t)}
	ctx := context.Background()

	entry, err := svc.Add(ctx, "203.0.113.5", "", "admin")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := svc.SetActive(ctx, entry.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if updated.IsActive {
		t.Fatal("entry still active after deactivation")
	}

	if _, err := svc.SetActive(ctx, uuid.NewString(), true); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("unknown id: want ErrEntryNotFound, got %v", err)
	}

	if err := svc.Remove(ctx, entry.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Remove(ctx, entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("second remove: want ErrEntryNotFound, got %v", err)
	}
}
