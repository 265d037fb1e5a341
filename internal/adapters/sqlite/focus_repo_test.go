package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/regent/internal/adapters/sqlite"
	"github.com/example/regent/internal/ports/secondary"
)

func TestFocusRepository_Lock(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewFocusRepository(db)
	ctx := context.Background()

	seedEscalation(t, db, "ESC-001", "school-1")
	seedEscalation(t, db, "ESC-002", "school-1")

	t.Run("creates a lock for a new authority", func(t *testing.T) {
		if err := repo.Lock(ctx, "head@school-1", "school-1", "ESC-001"); err != nil {
			t.Fatalf("Lock failed: %v", err)
		}

		got, err := repo.Get(ctx, "head@school-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.EscalationID != "ESC-001" {
			t.Errorf("EscalationID = %q, want %q", got.EscalationID, "ESC-001")
		}
		if got.LastInteractionAt == "" {
			t.Error("LastInteractionAt not set")
		}
	})

	t.Run("conflicting lock silently replaces the previous one", func(t *testing.T) {
		if err := repo.Lock(ctx, "head@school-1", "school-1", "ESC-002"); err != nil {
			t.Fatalf("Lock failed: %v", err)
		}

		got, err := repo.Get(ctx, "head@school-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.EscalationID != "ESC-002" {
			t.Errorf("EscalationID = %q, want %q (last lock wins)", got.EscalationID, "ESC-002")
		}
	})
}

func TestFocusRepository_Unlock(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewFocusRepository(db)
	ctx := context.Background()

	seedEscalation(t, db, "ESC-001", "school-1")

	t.Run("clears an existing lock", func(t *testing.T) {
		repo.Lock(ctx, "head@school-1", "school-1", "ESC-001")

		if err := repo.Unlock(ctx, "head@school-1"); err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}

		got, err := repo.Get(ctx, "head@school-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.EscalationID != "" {
			t.Errorf("EscalationID = %q, want empty after unlock", got.EscalationID)
		}
	})

	t.Run("unlocking an unknown address is a no-op", func(t *testing.T) {
		if err := repo.Unlock(ctx, "nobody@nowhere"); err != nil {
			t.Errorf("Unlock of unknown address = %v, want nil", err)
		}
	})
}

func TestFocusRepository_Get(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewFocusRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "never-locked@school-1")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFocusRepository_NextPending(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewFocusRepository(db)
	ctx := context.Background()

	seedPending(t, db, "ESC-CRIT", "school-1", "CRITICAL", "2026-01-01 09:00:00")
	seedPending(t, db, "ESC-MED", "school-1", "MEDIUM", "2026-01-01 08:00:00")

	t.Run("returns the highest-priority escalation", func(t *testing.T) {
		got, err := repo.NextPending(ctx, "school-1", "")
		if err != nil {
			t.Fatalf("NextPending failed: %v", err)
		}
		if got.ID != "ESC-CRIT" {
			t.Errorf("ID = %q, want %q", got.ID, "ESC-CRIT")
		}
	})

	t.Run("excludes the given escalation", func(t *testing.T) {
		got, err := repo.NextPending(ctx, "school-1", "ESC-CRIT")
		if err != nil {
			t.Fatalf("NextPending failed: %v", err)
		}
		if got.ID != "ESC-MED" {
			t.Errorf("ID = %q, want %q", got.ID, "ESC-MED")
		}
	})

	t.Run("returns not found when nothing is pending", func(t *testing.T) {
		_, err := repo.NextPending(ctx, "school-9", "")
		if !errors.Is(err, secondary.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}
