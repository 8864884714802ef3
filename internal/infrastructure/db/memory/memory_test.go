package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

func TestCredentialRepository_FindMissingIsNotAnError(t *testing.T) {
	repo := NewCredentialRepository()
	u, found, err := repo.FindByUsername(context.Background(), "nobody")
	if err != nil || found || u != nil {
		t.Fatalf("expected (nil, false, nil), got (%v, %v, %v)", u, found, err)
	}
}

func TestCredentialRepository_UsernameIsCaseSensitive(t *testing.T) {
	repo := NewCredentialRepository()
	if _, err := repo.Create(context.Background(), &domain.User{ID: "1", Username: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(context.Background(), &domain.User{ID: "2", Username: "Alice"}); err != nil {
		t.Fatalf("create differently-cased username: %v", err)
	}
	if _, found, _ := repo.FindByUsername(context.Background(), "ALICE"); found {
		t.Fatalf("lookup must be case-sensitive")
	}
}

func TestCredentialRepository_ConcurrentCreateSingleWinner(t *testing.T) {
	repo := NewCredentialRepository()

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(context.Background(), &domain.User{ID: "x", Username: "alice"})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domain.ErrUserExists):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 || conflicts.Load() != 31 {
		t.Fatalf("expected 1 win and 31 conflicts, got %d/%d", wins.Load(), conflicts.Load())
	}
	if repo.Len() != 1 {
		t.Fatalf("expected exactly one record, got %d", repo.Len())
	}
}

func TestCredentialRepository_ReturnsCopies(t *testing.T) {
	repo := NewCredentialRepository()
	created, _ := repo.Create(context.Background(), &domain.User{ID: "1", Username: "bob", FullName: "Bob"})
	created.FullName = "mutated"

	got, _, _ := repo.FindByUsername(context.Background(), "bob")
	if got.FullName != "Bob" {
		t.Fatalf("stored record was mutated through a returned pointer")
	}
}

func TestRecordRepository_FilterSortPage(t *testing.T) {
	repo := NewRecordRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []string{"low", "ok", "low", "low"} {
		err := repo.Insert(ctx, "inventory_items", domain.Record{
			"id":         string(rune('a' + i)),
			"status":     status,
			"created_at": base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	items, total, err := repo.List(ctx, "inventory_items", ports.RecordFilter{
		Equals:     map[string]string{"status": "low"},
		SortBy:     "created_at",
		Descending: true,
		Page:       1,
		Limit:      2,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(items), total)
	}
	if items[0]["id"] != "d" || items[1]["id"] != "c" {
		t.Fatalf("unexpected order: %v, %v", items[0]["id"], items[1]["id"])
	}

	page2, _, _ := repo.List(ctx, "inventory_items", ports.RecordFilter{
		Equals: map[string]string{"status": "low"}, SortBy: "created_at", Descending: true, Page: 2, Limit: 2,
	})
	if len(page2) != 1 || page2[0]["id"] != "a" {
		t.Fatalf("unexpected second page: %v", page2)
	}
}

func TestRecordRepository_GetUpdateNotFound(t *testing.T) {
	repo := NewRecordRepository()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "patients", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, "patients", "missing", domain.Record{"a": 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_ = repo.Insert(ctx, "patients", domain.Record{"id": "p1", "name": "Jane"})
	got, err := repo.Update(ctx, "patients", "p1", domain.Record{"status": "stable"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got["name"] != "Jane" || got["status"] != "stable" {
		t.Fatalf("unexpected record: %v", got)
	}
	if err := repo.Insert(ctx, "patients", domain.Record{"id": "p1"}); err == nil {
		t.Fatalf("expected duplicate id to be rejected")
	}
}

func TestAuditRepository_NewestFirstWithFilters(t *testing.T) {
	repo := NewAuditRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = repo.Insert(ctx, &domain.AuditEntry{ID: "1", UserID: "u1", Action: domain.ActionLogin, CreatedAt: base})
	_ = repo.Insert(ctx, &domain.AuditEntry{ID: "2", UserID: "u2", Action: domain.ActionLogin, CreatedAt: base.Add(time.Minute)})
	_ = repo.Insert(ctx, &domain.AuditEntry{ID: "3", UserID: "u1", Action: domain.ActionLogout, CreatedAt: base.Add(2 * time.Minute)})

	all, total, err := repo.List(ctx, ports.AuditFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || all[0].ID != "3" || all[2].ID != "1" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	logins, total, _ := repo.List(ctx, ports.AuditFilter{Action: domain.ActionLogin, UserID: "u1", Page: 1, Limit: 10})
	if total != 1 || logins[0].ID != "1" {
		t.Fatalf("unexpected filtered result: %+v", logins)
	}
}
