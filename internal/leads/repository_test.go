package leads

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestRepo(start time.Time) *InMemoryRepository {
	repo := NewInMemoryRepository()
	current := start
	repo.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	return repo
}

func TestInMemoryRepository_InsertDefaults(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, err := repo.Insert(context.Background(), NewLead{Name: "Asha", Phone: "9876543210", Source: DefaultSource})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if lead.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if lead.Status != StatusNew {
		t.Fatalf("expected status new, got %s", lead.Status)
	}
	if lead.Notes != nil {
		t.Fatal("expected notes to be empty")
	}
	if lead.CreatedAt.IsZero() || !lead.CreatedAt.Equal(lead.UpdatedAt) {
		t.Fatalf("expected created_at == updated_at, got %v %v", lead.CreatedAt, lead.UpdatedAt)
	}
}

func TestInMemoryRepository_ListAllNewestFirst(t *testing.T) {
	repo := newTestRepo(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, _ := repo.Insert(ctx, NewLead{Name: "A", Phone: "9876543210", Source: DefaultSource})
	second, _ := repo.Insert(ctx, NewLead{Name: "B", Phone: "9876543211", Source: DefaultSource})

	leads, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].ID != second.ID || leads[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", leads[0].Name, leads[1].Name)
	}
}

func TestInMemoryRepository_ListAllThreeLeadsReverseInsertOrder(t *testing.T) {
	repo := newTestRepo(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	t1, _ := repo.Insert(ctx, NewLead{Name: "T1", Phone: "9876543210", Source: DefaultSource})
	t2, _ := repo.Insert(ctx, NewLead{Name: "T2", Phone: "9876543211", Source: DefaultSource})
	t3, _ := repo.Insert(ctx, NewLead{Name: "T3", Phone: "9876543212", Source: DefaultSource})
	if !t1.CreatedAt.Before(t2.CreatedAt) || !t2.CreatedAt.Before(t3.CreatedAt) {
		t.Fatalf("expected increasing timestamps, got %v %v %v", t1.CreatedAt, t2.CreatedAt, t3.CreatedAt)
	}

	leads, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 3 {
		t.Fatalf("expected 3 leads, got %d", len(leads))
	}
	for i, want := range []*Lead{t3, t2, t1} {
		if leads[i].ID != want.ID {
			t.Fatalf("position %d: expected %s, got %s", i, want.Name, leads[i].Name)
		}
	}
}

func TestInMemoryRepository_ListAllReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	lead, _ := repo.Insert(ctx, NewLead{Name: "Asha", Phone: "9876543210", Source: DefaultSource})

	leads, _ := repo.ListAll(ctx)
	leads[0].Status = StatusLost

	again, _ := repo.ListAll(ctx)
	if again[0].Status != StatusNew {
		t.Fatalf("mutating a listed lead leaked into the store for %s", lead.ID)
	}
}

func TestInMemoryRepository_UpdateStatus(t *testing.T) {
	repo := newTestRepo(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	lead, _ := repo.Insert(ctx, NewLead{Name: "Asha", Phone: "9876543210", Source: DefaultSource})

	for i := 0; i < 2; i++ {
		found, err := repo.UpdateStatus(ctx, lead.ID, StatusContacted)
		if err != nil || !found {
			t.Fatalf("update %d: found=%v err=%v", i, found, err)
		}
	}

	leads, _ := repo.ListAll(ctx)
	if leads[0].Status != StatusContacted {
		t.Fatalf("expected contacted, got %s", leads[0].Status)
	}
	if !leads[0].UpdatedAt.After(leads[0].CreatedAt) {
		t.Fatal("expected updated_at to advance")
	}
}

func TestInMemoryRepository_UpdateUnknownID(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	found, err := repo.UpdateStatus(ctx, "missing", StatusLost)
	if err != nil || found {
		t.Fatalf("expected not found without error, got found=%v err=%v", found, err)
	}
	found, err = repo.UpdateNotes(ctx, "missing", "call back")
	if err != nil || found {
		t.Fatalf("expected not found without error, got found=%v err=%v", found, err)
	}
}

func TestInMemoryRepository_UpdateNotes(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	lead, _ := repo.Insert(ctx, NewLead{Name: "Asha", Phone: "9876543210", Source: DefaultSource})

	if _, err := repo.UpdateNotes(ctx, lead.ID, "Budget 50k"); err != nil {
		t.Fatalf("update notes: %v", err)
	}
	leads, _ := repo.ListAll(ctx)
	if leads[0].Notes == nil || *leads[0].Notes != "Budget 50k" {
		t.Fatalf("expected notes to be stored, got %v", leads[0].Notes)
	}

	if _, err := repo.UpdateNotes(ctx, lead.ID, ""); err != nil {
		t.Fatalf("clear notes: %v", err)
	}
	leads, _ = repo.ListAll(ctx)
	if leads[0].Notes != nil {
		t.Fatalf("expected empty notes to clear the field, got %q", *leads[0].Notes)
	}
}

func TestInMemoryRepository_CanceledContext(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Insert(ctx, NewLead{Name: "Asha", Phone: "9876543210", Source: DefaultSource})
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}
