package memory

import (
	"context"
	"errors"
	"testing"

	"safe-bets/internal/domain"
	"safe-bets/internal/storage"
)

func historyEntry(id, date string) *domain.HistoryEntry {
	return &domain.HistoryEntry{
		EvaluationID:   id,
		RunDate:        date,
		Match:          "Home vs Away",
		TeamAID:        1,
		TeamBID:        2,
		LeagueID:       39,
		DecisionOver15: "Safe +1.5",
		DecisionResult: "Avoid",
		OverIndex:      0.7,
		Flags:          domain.FlagSet(0).With(domain.FlagLargeGap),
	}
}

func TestHistoryStore_InsertAndGet(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	if err := store.Insert(ctx, historyEntry("e1", "2025-10-01")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "e1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Match != "Home vs Away" {
		t.Errorf("Match mismatch: got %s", got.Match)
	}
	if !got.Flags.Has(domain.FlagLargeGap) {
		t.Errorf("Flags lost: %s", got.Flags)
	}

	// Returned entries are copies
	got.Match = "mutated"
	again, _ := store.GetByID(ctx, "e1")
	if again.Match != "Home vs Away" {
		t.Errorf("store mutated through returned pointer")
	}
}

func TestHistoryStore_DuplicateKey(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	if err := store.Insert(ctx, historyEntry("e1", "2025-10-01")); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, historyEntry("e1", "2025-10-01")); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestHistoryStore_InsertBulkAtomic(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	if err := store.Insert(ctx, historyEntry("e2", "2025-10-01")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.HistoryEntry{
		historyEntry("e1", "2025-10-01"),
		historyEntry("e2", "2025-10-01"),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "e1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("partial batch was written: %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.HistoryEntry{
		historyEntry("e3", "2025-10-02"),
		historyEntry("e3", "2025-10-02"),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected intra-batch ErrDuplicateKey, got %v", err)
	}
}

func TestHistoryStore_GetByRunDate(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.HistoryEntry{
		historyEntry("b", "2025-10-01"),
		historyEntry("a", "2025-10-01"),
		historyEntry("c", "2025-10-02"),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunDate(ctx, "2025-10-01")
	if err != nil {
		t.Fatalf("GetByRunDate failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].EvaluationID != "b" || got[1].EvaluationID != "a" {
		t.Errorf("insertion order not kept: %s, %s", got[0].EvaluationID, got[1].EvaluationID)
	}
}
