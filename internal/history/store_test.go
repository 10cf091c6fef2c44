package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bindery/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAssignsID(t *testing.T) {
	store := openStore(t)

	id, err := store.Record(context.Background(), history.Run{
		ItemID:    "B001",
		Operation: "download",
		Kind:      "audio",
		Outcome:   "success",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	runs, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[0].StartedAt.IsZero() || runs[0].FinishedAt.IsZero() {
		t.Fatalf("expected defaulted timestamps, got %+v", runs[0])
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	for i, outcome := range []string{"failed", "locked", "success"} {
		_, err := store.Record(context.Background(), history.Run{
			ItemID:     "B001",
			Operation:  "download",
			Outcome:    outcome,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 30*time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := store.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit applied, got %d runs", len(runs))
	}
	if runs[0].Outcome != "success" || runs[1].Outcome != "locked" {
		t.Fatalf("expected newest first, got %+v", runs)
	}
}

func TestForItemFilters(t *testing.T) {
	store := openStore(t)

	for _, itemID := range []string{"B001", "B002", "B001"} {
		if _, err := store.Record(context.Background(), history.Run{
			ItemID:    itemID,
			Operation: "convert",
			Outcome:   "success",
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := store.ForItem(context.Background(), "B001", 10)
	if err != nil {
		t.Fatalf("ForItem: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected two runs for B001, got %d", len(runs))
	}
	for _, run := range runs {
		if run.ItemID != "B001" {
			t.Fatalf("unexpected item in result: %+v", run)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := first.Record(context.Background(), history.Run{ItemID: "B001", Operation: "download", Outcome: "success"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	first.Close()

	second, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	runs, err := second.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected persisted run, got %d", len(runs))
	}
}
