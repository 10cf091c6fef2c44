package catalog_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"bindery/internal/catalog"
	"bindery/internal/services"
)

func newStore(t *testing.T) *catalog.Store {
	t.Helper()
	return catalog.NewStore(filepath.Join(t.TempDir(), "library.json"), nil)
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	store := newStore(t)
	items := store.Load()
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty map, got %v", items)
	}
}

func TestLoadGarbageFailsSoft(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := catalog.NewStore(path, nil)
	if items := store.Load(); len(items) != 0 {
		t.Fatalf("expected empty map for garbage file, got %v", items)
	}
}

func TestSaveLoadRoundTripIsStable(t *testing.T) {
	store := newStore(t)
	available := true
	items := map[string]*catalog.Item{
		"B001": {
			Title:             "First Book",
			Profiles:          []string{"alice", "bob"},
			AudioPath:         "/books/aax/first.aax",
			AudioSize:         1000,
			AudioFormat:       "aax",
			DocumentAvailable: &available,
		},
		"B002": {Title: "Second Book", Locked: true},
	}
	if err := store.Save(items); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	loaded := store.Load()
	if !reflect.DeepEqual(items, loaded) {
		t.Fatalf("round trip mismatch: want %+v got %+v", items, loaded)
	}

	if err := store.Save(loaded); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	second, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var a, b any
	if err := json.Unmarshal(first, &a); err != nil {
		t.Fatalf("unmarshal first: %v", err)
	}
	if err := json.Unmarshal(second, &b); err != nil {
		t.Fatalf("unmarshal second: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("save(load()) changed document content")
	}
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	store := newStore(t)
	if err := store.Save(map[string]*catalog.Item{"B001": {Title: "Book"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := "{\n  \"B001\""; string(data[:len(want)]) != want {
		t.Fatalf("expected 2-space indentation, got prefix %q", data[:20])
	}
}

func TestSaveFailureLeavesPriorFileIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-parent", "deeper", "library.json")
	store := catalog.NewStore(path, nil)

	// Seed a valid document, then make the directory unusable by replacing
	// the target's parent with a plain file so rename must fail.
	if err := store.Save(map[string]*catalog.Item{"B001": {Title: "Keep"}}); err != nil {
		t.Fatalf("seed Save: %v", err)
	}
	prior, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read prior: %v", err)
	}

	broken := catalog.NewStore(filepath.Join(path, "impossible.json"), nil)
	if err := broken.Save(map[string]*catalog.Item{}); err == nil {
		t.Fatal("expected save through a file path to fail")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("prior file should still exist: %v", err)
	}
	if string(prior) != string(after) {
		t.Fatal("failed save modified the prior document")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name != filepath.Base(path) && filepath.Ext(name) != ".lock" {
			t.Fatalf("unexpected leftover file %q", name)
		}
	}
}

func TestUpdateUnknownItem(t *testing.T) {
	store := newStore(t)
	err := store.Update("B404", func(*catalog.Item) error { return nil })
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSerializesConcurrentMutations(t *testing.T) {
	store := newStore(t)
	if err := store.Upsert("B001", &catalog.Item{Title: "Book"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(account byte) {
			defer wg.Done()
			err := store.Update("B001", func(item *catalog.Item) error {
				item.AddProfile(string([]byte{'a' + account}))
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}(byte(i))
	}
	wg.Wait()

	item := store.Load()["B001"]
	if item == nil {
		t.Fatal("item disappeared")
	}
	if len(item.Profiles) != writers {
		t.Fatalf("lost updates: expected %d profiles, got %d", writers, len(item.Profiles))
	}
}

func TestRemoveReturnsItem(t *testing.T) {
	store := newStore(t)
	if err := store.Upsert("B001", &catalog.Item{Title: "Book"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	item, err := store.Remove("B001")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if item.Title != "Book" {
		t.Fatalf("unexpected item %+v", item)
	}
	if _, ok := store.Load()["B001"]; ok {
		t.Fatal("item still present after Remove")
	}
	if _, err := store.Remove("B001"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}
