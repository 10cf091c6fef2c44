package testsupport

import (
	"path/filepath"
	"testing"

	"bindery/internal/catalog"
	"bindery/internal/logging"
)

// NewStore creates a catalog store backed by a temp directory.
func NewStore(t testing.TB) *catalog.Store {
	t.Helper()
	return catalog.NewStore(filepath.Join(t.TempDir(), "library.json"), logging.NewNop())
}

// SeedItem inserts an item the way the catalog sync does: merged against any
// existing entry, so reseeding never clobbers recorded acquisition state.
func SeedItem(t testing.TB, store *catalog.Store, id string, item *catalog.Item) {
	t.Helper()
	account := ""
	if item != nil && len(item.Profiles) > 0 {
		account = item.Profiles[0]
	}
	merged := catalog.Merge(store.Load()[id], item, account)
	if err := store.Upsert(id, merged); err != nil {
		t.Fatalf("seed item %s: %v", id, err)
	}
}
