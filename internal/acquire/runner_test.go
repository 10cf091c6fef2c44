package acquire_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bindery/internal/acquire"
	"bindery/internal/catalog"
	"bindery/internal/services"
	"bindery/internal/services/audible"
	"bindery/internal/testsupport"
)

type stubDownloader struct {
	result audible.Result
	err    error
	calls  int
}

func (s *stubDownloader) Download(_ context.Context, _, _ string, _ audible.ContentKind, _ string, _ func(int)) (audible.Result, error) {
	s.calls++
	return s.result, s.err
}

func newRunner(t *testing.T, store *catalog.Store, dl audible.Downloader) *acquire.Runner {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return acquire.NewRunner(store, dl, cfg, nil)
}

func loadItem(t *testing.T, store *catalog.Store, asin string) *catalog.Item {
	t.Helper()
	item, ok := store.Load()[asin]
	if !ok {
		t.Fatalf("item %s missing from store", asin)
	}
	return item
}

func TestAcquireUnknownItem(t *testing.T) {
	store := testsupport.NewStore(t)
	runner := newRunner(t, store, &stubDownloader{})

	_, err := runner.Acquire(context.Background(), "alice", "B404", audible.KindAudio, acquire.Options{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAcquireLockedItemShortCircuits(t *testing.T) {
	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand", Locked: true})
	dl := &stubDownloader{}
	runner := newRunner(t, store, dl)

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeLocked {
		t.Fatalf("expected locked outcome, got %+v", outcome)
	}
	if dl.calls != 0 {
		t.Fatal("locked item must not trigger a download")
	}
}

func TestAcquireForceRetriesLockedItem(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "The Stand.aax")
	testsupport.WriteFile(t, audioPath, 4096)

	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand", Locked: true})
	dl := &stubDownloader{result: audible.Result{Files: []audible.File{{Path: audioPath, Size: 4096, Format: "aax"}}}}
	runner := newRunner(t, store, dl)

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{Force: true})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	item := loadItem(t, store, "B001")
	if item.Locked {
		t.Fatal("successful download must clear the locked flag")
	}
	if item.AudioPath != audioPath || item.AudioSize != 4096 || item.AudioFormat != "aax" {
		t.Fatalf("unexpected audio fields %+v", item)
	}
	if len(item.Profiles) != 1 || item.Profiles[0] != "alice" {
		t.Fatalf("expected account recorded, got %v", item.Profiles)
	}
}

func TestAcquireLockedMarkerStains(t *testing.T) {
	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand"})
	dl := &stubDownloader{result: audible.Result{Locked: true}}
	runner := newRunner(t, store, dl)

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeLocked {
		t.Fatalf("expected locked outcome, got %+v", outcome)
	}
	if !loadItem(t, store, "B001").Locked {
		t.Fatal("locked marker must be recorded on the item")
	}
}

func TestAcquireNoDocumentMarker(t *testing.T) {
	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand"})
	dl := &stubDownloader{result: audible.Result{NoDocument: true}}
	runner := newRunner(t, store, dl)

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindDocument, acquire.Options{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeUnavailable {
		t.Fatalf("expected unavailable outcome, got %+v", outcome)
	}
	item := loadItem(t, store, "B001")
	if item.DocumentAvailable == nil || *item.DocumentAvailable {
		t.Fatal("expected document recorded as unavailable")
	}
}

func TestAcquireEmptyAudioDefaultsToLocked(t *testing.T) {
	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand"})
	runner := newRunner(t, store, &stubDownloader{})

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeLocked {
		t.Fatalf("expected locked outcome for silent empty run, got %+v", outcome)
	}
	if !loadItem(t, store, "B001").Locked {
		t.Fatal("expected item marked locked")
	}
}

func TestAcquireEmptyDocumentIsUnavailable(t *testing.T) {
	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand"})
	runner := newRunner(t, store, &stubDownloader{})

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindDocument, acquire.Options{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeUnavailable {
		t.Fatalf("expected unavailable outcome, got %+v", outcome)
	}
}

func TestAcquireMultiPartReassembly(t *testing.T) {
	dir := t.TempDir()
	part1 := filepath.Join(dir, "The Stand-Part_01.aax")
	part2 := filepath.Join(dir, "The Stand-Part_02.aax")
	testsupport.WriteFile(t, part1, 1000)
	testsupport.WriteFile(t, part2, 2000)

	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand"})
	dl := &stubDownloader{result: audible.Result{
		MultiPart: true,
		Files: []audible.File{
			{Path: part1, Size: 1000, Format: "aax"},
			{Path: part2, Size: 2000, Format: "aax"},
		},
	}}
	runner := newRunner(t, store, dl)

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	item := loadItem(t, store, "B001")
	if !item.MultiPart || len(item.Parts) != 2 {
		t.Fatalf("expected two parts, got %+v", item)
	}
	if item.AudioPath != part1 {
		t.Fatalf("first part must lead, got %q", item.AudioPath)
	}
	if item.AudioSize != 3000 {
		t.Fatalf("expected aggregate size 3000, got %d", item.AudioSize)
	}
}

func TestAcquireFiltersUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	wanted := filepath.Join(dir, "The Stand.aax")
	other := filepath.Join(dir, "Different Book.aax")
	testsupport.WriteFile(t, wanted, 4096)
	testsupport.WriteFile(t, other, 4096)

	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand"})
	dl := &stubDownloader{result: audible.Result{Files: []audible.File{
		{Path: other, Size: 4096, Format: "aax"},
		{Path: wanted, Size: 4096, Format: "aax"},
	}}}
	runner := newRunner(t, store, dl)

	if _, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	item := loadItem(t, store, "B001")
	if item.AudioPath != wanted || item.MultiPart {
		t.Fatalf("expected only the matching title recorded, got %+v", item)
	}
}

func TestAcquireSkipsExistingAudio(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "The Stand.aax")
	testsupport.WriteFile(t, audioPath, 4096)

	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand", AudioPath: audioPath, AudioSize: 4096})
	dl := &stubDownloader{}
	runner := newRunner(t, store, dl)

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeSkipped {
		t.Fatalf("expected skipped outcome, got %+v", outcome)
	}
	if dl.calls != 0 {
		t.Fatal("existing artifact must not trigger a download")
	}
}

func TestAcquireRedownloadsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	fresh := filepath.Join(dir, "The Stand.aax")
	testsupport.WriteFile(t, fresh, 4096)

	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{
		Title:     "The Stand",
		AudioPath: filepath.Join(dir, "gone.aax"),
	})
	dl := &stubDownloader{result: audible.Result{Files: []audible.File{{Path: fresh, Size: 4096, Format: "aax"}}}}
	runner := newRunner(t, store, dl)

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Kind != acquire.OutcomeSuccess || dl.calls != 1 {
		t.Fatalf("expected re-download, got %+v calls=%d", outcome, dl.calls)
	}
}

func TestAcquireDownloadErrorPropagates(t *testing.T) {
	store := testsupport.NewStore(t)
	testsupport.SeedItem(t, store, "B001", &catalog.Item{Title: "The Stand"})
	dl := &stubDownloader{err: services.Wrap(services.ErrTimeout, "audible", "download", "no output", nil)}
	runner := newRunner(t, store, dl)

	outcome, err := runner.Acquire(context.Background(), "alice", "B001", audible.KindAudio, acquire.Options{})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if outcome.Kind != acquire.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %+v", outcome)
	}
	if loadItem(t, store, "B001").Locked {
		t.Fatal("transient failure must not mark the item locked")
	}
}
