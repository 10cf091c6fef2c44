package audible_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bindery/internal/services"
	"bindery/internal/services/audible"
	"bindery/internal/testsupport"
)

type stubExecutor struct {
	lines []string
	err   error
	args  [][]string
	hook  func(ctx context.Context, outputDir string) error
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	s.args = append(s.args, append([]string(nil), args...))
	for _, line := range s.lines {
		onLine(line)
	}
	if s.hook != nil {
		return s.hook(ctx, args[len(args)-1])
	}
	return s.err
}

func newClient(t *testing.T, exec audible.Executor, opts ...audible.Option) *audible.Client {
	t.Helper()
	opts = append([]audible.Option{audible.WithExecutor(exec)}, opts...)
	client, err := audible.New("audible", 0, 300, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestDownloadBuildsCommand(t *testing.T) {
	exec := &stubExecutor{}
	client := newClient(t, exec)
	dir := t.TempDir()

	if _, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, dir, nil); err != nil {
		t.Fatalf("Download: %v", err)
	}

	want := []string{"-P", "alice", "download", "--aax-fallback", "--no-confirm", "--timeout", "0", "--asin", "B001", "--output-dir", dir}
	got := exec.args[0]
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("args = %v, want %v", got, want)
		}
	}
}

func TestDownloadLockedMarkerBeatsExitStatus(t *testing.T) {
	exec := &stubExecutor{
		lines: []string{"Error: This title is not available for download"},
		err:   errors.New("exit status 1"),
	}
	client := newClient(t, exec)

	result, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("locked marker must not surface as failure, got %v", err)
	}
	if !result.Locked {
		t.Fatal("expected Locked result")
	}
}

func TestDownloadNoDocumentMarker(t *testing.T) {
	exec := &stubExecutor{lines: []string{"No PDF available for this title"}}
	client := newClient(t, exec)

	result, err := client.Download(context.Background(), "alice", "B001", audible.KindDocument, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !result.NoDocument || result.Locked {
		t.Fatalf("expected NoDocument result, got %+v", result)
	}
}

func TestDownloadProgressReportsLastValue(t *testing.T) {
	exec := &stubExecutor{lines: []string{" 10%|#", " 55%|#####", " 31%|###"}}
	client := newClient(t, exec)

	var last int
	if _, err := client.Download(context.Background(), "", "B001", audible.KindAudio, t.TempDir(), func(p int) { last = p }); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if last != 31 {
		t.Fatalf("expected last observed progress 31, got %d", last)
	}
}

func TestDownloadMarkerPathAuthoritative(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "The Stand.aax")
	testsupport.WriteFile(t, audioPath, 2048)
	// A stale unrelated file should be ignored in favour of the marker path.
	testsupport.WriteFile(t, filepath.Join(dir, "Other Book.aax"), 4096)

	exec := &stubExecutor{lines: []string{"File " + audioPath + " already exists. Skip."}}
	client := newClient(t, exec)

	result, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, dir, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(result.Files) == 0 || result.Files[0].Path != audioPath {
		t.Fatalf("expected marker path first, got %+v", result.Files)
	}
	if result.Files[0].Size != 2048 || result.Files[0].Format != "aax" {
		t.Fatalf("unexpected file metadata %+v", result.Files[0])
	}
}

func TestDownloadMarkerNamesLaterPart(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "Book-Part_01.aax")
	second := filepath.Join(dir, "Book-Part_02.aax")
	testsupport.WriteFile(t, first, 1000)
	testsupport.WriteFile(t, second, 2000)
	// An "already exists" set predates any recency window.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(first, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	exec := &stubExecutor{lines: []string{
		"Downloaded in 2 parts",
		"File " + second + " already exists. Skip.",
	}}
	client := newClient(t, exec)

	result, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, dir, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !result.MultiPart {
		t.Fatal("expected MultiPart result")
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected both parts resolved, got %+v", result.Files)
	}
	if result.Files[0].Path != first || result.Files[1].Path != second {
		t.Fatalf("expected parts in filename order, got %+v", result.Files)
	}
	if result.Files[0].Size+result.Files[1].Size != 3000 {
		t.Fatalf("unexpected part sizes %+v", result.Files)
	}
}

func TestDownloadScanFallbackSkipsStaleFiles(t *testing.T) {
	dir := t.TempDir()
	fresh := filepath.Join(dir, "Fresh.aax")
	stale := filepath.Join(dir, "Stale.aax")
	testsupport.WriteFile(t, fresh, 1024)
	testsupport.WriteFile(t, stale, 1024)
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	exec := &stubExecutor{}
	client := newClient(t, exec)

	result, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, dir, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Path != fresh {
		t.Fatalf("expected only the fresh file, got %+v", result.Files)
	}
}

func TestDownloadPairsVoucherWithAudio(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "The Stand.aaxc")
	voucherPath := filepath.Join(dir, "The Stand.voucher")
	testsupport.WriteFile(t, audioPath, 600*1024)
	testsupport.WriteFile(t, voucherPath, 512)

	client := newClient(t, &stubExecutor{})
	result, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, dir, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Path != audioPath {
		t.Fatalf("expected single audio file, got %+v", result.Files)
	}
	if result.VoucherPath != voucherPath {
		t.Fatalf("expected paired voucher, got %q", result.VoucherPath)
	}
}

func TestDownloadSmallAAXCIsVoucher(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "Book.aaxc")
	smallPath := filepath.Join(dir, "Book-license.aaxc")
	testsupport.WriteFile(t, audioPath, 600*1024)
	testsupport.WriteFile(t, smallPath, 2*1024)

	client := newClient(t, &stubExecutor{})
	result, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, dir, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Path != audioPath {
		t.Fatalf("expected small aaxc filtered as voucher, got %+v", result.Files)
	}
	if result.VoucherPath == "" {
		t.Fatal("expected voucher path recorded")
	}
}

func TestDownloadInactivityTimeout(t *testing.T) {
	exec := &stubExecutor{hook: func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	client := newClient(t, exec, audible.WithInactivityTimeout(30*time.Millisecond))

	_, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, t.TempDir(), nil)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if errors.Is(err, services.ErrLocked) || errors.Is(err, services.ErrUnavailable) {
		t.Fatal("timeout must stay distinct from locked/unavailable")
	}
}

func TestDownloadProcessFailureWithoutMarkers(t *testing.T) {
	exec := &stubExecutor{err: errors.New("exit status 2")}
	client := newClient(t, exec)

	_, err := client.Download(context.Background(), "alice", "B001", audible.KindAudio, t.TempDir(), nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestDownloadRejectsUnknownKind(t *testing.T) {
	client := newClient(t, &stubExecutor{})
	if _, err := client.Download(context.Background(), "a", "B001", audible.ContentKind("video"), t.TempDir(), nil); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
