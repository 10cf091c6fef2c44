package preflight_test

import (
	"os"
	"path/filepath"
	"testing"

	"bindery/internal/preflight"
	"bindery/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Audio directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s, got %+v", dir, result)
	}

	result = preflight.CheckDirectoryAccess("Audio directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing directory, got %+v", result)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = preflight.CheckDirectoryAccess("Audio directory", file)
	if result.Passed {
		t.Fatalf("expected failure for non-directory, got %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	if result := preflight.CheckFreeSpace("Volume", dir, 1); !result.Passed {
		t.Skipf("test volume has under 1 GiB free: %+v", result)
	}

	// An absurd requirement must fail on any real volume.
	result := preflight.CheckFreeSpace("Volume", dir, 1<<20)
	if result.Passed {
		t.Fatalf("expected failure for impossible requirement, got %+v", result)
	}
}

func TestRunAllReportsMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAudibleBinary("clearly-not-present-binary"))
	cfg.Preflight.MinFreeGiB = 0

	results := preflight.RunAll(cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if preflight.Passed(results) {
		t.Fatalf("expected overall failure with missing binary, got %+v", results)
	}

	found := false
	for _, result := range results {
		if result.Name == "Audible CLI" && !result.Passed {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a failed Audible CLI check, got %+v", results)
	}
}
