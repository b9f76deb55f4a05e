package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"footage/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryReadable("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1, 0); !result.Passed {
		t.Fatalf("expected one byte to fit: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, 1<<62, 0); result.Passed {
		t.Fatalf("expected exabytes not to fit: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "absent"), 1, 0); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestSameFilesystem(t *testing.T) {
	dir := t.TempDir()
	same, err := SameFilesystem(dir, dir)
	if err != nil || !same {
		t.Fatalf("expected same filesystem, got %v %v", same, err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		1 << 30: "1.0 GiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRunAll(t *testing.T) {
	if RunAll(nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
	cfg := config.Default()
	cfg.Paths.RawRoot = t.TempDir()
	cfg.Paths.StagingRoot = t.TempDir()
	cfg.Paths.FinalRoot = filepath.Join(t.TempDir(), "missing")

	results := RunAll(&cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Final root" {
		t.Fatalf("expected only final root to fail, got %+v", failed)
	}
}
