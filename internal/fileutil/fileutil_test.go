package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("writing sample file: %v", err)
	}

	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash() error = %v", err)
	}
	if got != want {
		t.Errorf("FileHash() = %v, want %v", got, want)
	}
}

func TestFileHash_MissingFile(t *testing.T) {
	if _, err := FileHash(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("FileHash() expected error for missing file")
	}
}

func TestGenerateFilenameAt(t *testing.T) {
	at := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	got := GenerateFilenameAt("SV_abc123", at)
	want := "qualtrics_data_SV_abc123_20240301150405.csv"
	if got != want {
		t.Errorf("GenerateFilenameAt() = %v, want %v", got, want)
	}
}

func TestFindLatestCSV(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		"qualtrics_data_SV_abc123_20240101000000.csv",
		"qualtrics_data_SV_abc123_20240301150405.csv",
		"qualtrics_data_SV_abc123_20230615120000.csv",
		"qualtrics_data_SV_other_20250101000000.csv",
		"qualtrics_data_SV_abc123_notimestamp.csv",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	got, err := FindLatestCSV(dir, "SV_abc123")
	if err != nil {
		t.Fatalf("FindLatestCSV() error = %v", err)
	}
	want := filepath.Join(dir, "qualtrics_data_SV_abc123_20240301150405.csv")
	if got != want {
		t.Errorf("FindLatestCSV() = %v, want %v", got, want)
	}
}

func TestFindLatestCSV_NoFiles(t *testing.T) {
	if _, err := FindLatestCSV(t.TempDir(), "SV_missing"); err == nil {
		t.Error("FindLatestCSV() expected error when no files match")
	}
}
