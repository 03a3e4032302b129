package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveCopiesIntoSiblingBackupDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie.srt")
	if err := os.WriteFile(src, []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dest, err := Save(src, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if filepath.Dir(dest) != filepath.Join(dir, "backup") {
		t.Errorf("backup dir = %q, want %q", filepath.Dir(dest), filepath.Join(dir, "backup"))
	}
	if filepath.Ext(dest) != ".srt" {
		t.Errorf("backup extension = %q, want .srt", filepath.Ext(dest))
	}

	original, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("ReadFile(src) failed: %v", err)
	}
	copied, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile(dest) failed: %v", err)
	}
	if string(original) != string(copied) {
		t.Errorf("backup contents differ from original")
	}
}
