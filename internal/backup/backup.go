// Package backup copies the original subtitle file aside before the
// Rewriter overwrites it in place (spec §4.H, §6: "external
// collaborator").
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Save copies path into a sibling backup/ directory with an ISO-8601
// timestamp suffix, returning the backup's path.
func Save(path string, now time.Time) (string, error) {
	dir := filepath.Join(filepath.Dir(path), "backup")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	ext := filepath.Ext(path)
	base := filepath.Base(path)
	base = base[:len(base)-len(ext)]
	stamp := now.UTC().Format("20060102T150405Z")
	dest := filepath.Join(dir, fmt.Sprintf("%s.%s%s", base, stamp, ext))

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open original for backup: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("copy to backup: %w", err)
	}
	return dest, nil
}
