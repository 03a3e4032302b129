package samplecache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// MediaHash returns a content hash for the file at path, used as the
// cache's media identity so a renamed or relocated file still hits
// its prior transcripts.
func MediaHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
