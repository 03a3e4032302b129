package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"subsync/internal/extract"
	"subsync/internal/transcribe"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, path string, startSec, durationSec float64) (extract.PCM, error) {
	return extract.PCM{Samples: []float32{0, 0.1, -0.1, 0}}, nil
}

const fixtureSRT = `1
00:00:05,000 --> 00:00:08,000
The quick brown fox jumps over the lazy dog again today

2
00:05:05,000 --> 00:05:08,000
Second act begins as the travelers finally reach the old bridge

3
00:10:05,000 --> 00:10:08,000
Third chapter reveals a secret hidden beneath the ancient oak tree

4
00:15:05,000 --> 00:16:01,000
Fourth and final scene closes as the sun sets behind the mountains
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.srt")
	if err := os.WriteFile(path, []byte(fixtureSRT), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestSynchronizerRunProducesUniformZeroOffset(t *testing.T) {
	subPath := writeFixture(t)

	mock := &transcribe.Mock{Texts: []string{
		"The quick brown fox jumps over the lazy dog again today",
		"Second act begins as the travelers finally reach the old bridge",
		"Third chapter reveals a secret hidden beneath the ancient oak tree",
		"Fourth and final scene closes as the sun sets behind the mountains",
	}}

	s := New(Config{
		MediaPath:    "media.mp4",
		SubtitlePath: subPath,
		Samples:      4,
		Fanout:       1,
		DryRun:       true,
	}, fakeExtractor{}, mock, nil, "", nil)

	report, entries, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.SamplesAttempted != 4 {
		t.Errorf("SamplesAttempted = %d, want 4", report.SamplesAttempted)
	}
	if report.SamplesMatched != 4 {
		t.Errorf("SamplesMatched = %d, want 4 (all identical transcripts)", report.SamplesMatched)
	}
	if report.Mode != "uniform" {
		t.Errorf("Mode = %q, want uniform", report.Mode)
	}
	if report.Variance > 1e-6 {
		t.Errorf("Variance = %v, want ~0", report.Variance)
	}
	if report.MultiPassFired {
		t.Error("multi-pass should not fire when every sample matches cleanly")
	}

	if len(entries) != 4 {
		t.Fatalf("got %d rewritten entries, want 4", len(entries))
	}
	originalStarts := []float64{5, 305, 605, 905}
	for i, e := range entries {
		if e.Start != originalStarts[i] {
			t.Errorf("entries[%d].Start = %v, want %v (zero offset)", i, e.Start, originalStarts[i])
		}
	}
}

func TestSynchronizerFailsWithInsufficientMatches(t *testing.T) {
	subPath := writeFixture(t)

	mock := &transcribe.Mock{Texts: []string{
		"completely unrelated gibberish that matches nothing in the subtitle track",
		"more unrelated text with no overlap whatsoever against any bucket",
		"still nothing alike appears anywhere close to the real cue content",
		"and a fourth line that also shares no resemblance to any bucket text",
	}}

	s := New(Config{
		MediaPath:           "media.mp4",
		SubtitlePath:        subPath,
		Samples:             4,
		Fanout:              1,
		SimilarityThreshold: 0.65,
		DryRun:              true,
	}, fakeExtractor{}, mock, nil, "", nil)

	_, _, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected InsufficientMatches error")
	}
}
