package align

import "testing"

func TestSimilarityIdentical(t *testing.T) {
	if s := Similarity("hello world", "hello world"); s != 1 {
		t.Errorf("Similarity identical = %v, want 1", s)
	}
}

func TestSimilarityCompletelyDifferent(t *testing.T) {
	s := Similarity("aaaa", "bbbb")
	if s != 0 {
		t.Errorf("Similarity totally different same length = %v, want 0", s)
	}
}

func TestSimilarityBothEmpty(t *testing.T) {
	if s := Similarity("", ""); s != 1 {
		t.Errorf("Similarity(\"\",\"\") = %v, want 1", s)
	}
}

func TestAlignAcceptsAboveThreshold(t *testing.T) {
	index := map[int]string{
		5: "this is a very long bucket of dialogue text that exceeds the minimum character threshold easily",
	}
	samples := []Sample{
		{Index: 0, StartTime: 300, Transcript: "this is a very long bucket of dialogue text that exceeds the minimum character threshold easily"},
	}
	matches := Align(samples, index, 20, 0.65, 40)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Minute != 5 {
		t.Errorf("matched minute = %d, want 5", matches[0].Minute)
	}
	if matches[0].Similarity < 0.65 {
		t.Errorf("similarity %v below threshold", matches[0].Similarity)
	}
}

func TestAlignDropsBelowThreshold(t *testing.T) {
	index := map[int]string{
		5: "this is a very long bucket of dialogue text that exceeds the minimum character threshold easily",
	}
	samples := []Sample{
		{Index: 0, StartTime: 300, Transcript: "completely unrelated gibberish that shares nothing meaningful at all with the bucket text zzz"},
	}
	matches := Align(samples, index, 20, 0.65, 40)
	if len(matches) != 0 {
		t.Fatalf("got %d matches, want 0", len(matches))
	}
}

func TestAlignIneligibleBucketRejected(t *testing.T) {
	index := map[int]string{5: "too short"}
	samples := []Sample{{Index: 0, StartTime: 300, Transcript: "too short"}}
	matches := Align(samples, index, 20, 0.5, 40)
	if len(matches) != 0 {
		t.Fatalf("got %d matches, want 0 (bucket below MinChars)", len(matches))
	}
}

func TestAlignWindowClampsAtZero(t *testing.T) {
	index := map[int]string{
		0: "this is a very long bucket of dialogue text that exceeds the minimum character threshold easily",
	}
	samples := []Sample{{Index: 0, StartTime: 10, Transcript: "this is a very long bucket of dialogue text that exceeds the minimum character threshold easily"}}
	matches := Align(samples, index, 5, 0.65, 40)
	if len(matches) != 1 || matches[0].Minute != 0 {
		t.Fatalf("expected a match at minute 0 near t=0, got %+v", matches)
	}
}
