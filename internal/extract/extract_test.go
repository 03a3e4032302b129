package extract

import (
	"math"
	"testing"
)

func TestLimitClampsPeaks(t *testing.T) {
	samples := []float32{1.5, -1.5, 0.2}
	limit(samples, 0.98)
	if samples[0] != 0.98 || samples[1] != -0.98 {
		t.Fatalf("limiter did not clamp: %v", samples)
	}
	if samples[2] != 0.2 {
		t.Fatalf("limiter altered an in-range sample: %v", samples[2])
	}
}

func TestNormalizeLoudnessRaisesQuietSignal(t *testing.T) {
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = float32(0.01 * math.Sin(float64(i)/10))
	}
	before := rmsLevel(samples)
	normalizeLoudness(samples, -16)
	after := rmsLevel(samples)
	if after <= before {
		t.Fatalf("expected loudness normalization to raise RMS: before=%v after=%v", before, after)
	}
}

func TestHighPassRemovesDC(t *testing.T) {
	samples := make([]float32, 4800)
	for i := range samples {
		samples[i] = 0.5 // pure DC offset
	}
	highPass(samples, 80, SampleRate)
	tail := samples[len(samples)-100:]
	var sum float64
	for _, s := range tail {
		sum += float64(s)
	}
	mean := sum / float64(len(tail))
	if math.Abs(mean) > 0.05 {
		t.Errorf("high-pass left significant DC offset: mean=%v", mean)
	}
}

func TestPreprocessProducesBoundedOutput(t *testing.T) {
	samples := make([]float32, 16000)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(float64(i)/5))
	}
	pcm := PCM{Samples: samples}
	Preprocess(&pcm)
	for _, s := range pcm.Samples {
		if s > 1 || s < -1 {
			t.Fatalf("preprocessed sample out of range: %v", s)
		}
	}
}
