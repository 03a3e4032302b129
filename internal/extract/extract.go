// Package extract implements the Audio Extraction Adapter (spec §4.D):
// a thin contract over a demuxer that yields a preprocessed 16kHz mono
// PCM segment from a media file starting at t_start for D seconds.
package extract

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"

	"subsync/internal/errs"
)

// SampleRate is the PCM sample rate produced by Extract (spec §4.D).
const SampleRate = 16000

// PCM is a mono, 16kHz, preprocessed audio segment.
type PCM struct {
	Samples []float32 // range [-1, 1]
}

// Extractor is the capability any media backend must satisfy.
type Extractor interface {
	Extract(ctx context.Context, path string, startSec, durationSec float64) (PCM, error)
}

// FFmpegExtractor shells out to ffmpeg, matching the teacher's own
// demux approach (internal/asr/silence.go's detectSpeechBlocksBySilence).
type FFmpegExtractor struct {
	// Binary overrides the ffmpeg executable name, for tests.
	Binary string
}

// Extract runs ffmpeg to decode [startSec, startSec+durationSec) of
// path to raw signed 16-bit little-endian mono PCM at SampleRate, then
// applies the fixed preprocessing chain from spec §4.D.
func (e FFmpegExtractor) Extract(ctx context.Context, path string, startSec, durationSec float64) (PCM, error) {
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-ac", "1",
		"-loglevel", "error",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return PCM{}, &errs.ExtractionFailed{Path: path, Start: startSec, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return PCM{}, &errs.ExtractionFailed{Path: path, Start: startSec, Err: err}
	}

	raw, readErr := decodePCM16(stdout)
	waitErr := cmd.Wait()
	if readErr != nil {
		return PCM{}, &errs.ExtractionFailed{Path: path, Start: startSec, Err: readErr}
	}
	if waitErr != nil {
		return PCM{}, &errs.ExtractionFailed{Path: path, Start: startSec, Err: waitErr}
	}
	if len(raw) == 0 {
		return PCM{}, &errs.ExtractionFailed{Path: path, Start: startSec, Err: fmt.Errorf("empty PCM output")}
	}

	pcm := PCM{Samples: raw}
	Preprocess(&pcm)
	return pcm, nil
}

func decodePCM16(r io.Reader) ([]float32, error) {
	br := bufio.NewReader(r)
	var out []float32
	buf := make([]byte, 2)
	for {
		_, err := io.ReadFull(br, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, err
		}
		sample := int16(binary.LittleEndian.Uint16(buf))
		out = append(out, float32(sample)/32768.0)
	}
	return out, nil
}

// ExtractWithRetry wraps an Extractor with the spec §4.D retry policy:
// on failure, retry exactly once at a different candidate start time
// from fallbackStarts (excluding startSec), chosen by pickFallback; a
// nil pickFallback takes the first remaining candidate.
func ExtractWithRetry(ctx context.Context, e Extractor, path string, startSec, durationSec float64, fallbackStarts []float64, pickFallback func([]float64) float64) (PCM, error) {
	pcm, err := e.Extract(ctx, path, startSec, durationSec)
	if err == nil {
		return pcm, nil
	}

	alt := pickAlternate(fallbackStarts, startSec, pickFallback)
	if alt < 0 {
		return PCM{}, err
	}
	return e.Extract(ctx, path, alt, durationSec)
}

func pickAlternate(candidates []float64, exclude float64, pick func([]float64) float64) float64 {
	var filtered []float64
	for _, c := range candidates {
		if c != exclude {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return -1
	}
	if pick == nil {
		return filtered[0]
	}
	return pick(filtered)
}

// Preprocess applies the fixed chain from spec §4.D in order: a
// one-pole high-pass filter (~80Hz), loudness normalization to a
// target RMS level, spectral-floor noise suppression, a hard-knee
// compander, and a hard peak limiter. Operates in place.
func Preprocess(pcm *PCM) {
	highPass(pcm.Samples, 80, SampleRate)
	normalizeLoudness(pcm.Samples, -16)
	suppressNoiseFloor(pcm.Samples)
	compand(pcm.Samples)
	limit(pcm.Samples, 0.98)
}

// highPass applies a one-pole RC high-pass filter with the given
// cutoff frequency.
func highPass(samples []float32, cutoffHz, sampleRate float64) {
	if len(samples) == 0 {
		return
	}
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	dt := 1.0 / sampleRate
	alpha := rc / (rc + dt)

	prevIn := float64(samples[0])
	prevOut := 0.0
	for i, s := range samples {
		in := float64(s)
		out := alpha * (prevOut + in - prevIn)
		samples[i] = float32(out)
		prevIn = in
		prevOut = out
	}
}

// normalizeLoudness scales samples so their RMS level matches
// targetDB (dBFS, e.g. -16 as an integrated-loudness approximation).
func normalizeLoudness(samples []float32, targetDB float64) {
	rms := rmsLevel(samples)
	if rms <= 1e-9 {
		return
	}
	targetRMS := math.Pow(10, targetDB/20)
	gain := targetRMS / rms
	for i, s := range samples {
		samples[i] = float32(float64(s) * gain)
	}
}

func rmsLevel(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// suppressNoiseFloor scales by 0.3 every 30ms frame whose RMS is at
// most 1.5x an estimated noise floor (the 10th percentile of frame
// RMS), approximating spectral noise suppression without a full FFT
// pipeline.
func suppressNoiseFloor(samples []float32) {
	const frameSize = 480 // 30ms at 16kHz
	if len(samples) < frameSize {
		return
	}

	var frameRMS []float64
	for i := 0; i+frameSize <= len(samples); i += frameSize {
		frameRMS = append(frameRMS, rmsLevel(samples[i:i+frameSize]))
	}
	if len(frameRMS) == 0 {
		return
	}
	floor := percentile(frameRMS, 0.1)
	if floor <= 0 {
		return
	}

	for i := 0; i+frameSize <= len(samples); i += frameSize {
		frame := samples[i : i+frameSize]
		if rmsLevel(frame) <= floor*1.5 {
			for j := range frame {
				frame[j] *= 0.3
			}
		}
	}
}

func percentile(xs []float64, p float64) float64 {
	sorted := append([]float64(nil), xs...)
	sortFloat64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func sortFloat64s(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// compand applies a gentle hard-knee compander: samples above the
// knee are compressed toward it with a fixed ratio.
func compand(samples []float32) {
	const knee = 0.5
	const ratio = 2.0
	for i, s := range samples {
		abs := math.Abs(float64(s))
		if abs <= knee {
			continue
		}
		over := abs - knee
		compressed := knee + over/ratio
		sign := 1.0
		if s < 0 {
			sign = -1.0
		}
		samples[i] = float32(sign * compressed)
	}
}

// limit hard-clips samples to +/-ceiling, the final peak limiter stage.
func limit(samples []float32, ceiling float32) {
	for i, s := range samples {
		if s > ceiling {
			samples[i] = ceiling
		} else if s < -ceiling {
			samples[i] = -ceiling
		}
	}
}
