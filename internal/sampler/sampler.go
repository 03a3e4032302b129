// Package sampler chooses deterministic sample start times across a
// media duration, spaced on a fixed stride so that consecutive
// samples do not overlap and each has room for a full segment.
package sampler

import "math/rand"

// Stride is the spacing between candidate sample start times, in
// seconds (spec §4.C: 5 minutes).
const Stride = 300

// SegmentDuration is the length of each extracted audio sample, in
// seconds (spec §4.C / §3 default D).
const SegmentDuration = 60

// Pick returns n sample start times drawn without replacement from
// the candidate set {k*Stride | 0 <= k*Stride+SegmentDuration <=
// durationSec}, deterministic given seed. If fewer than n candidates
// exist, all of them are returned.
func Pick(durationSec float64, n int, seed int64) []float64 {
	var candidates []float64
	for k := 0; ; k++ {
		t := float64(k) * Stride
		if t+SegmentDuration > durationSec {
			break
		}
		candidates = append(candidates, t)
	}

	if n >= len(candidates) {
		return candidates
	}

	rng := rand.New(rand.NewSource(seed))
	shuffled := append([]float64(nil), candidates...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	picked := append([]float64(nil), shuffled[:n]...)
	return picked
}
