// Package align implements the similarity-based search that matches
// each transcribed audio sample to the subtitle minute bucket it most
// likely corresponds to (spec §4.F).
package align

import (
	"sort"

	"subsync/internal/normalize"
)

// EarlyExitMargin is the similarity improvement the next candidate in
// proximity order must show over an already-accepted best for the
// search to continue past it (spec §4.F step 2).
const EarlyExitMargin = 0.05

// Sample is an audio sample with its transcript, ready for alignment.
type Sample struct {
	Index      int
	StartTime  float64
	Transcript string
}

// Match is an accepted alignment between a sample and a subtitle
// minute bucket.
type Match struct {
	SampleIndex     int
	SampleStartTime float64
	Minute          int
	Similarity      float64
	SubtitleText    string
	AIText          string
}

// Align finds at most one match per sample. index is the minute-bucket
// map (spec §3); window is the search half-width in minutes; threshold
// is the minimum similarity to accept; minChars is the eligibility
// floor for a bucket. Unmatched samples are dropped from the output.
func Align(samples []Sample, index map[int]string, window int, threshold float64, minChars int) []Match {
	var matches []Match
	for _, s := range samples {
		if m, ok := alignOne(s, index, window, threshold, minChars); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

func alignOne(s Sample, index map[int]string, window int, threshold float64, minChars int) (Match, bool) {
	m0 := int(s.StartTime / 60)
	aiText := normalize.Text(s.Transcript)

	candidates := candidateMinutes(index, m0, window, minChars)
	sortByProximity(candidates, m0)

	var (
		bestSim  float64 = -1
		bestM    int
		haveBest bool
	)

	for _, m := range candidates {
		sim := Similarity(aiText, index[m])
		priorBest := bestSim
		improved := !haveBest || sim > bestSim
		if improved {
			bestSim = sim
			bestM = m
			haveBest = true
		}
		// Once a match clears threshold, stop scanning farther
		// candidates unless this step still improved on the prior
		// best by at least EarlyExitMargin (spec §4.F step 2).
		if haveBest && priorBest >= threshold && sim-priorBest < EarlyExitMargin {
			break
		}
	}

	if !haveBest || bestSim < threshold {
		return Match{}, false
	}
	if len(index[bestM]) < minChars {
		return Match{}, false
	}

	return Match{
		SampleIndex:     s.Index,
		SampleStartTime: s.StartTime,
		Minute:          bestM,
		Similarity:      bestSim,
		SubtitleText:    index[bestM],
		AIText:          aiText,
	}, true
}

func candidateMinutes(index map[int]string, m0, window, minChars int) []int {
	lo := m0 - window
	if lo < 0 {
		lo = 0
	}
	hi := m0 + window

	var out []int
	for m := lo; m <= hi; m++ {
		text, ok := index[m]
		if !ok || len(text) < minChars {
			continue
		}
		out = append(out, m)
	}
	return out
}

// sortByProximity orders candidates by increasing distance from m0,
// ties broken by smaller minute first.
func sortByProximity(candidates []int, m0 int) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := abs(candidates[i]-m0), abs(candidates[j]-m0)
		if di != dj {
			return di < dj
		}
		return candidates[i] < candidates[j]
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
