// Package offset turns accepted alignment matches into a continuous
// offset function Δ(t): weighting, outlier rejection, and the
// uniform-vs-interpolated mode decision (spec §4.G).
package offset

import (
	"math"
	"sort"
)

// Point is one (time, delta, weight) offset measurement.
type Point struct {
	Time   float64
	Delta  float64
	Weight float64 // similarity; invariant Weight > 0
}

// Mode records which shape Δ(t) takes.
type Mode int

const (
	ModeUniform Mode = iota
	ModeInterpolated
)

func (m Mode) String() string {
	if m == ModeUniform {
		return "uniform"
	}
	return "interpolated"
}

// Result is the fitted offset function plus the diagnostics the
// report needs.
type Result struct {
	Mode     Mode
	Mean     float64 // weighted mean delta (always computed)
	Variance float64 // weighted variance (sigma^2)
	Points   []Point // surviving points, sorted by time
	Rejected int     // points dropped by outlier rejection
}

// Delta evaluates Δ(t). Outside the surviving points' time range it
// is flat-extrapolated from the nearest boundary point; in uniform
// mode it is the constant weighted mean everywhere.
func (r *Result) Delta(t float64) float64 {
	if r.Mode == ModeUniform || len(r.Points) == 0 {
		return r.Mean
	}
	pts := r.Points
	if t <= pts[0].Time {
		return pts[0].Delta
	}
	if t >= pts[len(pts)-1].Time {
		return pts[len(pts)-1].Delta
	}
	for i := 1; i < len(pts); i++ {
		if t <= pts[i].Time {
			a, b := pts[i-1], pts[i]
			if b.Time == a.Time {
				return a.Delta
			}
			ratio := (t - a.Time) / (b.Time - a.Time)
			return a.Delta + ratio*(b.Delta-a.Delta)
		}
	}
	return pts[len(pts)-1].Delta
}

// Estimate builds Δ(t) from a set of offset points following spec
// §4.G steps 1-3. The result is identical for any permutation of
// points.
func Estimate(points []Point) Result {
	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Time < pts[j].Time })

	survivors, rejected := rejectOutliers(pts)

	mean, variance := weightedMeanAndVariance(survivors)

	mode := ModeUniform
	if variance > 1.5*1.5 && len(survivors) >= 2 {
		mode = ModeInterpolated
	}

	return Result{
		Mode:     mode,
		Mean:     mean,
		Variance: variance,
		Points:   survivors,
		Rejected: rejected,
	}
}

// rejectOutliers applies spec §4.G step 2: with <=3 points, keep all;
// otherwise reject points whose delta deviates from the median by more
// than max(2.5*MAD, 1.5s), unless that would drop more than 40% of
// points, in which case rejection is aborted.
func rejectOutliers(pts []Point) (survivors []Point, rejected int) {
	if len(pts) <= 3 {
		return pts, 0
	}

	deltas := make([]float64, len(pts))
	for i, p := range pts {
		deltas[i] = p.Delta
	}
	med := median(deltas)

	absDevs := make([]float64, len(deltas))
	for i, d := range deltas {
		absDevs[i] = math.Abs(d - med)
	}
	mad := median(absDevs)

	threshold := 2.5 * mad
	if threshold < 1.5 {
		threshold = 1.5
	}

	var kept []Point
	for _, p := range pts {
		if math.Abs(p.Delta-med) <= threshold {
			kept = append(kept, p)
		}
	}

	if len(pts)-len(kept) > int(0.4*float64(len(pts))) {
		return pts, 0
	}
	return kept, len(pts) - len(kept)
}

func weightedMeanAndVariance(pts []Point) (mean, variance float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	var sumW, sumWD float64
	for _, p := range pts {
		sumW += p.Weight
		sumWD += p.Weight * p.Delta
	}
	if sumW == 0 {
		return 0, 0
	}
	mean = sumWD / sumW

	var sumWSq float64
	for _, p := range pts {
		d := p.Delta - mean
		sumWSq += p.Weight * d * d
	}
	variance = sumWSq / sumW
	return mean, variance
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
