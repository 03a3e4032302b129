// Package sync implements the Synchronizer (spec §4.I, §9): the
// explicit adaptive-threshold/multi-pass controller and the bounded
// fan-out worker pool that drives the concurrent sample stage.
package sync

import "math"

// Action is what the controller wants the orchestrator to do next.
type Action int

const (
	ActionAdaptThreshold Action = iota
	ActionRefine
	ActionEmit
	ActionFail
)

func (a Action) String() string {
	switch a {
	case ActionAdaptThreshold:
		return "adapt_threshold"
	case ActionRefine:
		return "refine"
	case ActionEmit:
		return "emit"
	default:
		return "fail"
	}
}

// Metrics summarizes one alignment+estimation pass. Variance is the
// estimator's weighted variance (sigma squared, spec §4.G step 3), not
// its square root.
type Metrics struct {
	MatchCount int
	Variance   float64
}

// Controller implements the spec §9 state machine: Initial ->
// AdaptThreshold* -> Refine? -> Emit, gated purely on
// {success_rate, variance, matches_count} so it is unit-testable
// without any I/O.
type Controller struct {
	n              int
	baseThreshold  float64
	thresholdFloor float64
	currentThresh  float64
	adaptAttempts  int
	refined        bool
}

// NewController builds a controller for N total samples and an
// initial threshold θ0. The adaptive floor is 0.40, scaled down by up
// to 0.05 when N >= 24 (spec §4.I).
func NewController(baseThreshold float64, n int) *Controller {
	floor := 0.40
	if n >= 24 {
		floor -= 0.05
	}
	return &Controller{
		n:              n,
		baseThreshold:  baseThreshold,
		thresholdFloor: floor,
		currentThresh:  baseThreshold,
	}
}

// Threshold returns the effective similarity threshold to use for the
// next (or current) alignment pass.
func (c *Controller) Threshold() float64 {
	return c.currentThresh
}

// RefineSampleCount returns the sample count for a refinement pass:
// ceil(1.5 * N).
func (c *Controller) RefineSampleCount() int {
	return int(math.Ceil(1.5 * float64(c.n)))
}

// Step examines the most recent pass's metrics and decides the next
// action, advancing internal state (threshold, attempt counters) as a
// side effect when it chooses to adapt or refine.
func (c *Controller) Step(m Metrics) Action {
	successRate := 0.0
	if c.n > 0 {
		successRate = float64(m.MatchCount) / float64(c.n)
	}

	if successRate < 0.4 && c.adaptAttempts < 2 && c.currentThresh > c.thresholdFloor {
		c.adaptAttempts++
		c.currentThresh = math.Max(c.thresholdFloor, c.baseThreshold-0.10*float64(c.adaptAttempts))
		return ActionAdaptThreshold
	}

	if !c.refined && successRate >= 0.25 && successRate <= 0.6 && m.Variance > 9.0 {
		c.refined = true
		c.currentThresh = math.Max(c.thresholdFloor, c.currentThresh-0.05)
		return ActionRefine
	}

	if m.MatchCount == 0 {
		return ActionFail
	}
	return ActionEmit
}

// ShouldKeepRefinement implements the refinement rollback rule: keep
// the refined result only if variance dropped by at least 20%.
func ShouldKeepRefinement(preVariance, postVariance float64) bool {
	if preVariance <= 0 {
		return true
	}
	improvement := (preVariance - postVariance) / preVariance
	return improvement >= 0.20
}
