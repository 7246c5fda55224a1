package stats

import "math"

// ParabolicMinimum fits a parabola through three equally spaced samples
// (y at x-1, x, x+1) and returns the sub-sample offset of its minimum
// relative to the center point. The offset is only meaningful for an
// interior point of a sampled curve; callers must not pass boundary samples.
//
// Returns (0, false) when the fit is degenerate (flat or near-flat
// denominator), in which case the center point itself is the best estimate.
func ParabolicMinimum(prev, center, next float64) (float64, bool) {
	denominator := prev - 2*center + next
	if math.Abs(denominator) < 1e-12 || math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return 0, false
	}

	offset := (prev - next) / (2 * denominator)
	return offset, true
}
