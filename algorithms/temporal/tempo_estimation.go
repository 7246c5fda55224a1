package temporal

import (
	"math"
	"sort"
)

// TempoEstimator derives a tempo in BPM from an onset-time sequence. It
// stands in when no external tempo tracker output is supplied.
type TempoEstimator struct {
	minBPM float64
	maxBPM float64
}

// NewTempoEstimator creates a tempo estimator folding estimates into the
// 70-180 BPM range common for loop material
func NewTempoEstimator() *TempoEstimator {
	return &TempoEstimator{minBPM: 70.0, maxBPM: 180.0}
}

// EstimateFromOnsets converts inter-onset intervals to tempo candidates,
// folds them into the estimator's BPM range by octave doubling/halving, and
// returns the median candidate. Returns 0 when the onsets carry no usable
// beat evidence.
func (te *TempoEstimator) EstimateFromOnsets(onsets []float64) float64 {
	if len(onsets) < 2 {
		return 0.0
	}

	candidates := make([]float64, 0, len(onsets)-1)
	for i := 1; i < len(onsets); i++ {
		interval := onsets[i] - onsets[i-1]
		if interval < 0.1 || interval > 2.0 {
			continue
		}

		bpm := te.foldIntoRange(60.0 / interval)
		if bpm > 0 {
			candidates = append(candidates, bpm)
		}
	}

	if len(candidates) == 0 {
		return 0.0
	}

	sort.Float64s(candidates)
	mid := len(candidates) / 2
	if len(candidates)%2 == 0 {
		return (candidates[mid-1] + candidates[mid]) / 2.0
	}
	return candidates[mid]
}

// foldIntoRange doubles or halves a tempo candidate until it lands inside
// [minBPM, maxBPM). Candidates that cannot be folded in are rejected.
func (te *TempoEstimator) foldIntoRange(bpm float64) float64 {
	if bpm <= 0 || math.IsInf(bpm, 0) || math.IsNaN(bpm) {
		return 0.0
	}

	for bpm < te.minBPM {
		bpm *= 2.0
	}
	for bpm >= te.maxBPM {
		bpm /= 2.0
	}

	if bpm < te.minBPM {
		return 0.0
	}
	return bpm
}
