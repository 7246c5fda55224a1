package extract

import (
	"math"
	"sort"
)

// HitFinderParams contains parameters for onset-interval analysis
type HitFinderParams struct {
	MinGapBefore   float64 `json:"min_gap_before"`   // Required silence before an onset, seconds
	MinGapAfter    float64 `json:"min_gap_after"`    // Required silence after an onset, seconds
	MaxHitDuration float64 `json:"max_hit_duration"` // Hard cap on hit length, seconds
	MaxHits        int     `json:"max_hits"`         // Cap on emitted hits per stem
	MinLoopOnsets  int     `json:"min_loop_onsets"`  // Onset density needed to trust the loop heuristic
	LoopBars       float64 `json:"loop_bars"`        // Loop candidate length in bars
}

// DefaultHitFinderParams returns the default hit finder parameters
func DefaultHitFinderParams() HitFinderParams {
	return HitFinderParams{
		MinGapBefore:   0.3,
		MinGapAfter:    0.2,
		MaxHitDuration: 0.5,
		MaxHits:        8,
		MinLoopOnsets:  4,
		LoopBars:       2,
	}
}

// HitFinder derives hit and loop time ranges from an externally supplied
// onset sequence. Pure interval-gap logic; no DSP.
type HitFinder struct {
	params HitFinderParams
}

// NewHitFinder creates a hit finder with default parameters
func NewHitFinder() *HitFinder {
	return NewHitFinderWithParams(DefaultHitFinderParams())
}

// NewHitFinderWithParams creates a hit finder with custom parameters
func NewHitFinderWithParams(params HitFinderParams) *HitFinder {
	return &HitFinder{params: params}
}

// SanitizeOnsets sorts an onset list ascending and removes duplicates.
// External trackers may hand back unsorted lists with repeated timestamps.
func SanitizeOnsets(onsets []float64) []float64 {
	if len(onsets) == 0 {
		return []float64{}
	}

	cleaned := make([]float64, len(onsets))
	copy(cleaned, onsets)
	sort.Float64s(cleaned)

	deduped := cleaned[:1]
	for _, t := range cleaned[1:] {
		if t != deduped[len(deduped)-1] {
			deduped = append(deduped, t)
		}
	}

	return deduped
}

// FindIsolated returns the onsets surrounded by at least the configured
// silence on both sides. The first onset measures its gap from time 0, the
// last one to the total duration. Requires at least two onsets; fewer give
// no isolation context to measure.
func (hf *HitFinder) FindIsolated(onsets []float64, duration float64) []IsolatedHit {
	if len(onsets) < 2 {
		return []IsolatedHit{}
	}

	hits := make([]IsolatedHit, 0)
	for i, onset := range onsets {
		gapBefore := onset
		if i > 0 {
			gapBefore = onset - onsets[i-1]
		}

		gapAfter := duration - onset
		if i < len(onsets)-1 {
			gapAfter = onsets[i+1] - onset
		}

		if gapBefore < hf.params.MinGapBefore || gapAfter < hf.params.MinGapAfter {
			continue
		}

		hits = append(hits, IsolatedHit{
			StartTime: onset,
			Duration:  math.Min(gapAfter, hf.params.MaxHitDuration),
			GapBefore: gapBefore,
			GapAfter:  gapAfter,
		})
	}

	return hits
}

// EmitHits applies the hit emission policy: onsets at or after the energy
// onset, earliest first, capped at MaxHits. Hit duration is the gap to the
// next onset capped at MaxHitDuration; the final onset gets the full cap.
func (hf *HitFinder) EmitHits(onsets []float64, energyOnset float64) []IsolatedHit {
	filtered := onsetsFrom(onsets, energyOnset)

	if len(filtered) > hf.params.MaxHits {
		filtered = filtered[:hf.params.MaxHits]
	}

	hits := make([]IsolatedHit, len(filtered))
	for i, onset := range filtered {
		next := onset + hf.params.MaxHitDuration
		if i < len(filtered)-1 {
			next = filtered[i+1]
		}

		hits[i] = IsolatedHit{
			StartTime: onset,
			Duration:  math.Min(next-onset, hf.params.MaxHitDuration),
		}
	}

	return hits
}

// LoopCandidate applies the onset-density loop heuristic: quantize the
// energy onset to the nearest beat and, if the track still has LoopBars bars
// of audio from there and more than MinLoopOnsets onsets follow the energy
// point, emit a single loop range. Returns (TimeRange{}, false) when the
// heuristic declines.
func (hf *HitFinder) LoopCandidate(onsets []float64, energyOnset, duration, bpm float64) (TimeRange, bool) {
	if bpm <= 0 {
		return TimeRange{}, false
	}

	if len(onsetsFrom(onsets, energyOnset)) <= hf.params.MinLoopOnsets {
		return TimeRange{}, false
	}

	secondsPerBeat := 60.0 / bpm
	secondsPerBar := 4.0 * secondsPerBeat

	quantizedStart := math.Round(energyOnset/secondsPerBeat) * secondsPerBeat
	loopLength := hf.params.LoopBars * secondsPerBar

	if duration < quantizedStart+loopLength {
		return TimeRange{}, false
	}

	return TimeRange{Start: quantizedStart, End: quantizedStart + loopLength}, true
}

// onsetsFrom returns the suffix of a sorted onset list at or after t
func onsetsFrom(onsets []float64, t float64) []float64 {
	idx := sort.SearchFloat64s(onsets, t)
	return onsets[idx:]
}
