package tonal

import (
	"math"

	"github.com/stemforge/stemscan/algorithms/stats"
)

// PitchResult describes a detected fundamental pitch
type PitchResult struct {
	Frequency   float64 `json:"frequency"`    // Fundamental frequency in Hz
	NoteIndex   int     `json:"note_index"`   // MIDI-style semitone index (A4 = 69)
	NoteName    string  `json:"note_name"`    // e.g. "A4"
	CentsOffset float64 `json:"cents_offset"` // Deviation from exact pitch, [-50, 50]
	Confidence  float64 `json:"confidence"`   // Detection confidence (0-1)
}

// PitchDetectorParams contains parameters for YIN pitch detection
type PitchDetectorParams struct {
	SampleRate    int     `json:"sample_rate"`
	Threshold     float64 `json:"threshold"`      // CMNDF acceptance threshold
	MinLagFreq    float64 `json:"min_lag_freq"`   // Floors minimum detectable frequency
	MaxLagFreq    float64 `json:"max_lag_freq"`   // Caps maximum detectable frequency
	MinConfidence float64 `json:"min_confidence"` // Below this the window is judged atonal
	MinFreq       float64 `json:"min_freq"`       // Accept range lower bound, Hz
	MaxFreq       float64 `json:"max_freq"`       // Accept range upper bound, Hz
	MaxWindowSize int     `json:"max_window_size"`
	MinWindowSize int     `json:"min_window_size"`
}

// DefaultPitchDetectorParams returns default YIN parameters for the given
// sample rate
func DefaultPitchDetectorParams(sampleRate int) PitchDetectorParams {
	return PitchDetectorParams{
		SampleRate:    sampleRate,
		Threshold:     0.15,
		MinLagFreq:    50.0,
		MaxLagFreq:    2000.0,
		MinConfidence: 0.4,
		MinFreq:       20.0,
		MaxFreq:       4000.0,
		MaxWindowSize: 4096,
		MinWindowSize: 256,
	}
}

// PitchDetector estimates the fundamental frequency of a bounded window of
// mono audio using the YIN algorithm.
//
// Reference: de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental
// frequency estimator for speech and music"
type PitchDetector struct {
	params PitchDetectorParams
}

// NewPitchDetector creates a YIN detector with default parameters
func NewPitchDetector(sampleRate int) *PitchDetector {
	return &PitchDetector{params: DefaultPitchDetectorParams(sampleRate)}
}

// NewPitchDetectorWithParams creates a YIN detector with custom parameters
func NewPitchDetectorWithParams(params PitchDetectorParams) *PitchDetector {
	return &PitchDetector{params: params}
}

// Detect estimates the fundamental pitch of the window. It returns nil when
// the window is judged atonal: too short, degenerate lag range, confidence
// below MinConfidence, or frequency outside [MinFreq, MaxFreq]. Atonal
// windows are an expected outcome, not an error.
func (pd *PitchDetector) Detect(window []float64) *PitchResult {
	if len(window) < pd.params.MinWindowSize {
		return nil
	}

	frame := window
	if len(frame) > pd.params.MaxWindowSize {
		frame = frame[:pd.params.MaxWindowSize]
	}

	sampleRate := float64(pd.params.SampleRate)
	tauMin := int(math.Round(sampleRate / pd.params.MaxLagFreq))
	tauMax := int(math.Round(sampleRate / pd.params.MinLagFreq))
	if len(frame)/2 < tauMax {
		tauMax = len(frame) / 2
	}
	if tauMax <= tauMin || tauMin < 1 {
		return nil
	}

	cmndf := pd.cumulativeMeanNormalizedDifference(frame, tauMax)

	tau := pd.findBestLag(cmndf, tauMin, tauMax)
	if tau < 0 {
		return nil
	}

	confidence := 1.0 - cmndf[tau]
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence < pd.params.MinConfidence {
		return nil
	}

	// Sub-sample refinement; skipped at range boundaries and for degenerate
	// parabolas, where the integer lag stands.
	refined := float64(tau)
	if tau > tauMin && tau < tauMax-1 {
		if offset, ok := stats.ParabolicMinimum(cmndf[tau-1], cmndf[tau], cmndf[tau+1]); ok {
			refined += offset
		}
	}

	frequency := sampleRate / refined
	if frequency < pd.params.MinFreq || frequency > pd.params.MaxFreq {
		return nil
	}

	index := NearestNoteIndex(frequency)

	return &PitchResult{
		Frequency:   frequency,
		NoteIndex:   index,
		NoteName:    NoteName(index),
		CentsOffset: CentsOffset(frequency, index),
		Confidence:  confidence,
	}
}

// cumulativeMeanNormalizedDifference computes the YIN difference function
// d(tau) and its cumulative-mean-normalized form d'(tau) for tau in
// [0, tauMax). d'(0) is 1 by convention, and d'(tau) is 1 wherever the
// running sum of d is zero (a perfectly silent window).
func (pd *PitchDetector) cumulativeMeanNormalizedDifference(frame []float64, tauMax int) []float64 {
	diff := make([]float64, tauMax)
	for tau := 1; tau < tauMax; tau++ {
		sum := 0.0
		for j := 0; j+tau < len(frame); j++ {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	cmndf := make([]float64, tauMax)
	cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau < tauMax; tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1.0
		} else {
			cmndf[tau] = diff[tau] * float64(tau) / runningSum
		}
	}

	return cmndf
}

// findBestLag searches [tauMin, tauMax) for the first lag whose CMNDF value
// crosses below the threshold and then descends to the local minimum. When no
// lag crosses the threshold it falls back to the global minimum of the range.
// Returns -1 only for an empty search range.
func (pd *PitchDetector) findBestLag(cmndf []float64, tauMin, tauMax int) int {
	for tau := tauMin; tau < tauMax; tau++ {
		if cmndf[tau] < pd.params.Threshold {
			for tau+1 < tauMax && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			return tau
		}
	}

	best := -1
	bestVal := math.Inf(1)
	for tau := tauMin; tau < tauMax; tau++ {
		if cmndf[tau] < bestVal {
			bestVal = cmndf[tau]
			best = tau
		}
	}

	return best
}
