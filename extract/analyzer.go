package extract

import (
	"fmt"
	"math"

	"github.com/stemforge/stemscan/algorithms/temporal"
	"github.com/stemforge/stemscan/algorithms/tonal"
	"github.com/stemforge/stemscan/audio"
	"github.com/stemforge/stemscan/logging"
)

// AnalyzerConfig gathers the parameters of every component of the extraction
// pipeline
type AnalyzerConfig struct {
	Energy     temporal.EnergyLocatorParams `json:"energy"`
	Hits       HitFinderParams              `json:"hits"`
	Classifier ClassifierParams             `json:"classifier"`
	Features   FeatureExtractorParams       `json:"features"`
	Structure  StructureParams              `json:"structure"`
	Pitch      PitchParams                  `json:"pitch"`

	// HeuristicLoopConfidence is assigned to loops found by the onset-density
	// heuristic, which carries no similarity evidence of its own.
	HeuristicLoopConfidence float64 `json:"heuristic_loop_confidence"`

	// LoopOverlapDedupe is the fraction of the shorter loop's length at which
	// two overlapping loop candidates are considered duplicates.
	LoopOverlapDedupe float64 `json:"loop_overlap_dedupe"`
}

// PitchParams is the sample-rate-independent subset of YIN parameters; the
// analyzer fills in the sample rate of whatever buffer it is handed.
type PitchParams struct {
	Threshold     float64 `json:"threshold"`
	MinConfidence float64 `json:"min_confidence"`
	MinFreq       float64 `json:"min_freq"`
	MaxFreq       float64 `json:"max_freq"`
}

// DefaultAnalyzerConfig returns the default pipeline configuration
func DefaultAnalyzerConfig() *AnalyzerConfig {
	pitchDefaults := tonal.DefaultPitchDetectorParams(0)

	return &AnalyzerConfig{
		Energy:     temporal.DefaultEnergyLocatorParams(),
		Hits:       DefaultHitFinderParams(),
		Classifier: DefaultClassifierParams(),
		Features:   DefaultFeatureExtractorParams(),
		Structure:  DefaultStructureParams(),
		Pitch: PitchParams{
			Threshold:     pitchDefaults.Threshold,
			MinConfidence: pitchDefaults.MinConfidence,
			MinFreq:       pitchDefaults.MinFreq,
			MaxFreq:       pitchDefaults.MaxFreq,
		},
		HeuristicLoopConfidence: 0.6,
		LoopOverlapDedupe:       0.5,
	}
}

// StemAnalysis is everything the pipeline exposes to the orchestrating
// export/GUI layer for one stem
type StemAnalysis struct {
	Stem         StemType          `json:"stem"`
	Tempo        float64           `json:"tempo"`
	EnergyOnset  float64           `json:"energy_onset"` // Start of the loudest sustained section, seconds
	Samples      []ExtractedSample `json:"samples"`
	Hits         []ClassifiedHit   `json:"hits,omitempty"`
	Patterns     []DetectedPattern `json:"patterns,omitempty"`
	NoveltyPeaks []NoveltyPeak     `json:"novelty_peaks,omitempty"`
}

// Analyzer is the explicit context object of the extraction core. It owns
// the component instances (and through them the FFT resources); every call
// is a pure function of the buffer and parameters, so one Analyzer may be
// used across stems, or several may run concurrently.
type Analyzer struct {
	config     *AnalyzerConfig
	locator    *temporal.EnergyLocator
	finder     *HitFinder
	classifier *Classifier
	features   *FeatureExtractor
	structure  *StructureAnalyzer
	logger     logging.Logger
}

// NewAnalyzer creates an analyzer; a nil config selects the defaults
func NewAnalyzer(config *AnalyzerConfig) *Analyzer {
	if config == nil {
		config = DefaultAnalyzerConfig()
	}

	return &Analyzer{
		config:     config,
		locator:    temporal.NewEnergyLocatorWithParams(config.Energy),
		finder:     NewHitFinderWithParams(config.Hits),
		classifier: NewClassifierWithParams(config.Classifier),
		features:   NewFeatureExtractorWithParams(config.Features),
		structure:  NewStructureAnalyzerWithParams(config.Structure),
		logger: logging.WithFields(logging.Fields{
			"component": "stem_analyzer",
		}),
	}
}

// AnalyzeStem runs the full extraction pipeline over one decoded stem:
// energy onset location, hit extraction and classification, loop discovery
// by onset density and by self-similarity, novelty-based fill discovery, and
// pitch annotation for tonal stems.
//
// The onset list and BPM come from the external onset/tempo tracker; onsets
// may be unsorted and contain duplicates.
func (a *Analyzer) AnalyzeStem(buf *audio.Buffer, stem StemType, sourceRef string, onsets []float64, bpm float64) (*StemAnalysis, error) {
	if buf == nil || len(buf.PCM) == 0 {
		return nil, fmt.Errorf("stem buffer is empty")
	}
	if bpm <= 0 {
		return nil, fmt.Errorf("tempo must be positive, got %f", bpm)
	}

	logger := a.logger.WithFields(logging.Fields{
		"stem":   string(stem),
		"bpm":    bpm,
		"onsets": len(onsets),
	})
	logger.Debug("starting stem analysis")

	duration := buf.Seconds()
	sorted := SanitizeOnsets(onsets)
	energyOnset := a.locator.Locate(buf)

	result := &StemAnalysis{
		Stem:        stem,
		Tempo:       bpm,
		EnergyOnset: energyOnset,
		Samples:     make([]ExtractedSample, 0),
	}

	// Hit path: prefer isolation-qualified hits, fall back to the capped
	// emission policy when the material is too dense for isolation.
	filtered := onsetsFrom(sorted, energyOnset)
	hitRanges := a.finder.FindIsolated(filtered, duration)
	if len(hitRanges) == 0 {
		hitRanges = a.finder.EmitHits(sorted, energyOnset)
	}
	if len(hitRanges) > a.config.Hits.MaxHits {
		hitRanges = hitRanges[:a.config.Hits.MaxHits]
	}

	if stem.IsDrums() {
		result.Hits = a.classifier.ClassifyAll(buf, hitRanges)
		result.Samples = append(result.Samples, a.drumHitSamples(stem, sourceRef, bpm, result.Hits)...)
	} else {
		result.Samples = append(result.Samples, a.tonalHitSamples(buf, stem, sourceRef, bpm, hitRanges)...)
	}

	// Structure path: beat grid from the quantized energy onset
	secondsPerBeat := 60.0 / bpm
	beats := beatGrid(energyOnset, duration, secondsPerBeat)
	if len(beats) >= 2 {
		series := a.features.ExtractSeries(buf, beats)
		matrix := a.structure.SimilarityMatrix(series)
		result.Patterns = a.structure.FindRepeatingPatterns(matrix)
		result.NoveltyPeaks = a.structure.FindNoveltyPeaks(a.structure.NoveltyCurve(series))
	}

	// Loop candidates from both discovery strategies, merged and ranked
	loops := a.mergeLoopCandidates(stem, sourceRef, bpm, duration, beats, result.Patterns, sorted, energyOnset)
	result.Samples = append(result.Samples, loops...)

	// Fill candidates from novelty peaks
	result.Samples = append(result.Samples, a.fillSamples(stem, sourceRef, bpm, duration, beats, result.NoveltyPeaks)...)

	logger.Debug("stem analysis complete", logging.Fields{
		"samples":  len(result.Samples),
		"hits":     len(result.Hits),
		"patterns": len(result.Patterns),
	})

	return result, nil
}

// DetectPitch evaluates the fundamental pitch of an arbitrary time range of
// the buffer. Returns nil when the range is judged atonal.
func (a *Analyzer) DetectPitch(buf *audio.Buffer, tr TimeRange) *tonal.PitchResult {
	params := tonal.DefaultPitchDetectorParams(buf.SampleRate)
	params.Threshold = a.config.Pitch.Threshold
	params.MinConfidence = a.config.Pitch.MinConfidence
	params.MinFreq = a.config.Pitch.MinFreq
	params.MaxFreq = a.config.Pitch.MaxFreq

	detector := tonal.NewPitchDetectorWithParams(params)
	return detector.Detect(buf.SliceSeconds(tr.Start, tr.End))
}

// drumHitSamples converts classified drum hits into one-shot samples named
// by drum type
func (a *Analyzer) drumHitSamples(stem StemType, sourceRef string, bpm float64, hits []ClassifiedHit) []ExtractedSample {
	samples := make([]ExtractedSample, 0, len(hits))

	for i, ch := range hits {
		samples = append(samples, ExtractedSample{
			Name:       fmt.Sprintf("%s_%s_%02d", stem, ch.DrumType, i+1),
			Category:   CategoryHit,
			Stem:       stem,
			StartTime:  ch.Hit.StartTime,
			EndTime:    ch.Hit.StartTime + ch.Hit.Duration,
			Duration:   ch.Hit.Duration,
			Confidence: ch.Confidence,
			Tempo:      bpm,
			SourceRef:  sourceRef,
		})
	}

	return samples
}

// tonalHitSamples converts hit ranges on a tonal stem into one-shot samples
// named by detected note. Ranges judged atonal are dropped.
func (a *Analyzer) tonalHitSamples(buf *audio.Buffer, stem StemType, sourceRef string, bpm float64, hits []IsolatedHit) []ExtractedSample {
	samples := make([]ExtractedSample, 0, len(hits))

	for _, hit := range hits {
		tr := TimeRange{Start: hit.StartTime, End: hit.StartTime + hit.Duration}
		pitch := a.DetectPitch(buf, tr)
		if pitch == nil {
			continue
		}

		samples = append(samples, ExtractedSample{
			Name:       fmt.Sprintf("%s_%s_%02d", stem, pitch.NoteName, len(samples)+1),
			Category:   CategoryHit,
			Stem:       stem,
			StartTime:  hit.StartTime,
			EndTime:    hit.StartTime + hit.Duration,
			Duration:   hit.Duration,
			Confidence: pitch.Confidence,
			Tempo:      bpm,
			SourceRef:  sourceRef,
		})
	}

	return samples
}

// loopCandidate is an intermediate ranking record for merge policy
type loopCandidate struct {
	sample   ExtractedSample
	mainLoop bool
	repeats  int
}

// mergeLoopCandidates reconciles the two loop-discovery strategies into one
// ranked list. Pattern-derived loops carry their average similarity as
// confidence and rank by (main-loop flag, repeat count, confidence); the
// onset-density heuristic loop joins with fixed confidence and ranks last.
// Candidates overlapping a better-ranked survivor by more than
// LoopOverlapDedupe of the shorter range are dropped as duplicates.
func (a *Analyzer) mergeLoopCandidates(stem StemType, sourceRef string, bpm, duration float64, beats []float64, patterns []DetectedPattern, onsets []float64, energyOnset float64) []ExtractedSample {
	secondsPerBeat := 60.0 / bpm
	candidates := make([]loopCandidate, 0)

	for _, p := range patterns {
		if p.StartSegment >= len(beats) {
			continue
		}
		start := beats[p.StartSegment]
		end := start + float64(p.LengthSegments)*secondsPerBeat
		if end > duration {
			end = duration
		}

		candidates = append(candidates, loopCandidate{
			sample: ExtractedSample{
				Category:   CategoryLoop,
				Stem:       stem,
				StartTime:  start,
				EndTime:    end,
				Duration:   end - start,
				BarLength:  float64(p.LengthSegments) / 4.0,
				Confidence: p.AverageSimilarity,
				Tempo:      bpm,
				SourceRef:  sourceRef,
			},
			mainLoop: p.IsMainLoop(),
			repeats:  p.RepeatCount,
		})
	}

	if tr, ok := a.finder.LoopCandidate(onsets, energyOnset, duration, bpm); ok {
		candidates = append(candidates, loopCandidate{
			sample: ExtractedSample{
				Category:   CategoryLoop,
				Stem:       stem,
				StartTime:  tr.Start,
				EndTime:    tr.End,
				Duration:   tr.Length(),
				BarLength:  a.config.Hits.LoopBars,
				Confidence: a.config.HeuristicLoopConfidence,
				Tempo:      bpm,
				SourceRef:  sourceRef,
			},
		})
	}

	// Patterns arrive pre-sorted by repeat count; main loops move to the
	// front and the heuristic candidate was appended last, so a stable pass
	// partitioning on mainLoop preserves the remaining order.
	ordered := make([]loopCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.mainLoop {
			ordered = append(ordered, c)
		}
	}
	for _, c := range candidates {
		if !c.mainLoop {
			ordered = append(ordered, c)
		}
	}

	survivors := make([]ExtractedSample, 0, len(ordered))
	for _, c := range ordered {
		if a.overlapsExisting(c.sample, survivors) {
			continue
		}
		c.sample.Name = fmt.Sprintf("%s_loop_%02d", stem, len(survivors)+1)
		survivors = append(survivors, c.sample)
	}

	return survivors
}

// overlapsExisting reports whether a candidate duplicates an already accepted
// loop: overlap exceeding LoopOverlapDedupe of the shorter range.
func (a *Analyzer) overlapsExisting(candidate ExtractedSample, accepted []ExtractedSample) bool {
	for _, s := range accepted {
		overlap := candidate.Range().OverlapSeconds(s.Range())
		shorter := math.Min(candidate.Duration, s.Duration)
		if shorter > 0 && overlap/shorter > a.config.LoopOverlapDedupe {
			return true
		}
	}
	return false
}

// fillSamples converts novelty peaks into one-bar fill candidates anchored at
// the peak's beat
func (a *Analyzer) fillSamples(stem StemType, sourceRef string, bpm, duration float64, beats []float64, peaks []NoveltyPeak) []ExtractedSample {
	secondsPerBar := 4.0 * 60.0 / bpm
	samples := make([]ExtractedSample, 0, len(peaks))

	for i, peak := range peaks {
		if peak.Segment >= len(beats) {
			continue
		}
		start := beats[peak.Segment]
		end := math.Min(start+secondsPerBar, duration)
		if end <= start {
			continue
		}

		samples = append(samples, ExtractedSample{
			Name:       fmt.Sprintf("%s_fill_%02d", stem, i+1),
			Category:   CategoryFill,
			Stem:       stem,
			StartTime:  start,
			EndTime:    end,
			Duration:   end - start,
			BarLength:  1,
			Confidence: math.Min(1.0, peak.Value),
			Tempo:      bpm,
			SourceRef:  sourceRef,
		})
	}

	return samples
}

// beatGrid builds a beat-onset sequence starting at the energy onset
// quantized to the nearest beat, covering the remaining duration
func beatGrid(energyOnset, duration, secondsPerBeat float64) []float64 {
	if secondsPerBeat <= 0 {
		return []float64{}
	}

	start := math.Round(energyOnset/secondsPerBeat) * secondsPerBeat
	if start < 0 {
		start = 0
	}

	beats := make([]float64, 0)
	for t := start; t+secondsPerBeat <= duration+1e-9; t += secondsPerBeat {
		beats = append(beats, t)
	}

	return beats
}
