package extract

import (
	"math"

	"github.com/stemforge/stemscan/algorithms/spectral"
	"github.com/stemforge/stemscan/algorithms/windowing"
	"github.com/stemforge/stemscan/audio"
	"github.com/stemforge/stemscan/logging"
)

// ClassifierParams contains parameters for spectral drum classification
type ClassifierParams struct {
	FFTSize    int     `json:"fft_size"`
	MinSamples int     `json:"min_samples"` // Below this a hit is unclassifiable
	LowBandHz  float64 `json:"low_band_hz"`
	MidBandHz  float64 `json:"mid_band_hz"`
	HighBandHz float64 `json:"high_band_hz"`
	TopBandHz  float64 `json:"top_band_hz"`
	AttackPeak float64 `json:"attack_peak"` // Fraction of peak that counts as "attacked"
}

// DefaultClassifierParams returns the default classifier parameters
func DefaultClassifierParams() ClassifierParams {
	return ClassifierParams{
		FFTSize:    2048,
		MinSamples: 64,
		LowBandHz:  20.0,
		MidBandHz:  200.0,
		HighBandHz: 2000.0,
		TopBandHz:  18000.0,
		AttackPeak: 0.9,
	}
}

// hitFeatures are the hand-engineered spectral features one drum hit is
// classified on
type hitFeatures struct {
	lowRatio   float64 // Fraction of band energy in 20-200 Hz
	midRatio   float64 // Fraction of band energy in 200-2000 Hz
	highRatio  float64 // Fraction of band energy in 2000-18000 Hz
	centroid   float64 // Magnitude-weighted mean frequency, Hz
	attackTime float64 // Time to reach 90% of peak amplitude, seconds
	duration   float64 // Hit length, seconds
}

// drumRule is one entry of the classification decision list. Rules are
// evaluated top to bottom and the first match wins; overlapping ranges are
// resolved by order (most specific first), never by best fit.
type drumRule struct {
	name       string
	drumType   DrumType
	matches    func(f hitFeatures) bool
	confidence func(f hitFeatures) float64
}

// fallbackConfidence is used for hits too short or too quiet to analyze
const fallbackConfidence = 0.3

func classificationRules() []drumRule {
	return []drumRule{
		{
			name:     "kick",
			drumType: DrumKick,
			matches: func(f hitFeatures) bool {
				return f.centroid < 250 && f.lowRatio > 0.45
			},
			confidence: func(f hitFeatures) float64 {
				return math.Min(1.0, f.lowRatio*1.6)
			},
		},
		{
			name:     "tom",
			drumType: DrumTom,
			matches: func(f hitFeatures) bool {
				return f.centroid < 600 && f.lowRatio > 0.28 && f.duration > 0.12
			},
			confidence: func(f hitFeatures) float64 {
				return math.Min(1.0, (f.lowRatio+f.midRatio)*0.9)
			},
		},
		{
			name:     "clap",
			drumType: DrumClap,
			matches: func(f hitFeatures) bool {
				return f.centroid > 800 && f.centroid < 3500 && f.attackTime < 0.004 && f.duration < 0.12
			},
			confidence: func(f hitFeatures) float64 { return 0.75 },
		},
		{
			name:     "rim",
			drumType: DrumRim,
			matches: func(f hitFeatures) bool {
				return f.centroid > 500 && f.centroid < 2000 && f.duration < 0.09
			},
			confidence: func(f hitFeatures) float64 { return 0.65 },
		},
		{
			name:     "snare",
			drumType: DrumSnare,
			matches: func(f hitFeatures) bool {
				return f.centroid >= 200 && f.centroid < 2000 && f.midRatio > 0.30
			},
			confidence: func(f hitFeatures) float64 {
				return math.Min(1.0, f.midRatio*1.5)
			},
		},
		{
			name:     "cymbal",
			drumType: DrumCymbal,
			matches: func(f hitFeatures) bool {
				return f.centroid > 3000 && f.duration > 0.18
			},
			confidence: func(f hitFeatures) float64 {
				return math.Min(1.0, f.highRatio*1.6)
			},
		},
		{
			name:     "hihat",
			drumType: DrumHiHat,
			matches: func(f hitFeatures) bool {
				return f.highRatio > 0.40 || f.centroid > 4000
			},
			confidence: func(f hitFeatures) float64 {
				return math.Min(1.0, f.highRatio*1.5+0.2)
			},
		},
		{
			name:       "percussion",
			drumType:   DrumPercussion,
			matches:    func(f hitFeatures) bool { return true },
			confidence: func(f hitFeatures) float64 { return 0.4 },
		},
	}
}

// Classifier labels isolated drum hits by drum type from a single spectral
// pass per hit
type Classifier struct {
	params ClassifierParams
	fft    *spectral.FFT
	window *windowing.Hann
	rules  []drumRule
	logger logging.Logger
}

// NewClassifier creates a classifier with default parameters
func NewClassifier() *Classifier {
	return NewClassifierWithParams(DefaultClassifierParams())
}

// NewClassifierWithParams creates a classifier with custom parameters
func NewClassifierWithParams(params ClassifierParams) *Classifier {
	return &Classifier{
		params: params,
		fft:    spectral.NewFFT(),
		window: windowing.NewHann(params.FFTSize),
		rules:  classificationRules(),
		logger: logging.WithFields(logging.Fields{
			"component": "drum_classifier",
		}),
	}
}

// ClassifyAll classifies every hit against the stem buffer. The buffer is
// downmixed once, not once per hit.
func (c *Classifier) ClassifyAll(buf *audio.Buffer, hits []IsolatedHit) []ClassifiedHit {
	mono := buf.Mono()
	sampleRate := buf.SampleRate

	classified := make([]ClassifiedHit, len(hits))
	for i, hit := range hits {
		classified[i] = c.classifySlice(mono, sampleRate, hit)
	}

	return classified
}

// Classify classifies a single hit against the stem buffer
func (c *Classifier) Classify(buf *audio.Buffer, hit IsolatedHit) ClassifiedHit {
	return c.classifySlice(buf.Mono(), buf.SampleRate, hit)
}

func (c *Classifier) classifySlice(mono []float64, sampleRate int, hit IsolatedHit) ClassifiedHit {
	samples := sliceSeconds(mono, sampleRate, hit.StartTime, hit.StartTime+hit.Duration)

	features, ok := c.computeFeatures(samples, sampleRate, hit.Duration)
	if !ok {
		// Insufficient signal: too short or spectrally empty
		return ClassifiedHit{Hit: hit, DrumType: DrumPercussion, Confidence: fallbackConfidence}
	}

	for _, rule := range c.rules {
		if rule.matches(features) {
			c.logger.Debug("classified hit", logging.Fields{
				"rule":     rule.name,
				"start":    hit.StartTime,
				"centroid": features.centroid,
			})
			return ClassifiedHit{
				Hit:        hit,
				DrumType:   rule.drumType,
				Confidence: rule.confidence(features),
			}
		}
	}

	// Unreachable: the last rule always matches
	return ClassifiedHit{Hit: hit, DrumType: DrumPercussion, Confidence: 0.4}
}

// computeFeatures extracts the spectral features of one hit window. Returns
// ok=false when the window is too short or carries no band energy.
func (c *Classifier) computeFeatures(samples []float64, sampleRate int, duration float64) (hitFeatures, bool) {
	if len(samples) < c.params.MinSamples {
		return hitFeatures{}, false
	}

	frame := c.window.Frame(samples)
	magnitude := c.fft.Magnitude(frame)
	bands := spectral.NewBandAnalyzer(sampleRate, c.params.FFTSize)

	lowEnergy := bands.BandEnergy(magnitude, c.params.LowBandHz, c.params.MidBandHz)
	midEnergy := bands.BandEnergy(magnitude, c.params.MidBandHz, c.params.HighBandHz)
	highEnergy := bands.BandEnergy(magnitude, c.params.HighBandHz, c.params.TopBandHz)

	total := lowEnergy + midEnergy + highEnergy
	if total == 0 {
		return hitFeatures{}, false
	}

	return hitFeatures{
		lowRatio:   lowEnergy / total,
		midRatio:   midEnergy / total,
		highRatio:  highEnergy / total,
		centroid:   bands.Centroid(magnitude, c.params.LowBandHz, c.params.TopBandHz),
		attackTime: attackTime(samples, sampleRate, c.params.AttackPeak),
		duration:   duration,
	}, true
}

// attackTime returns the time at which the signal first reaches the given
// fraction of its peak absolute amplitude
func attackTime(samples []float64, sampleRate int, peakFraction float64) float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return 0
	}

	target := peak * peakFraction
	for i, s := range samples {
		if math.Abs(s) >= target {
			return float64(i) / float64(sampleRate)
		}
	}

	return 0
}

// sliceSeconds extracts [start, end) seconds from mono samples, clamped to
// the signal bounds
func sliceSeconds(mono []float64, sampleRate int, start, end float64) []float64 {
	startIdx := int(start * float64(sampleRate))
	endIdx := int(end * float64(sampleRate))

	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(mono) {
		endIdx = len(mono)
	}
	if startIdx >= endIdx {
		return []float64{}
	}

	return mono[startIdx:endIdx]
}
