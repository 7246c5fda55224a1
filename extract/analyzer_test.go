package extract

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemforge/stemscan/audio"
)

// drumTrack builds a synthetic stem: low-frequency bursts at each onset time
// over an otherwise silent track
func drumTrack(t *testing.T, sampleRate int, seconds, burstLen, freq float64, onsets []float64) *audio.Buffer {
	t.Helper()

	pcm := make([]float64, int(seconds*float64(sampleRate)))
	for _, onset := range onsets {
		start := int(onset * float64(sampleRate))
		end := start + int(burstLen*float64(sampleRate))
		if end > len(pcm) {
			end = len(pcm)
		}
		for i := start; i < end; i++ {
			pcm[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i-start)/float64(sampleRate))
		}
	}

	buf, err := audio.NewBuffer(pcm, sampleRate, 1)
	require.NoError(t, err)
	return buf
}

func steadyOnsets(start, spacing, until float64) []float64 {
	onsets := make([]float64, 0)
	for t := start; t < until; t += spacing {
		onsets = append(onsets, t)
	}
	return onsets
}

func TestAnalyzeStemDrums(t *testing.T) {
	// 120 BPM kick on every beat from t=2s
	onsets := steadyOnsets(2.0, 0.5, 16.0)
	buf := drumTrack(t, 22050, 16.0, 0.08, 60.0, onsets)

	analyzer := NewAnalyzer(nil)
	analysis, err := analyzer.AnalyzeStem(buf, StemDrums, "track.wav", onsets, 120.0)
	require.NoError(t, err)

	assert.Equal(t, StemDrums, analysis.Stem)
	assert.InDelta(t, 120.0, analysis.Tempo, 1e-9)
	assert.InDelta(t, 2.0, analysis.EnergyOnset, 0.3)

	require.Len(t, analysis.Hits, DefaultHitFinderParams().MaxHits)
	// The hit windows are gap-capped at 0.5 s, so each one carries the
	// 60 Hz burst plus its decay tail: a sustained low-frequency window
	// that reads as a tom, not a kick
	for _, hit := range analysis.Hits {
		assert.Equal(t, DrumTom, hit.DrumType)
		assert.InDelta(t, 0.5, hit.Hit.Duration, 1e-9)
	}

	require.NotEmpty(t, analysis.Patterns, "a beat-repeating track has structure")
	// Patterns sort by repeat count, so short single-beat runs outrank the
	// longer ones; the main loop just has to be present
	hasMainLoop := false
	for _, p := range analysis.Patterns {
		if p.IsMainLoop() {
			hasMainLoop = true
			break
		}
	}
	assert.True(t, hasMainLoop, "a repeating multi-beat pattern qualifies as the main loop")

	var loops, hits []ExtractedSample
	for _, s := range analysis.Samples {
		switch s.Category {
		case CategoryLoop:
			loops = append(loops, s)
		case CategoryHit:
			hits = append(hits, s)
		}
	}
	require.NotEmpty(t, loops)
	assert.Equal(t, "drums_loop_01", loops[0].Name)
	assert.InDelta(t, 2.0, loops[0].StartTime, 0.5, "primary loop anchors near the energy onset")
	require.NotEmpty(t, hits)
	assert.True(t, strings.HasPrefix(hits[0].Name, "drums_tom_"))
}

func TestAnalyzeStemLoopsDoNotDuplicate(t *testing.T) {
	onsets := steadyOnsets(2.0, 0.5, 16.0)
	buf := drumTrack(t, 22050, 16.0, 0.08, 60.0, onsets)

	analysis, err := NewAnalyzer(nil).AnalyzeStem(buf, StemDrums, "track.wav", onsets, 120.0)
	require.NoError(t, err)

	var loops []ExtractedSample
	for _, s := range analysis.Samples {
		if s.Category == CategoryLoop {
			loops = append(loops, s)
		}
	}

	dedupe := DefaultAnalyzerConfig().LoopOverlapDedupe
	for i := range loops {
		for j := i + 1; j < len(loops); j++ {
			overlap := loops[i].Range().OverlapSeconds(loops[j].Range())
			shorter := math.Min(loops[i].Duration, loops[j].Duration)
			assert.LessOrEqual(t, overlap/shorter, dedupe, "loops %d and %d are near-duplicates", i, j)
		}
	}
}

func TestAnalyzeStemTonal(t *testing.T) {
	// Sustained A2 notes a second apart
	onsets := steadyOnsets(2.0, 1.0, 14.0)
	buf := drumTrack(t, 22050, 16.0, 0.3, 110.0, onsets)

	analysis, err := NewAnalyzer(nil).AnalyzeStem(buf, StemBass, "track.wav", onsets, 120.0)
	require.NoError(t, err)

	assert.Empty(t, analysis.Hits, "drum classification only runs on drum stems")

	var noteHits []ExtractedSample
	for _, s := range analysis.Samples {
		if s.Category == CategoryHit {
			noteHits = append(noteHits, s)
		}
	}
	require.NotEmpty(t, noteHits, "pitched bursts yield note-named hits")
	for _, s := range noteHits {
		assert.Contains(t, s.Name, "A2")
		assert.GreaterOrEqual(t, s.Confidence, DefaultAnalyzerConfig().Pitch.MinConfidence)
	}
}

func TestAnalyzeStemRejectsBadInput(t *testing.T) {
	buf := drumTrack(t, 22050, 2.0, 0.08, 60.0, []float64{0.5})
	analyzer := NewAnalyzer(nil)

	_, err := analyzer.AnalyzeStem(nil, StemDrums, "x", nil, 120.0)
	assert.Error(t, err)

	empty := &audio.Buffer{SampleRate: 22050, Channels: 1}
	_, err = analyzer.AnalyzeStem(empty, StemDrums, "x", nil, 120.0)
	assert.Error(t, err)

	_, err = analyzer.AnalyzeStem(buf, StemDrums, "x", nil, 0)
	assert.Error(t, err)
	_, err = analyzer.AnalyzeStem(buf, StemDrums, "x", nil, -10)
	assert.Error(t, err)
}

func TestAnalyzeStemSilence(t *testing.T) {
	pcm := make([]float64, 22050*8)
	buf, err := audio.NewBuffer(pcm, 22050, 1)
	require.NoError(t, err)

	analysis, err := NewAnalyzer(nil).AnalyzeStem(buf, StemOther, "x", nil, 120.0)
	require.NoError(t, err)

	assert.Zero(t, analysis.EnergyOnset)
	assert.Empty(t, analysis.Samples, "silence produces no samples")
}

func TestBeatGrid(t *testing.T) {
	beats := beatGrid(2.1, 4.0, 0.5)
	require.NotEmpty(t, beats)
	assert.InDelta(t, 2.0, beats[0], 1e-9, "start quantized to the nearest beat")
	assert.InDelta(t, 3.5, beats[len(beats)-1], 1e-9, "last beat still has a full beat of audio")

	assert.Empty(t, beatGrid(0, 10, 0), "degenerate beat length")
	assert.Empty(t, beatGrid(9.9, 10, 0.5), "no room for a full beat")
}

func TestDefaultAnalyzerConfig(t *testing.T) {
	config := DefaultAnalyzerConfig()
	assert.InDelta(t, 0.6, config.HeuristicLoopConfidence, 1e-9)
	assert.InDelta(t, 0.5, config.LoopOverlapDedupe, 1e-9)
	assert.Equal(t, 8, config.Hits.MaxHits)
	assert.Equal(t, 2048, config.Classifier.FFTSize)
}
