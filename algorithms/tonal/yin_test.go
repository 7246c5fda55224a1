package tonal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 44100

func sineWave(freq float64, sampleRate, length int) []float64 {
	signal := make([]float64, length)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return signal
}

func TestDetectSine440(t *testing.T) {
	detector := NewPitchDetector(testSampleRate)

	result := detector.Detect(sineWave(440.0, testSampleRate, 4096))
	require.NotNil(t, result, "440 Hz sine must be detected as tonal")

	assert.InEpsilon(t, 440.0, result.Frequency, 0.01, "frequency within 1%")
	assert.Equal(t, "A4", result.NoteName)
	assert.Equal(t, 69, result.NoteIndex)
	assert.GreaterOrEqual(t, result.Confidence, 0.4)
	assert.LessOrEqual(t, math.Abs(result.CentsOffset), 50.0)
}

func TestDetectLowAndHighTones(t *testing.T) {
	detector := NewPitchDetector(testSampleRate)

	low := detector.Detect(sineWave(82.4, testSampleRate, 4096)) // E2
	require.NotNil(t, low)
	assert.InEpsilon(t, 82.4, low.Frequency, 0.02)
	assert.Equal(t, "E2", low.NoteName)

	high := detector.Detect(sineWave(1318.5, testSampleRate, 4096)) // E6
	require.NotNil(t, high)
	assert.InEpsilon(t, 1318.5, high.Frequency, 0.02)
	assert.Equal(t, "E6", high.NoteName)
}

func TestDetectRejectsWhiteNoise(t *testing.T) {
	detector := NewPitchDetector(testSampleRate)
	rng := rand.New(rand.NewSource(42))

	trials := 40
	rejected := 0
	for range trials {
		noise := make([]float64, 4096)
		for i := range noise {
			noise[i] = rng.Float64()*2 - 1
		}
		if detector.Detect(noise) == nil {
			rejected++
		}
	}

	// Reject-rate must be at least 95%
	assert.GreaterOrEqual(t, float64(rejected)/float64(trials), 0.95)
}

func TestDetectRejectsShortWindow(t *testing.T) {
	detector := NewPitchDetector(testSampleRate)
	assert.Nil(t, detector.Detect(sineWave(440.0, testSampleRate, 255)))
}

func TestDetectRejectsSilence(t *testing.T) {
	detector := NewPitchDetector(testSampleRate)
	assert.Nil(t, detector.Detect(make([]float64, 4096)))
}

func TestDetectDegenerateLagRange(t *testing.T) {
	// At a very low sample rate the lag floor overtakes the lag ceiling
	detector := NewPitchDetector(100)
	assert.Nil(t, detector.Detect(sineWave(50.0, 100, 1024)))
}

func TestNoteNaming(t *testing.T) {
	assert.Equal(t, "A4", NoteName(69))
	assert.Equal(t, "C4", NoteName(60))
	assert.Equal(t, "C-1", NoteName(0))
	assert.Equal(t, "G9", NoteName(127))

	assert.Equal(t, 69, NearestNoteIndex(440.0))
	assert.Equal(t, 69, NearestNoteIndex(445.0))
	assert.Equal(t, 0, NearestNoteIndex(1.0), "clamped to the lowest index")
	assert.Equal(t, 127, NearestNoteIndex(30000.0), "clamped to the highest index")

	assert.InDelta(t, 440.0, NoteFrequency(69), 1e-9)
	assert.InDelta(t, 0.0, CentsOffset(440.0, 69), 1e-9)
	assert.InDelta(t, 100.0, CentsOffset(440.0*math.Pow(2, 1.0/12.0), 69), 1e-6)
}
