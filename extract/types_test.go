package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeRangeOverlap(t *testing.T) {
	a := TimeRange{Start: 0, End: 4}

	assert.InDelta(t, 2.0, a.OverlapSeconds(TimeRange{Start: 2, End: 6}), 1e-9)
	assert.InDelta(t, 2.0, TimeRange{Start: 2, End: 6}.OverlapSeconds(a), 1e-9, "commutative")
	assert.Zero(t, a.OverlapSeconds(TimeRange{Start: 4, End: 8}), "touching ranges do not overlap")
	assert.Zero(t, a.OverlapSeconds(TimeRange{Start: 10, End: 12}))
	assert.InDelta(t, 1.0, a.OverlapSeconds(TimeRange{Start: 1, End: 2}), 1e-9, "containment")
}

func TestDrumTypeString(t *testing.T) {
	assert.Equal(t, "kick", DrumKick.String())
	assert.Equal(t, "percussion", DrumPercussion.String())
	assert.Equal(t, "unknown", DrumType(99).String())
}

func TestStemTypeIsDrums(t *testing.T) {
	assert.True(t, StemDrums.IsDrums())
	assert.False(t, StemBass.IsDrums())
	assert.False(t, StemVocals.IsDrums())
	assert.False(t, StemOther.IsDrums())
}

func TestIsMainLoop(t *testing.T) {
	assert.True(t, DetectedPattern{RepeatCount: 4, LengthSegments: 2}.IsMainLoop())
	assert.False(t, DetectedPattern{RepeatCount: 3, LengthSegments: 4}.IsMainLoop())
	assert.False(t, DetectedPattern{RepeatCount: 8, LengthSegments: 1}.IsMainLoop())
}
