package tonal

import (
	"fmt"
	"math"
)

// All note names in chromatic order
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

const (
	referenceFreq = 440.0 // A4
	referenceNote = 69    // MIDI index of A4
	minNoteIndex  = 0
	maxNoteIndex  = 127
)

// NearestNoteIndex converts a frequency to the nearest MIDI-style semitone
// index (A4 = 440 Hz = 69), clamped to [0, 127].
func NearestNoteIndex(frequency float64) int {
	index := int(math.Round(float64(referenceNote) + 12.0*math.Log2(frequency/referenceFreq)))
	if index < minNoteIndex {
		index = minNoteIndex
	}
	if index > maxNoteIndex {
		index = maxNoteIndex
	}
	return index
}

// NoteFrequency returns the exact equal-temperament frequency of a note index
func NoteFrequency(index int) float64 {
	return referenceFreq * math.Pow(2.0, float64(index-referenceNote)/12.0)
}

// NoteName returns a 12-tone note name with octave, e.g. "A4" for index 69
func NoteName(index int) string {
	return fmt.Sprintf("%s%d", noteNames[((index%12)+12)%12], index/12-1)
}

// CentsOffset returns the deviation of a frequency from the exact pitch of a
// note index, in cents.
func CentsOffset(frequency float64, index int) float64 {
	return 1200.0 * math.Log2(frequency/NoteFrequency(index))
}
