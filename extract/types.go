package extract

// StemType identifies which separated stem a buffer came from
type StemType string

const (
	StemDrums  StemType = "drums"
	StemBass   StemType = "bass"
	StemVocals StemType = "vocals"
	StemOther  StemType = "other"
)

// IsDrums reports whether the stem carries percussive material and should go
// through the drum classification path
func (s StemType) IsDrums() bool {
	return s == StemDrums
}

// SampleCategory describes what kind of sample region was extracted
type SampleCategory string

const (
	CategoryLoop SampleCategory = "loop"
	CategoryHit  SampleCategory = "hit"
	CategoryFill SampleCategory = "fill"
)

// TimeRange is a half-open span of seconds within a source buffer
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns the range length in seconds
func (tr TimeRange) Length() float64 {
	return tr.End - tr.Start
}

// OverlapSeconds returns the length of the intersection of two ranges
func (tr TimeRange) OverlapSeconds(other TimeRange) float64 {
	start := tr.Start
	if other.Start > start {
		start = other.Start
	}
	end := tr.End
	if other.End < end {
		end = other.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

// IsolatedHit is an onset surrounded by enough silence to stand alone as a
// one-shot sample
type IsolatedHit struct {
	StartTime float64 `json:"start_time"` // Onset time, seconds
	Duration  float64 `json:"duration"`   // Capped hit length, seconds
	GapBefore float64 `json:"gap_before"` // Silence before the onset, seconds
	GapAfter  float64 `json:"gap_after"`  // Silence after the onset, seconds
}

// DrumType is the closed set of drum classes the spectral classifier emits
type DrumType int

const (
	DrumKick DrumType = iota
	DrumSnare
	DrumHiHat
	DrumTom
	DrumClap
	DrumRim
	DrumCymbal
	DrumPercussion // Fallback when no rule matches
)

func (d DrumType) String() string {
	switch d {
	case DrumKick:
		return "kick"
	case DrumSnare:
		return "snare"
	case DrumHiHat:
		return "hihat"
	case DrumTom:
		return "tom"
	case DrumClap:
		return "clap"
	case DrumRim:
		return "rim"
	case DrumCymbal:
		return "cymbal"
	case DrumPercussion:
		return "percussion"
	default:
		return "unknown"
	}
}

// ClassifiedHit pairs an isolated hit with its drum classification
type ClassifiedHit struct {
	Hit        IsolatedHit `json:"hit"`
	DrumType   DrumType    `json:"drum_type"`
	Confidence float64     `json:"confidence"` // 0-1
}

// DetectedPattern is a repeating structural unit found in a similarity matrix
type DetectedPattern struct {
	StartSegment      int     `json:"start_segment"`
	LengthSegments    int     `json:"length_segments"`    // 1, 2 or 4
	RepeatCount       int     `json:"repeat_count"`       // >= 2
	AverageSimilarity float64 `json:"average_similarity"` // Mean block similarity across repeats
}

// IsMainLoop reports whether the pattern repeats enough, and is long enough,
// to be treated as the track's primary loop
func (p DetectedPattern) IsMainLoop() bool {
	return p.RepeatCount >= 4 && p.LengthSegments >= 2
}

// NoveltyPeak marks a probable structural change (fill or transition) at a
// segment index of a novelty curve
type NoveltyPeak struct {
	Segment int     `json:"segment"`
	Value   float64 `json:"value"`
}

// ExtractedSample is the final output unit handed to the export/GUI layer
type ExtractedSample struct {
	Name       string         `json:"name"`
	Category   SampleCategory `json:"category"`
	Stem       StemType       `json:"stem"`
	StartTime  float64        `json:"start_time"`
	EndTime    float64        `json:"end_time"`
	Duration   float64        `json:"duration"`
	BarLength  float64        `json:"bar_length,omitempty"` // Bars, for loops
	Confidence float64        `json:"confidence"`           // 0-1
	Tempo      float64        `json:"tempo"`                // BPM of the source stem
	SourceRef  string         `json:"source_ref,omitempty"` // Caller-supplied audio reference
}

// Range returns the sample's time range
func (s ExtractedSample) Range() TimeRange {
	return TimeRange{Start: s.StartTime, End: s.EndTime}
}
