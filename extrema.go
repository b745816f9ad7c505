package duskgrid

import (
	"fmt"
	"math"
)

// DefaultWrapThreshold is the jump, in hours, between consecutive days'
// solar midnight above which the change is treated as a wrap across the day
// boundary (e.g. 23:50 -> 00:10) rather than a real shift. It is tuned for
// around 512 samples per day and may need adjusting for much coarser grids.
const DefaultWrapThreshold = 5.0

// Extrema holds one day's solar noon and solar midnight.
type Extrema struct {
	NoonIndex     int
	MidnightIndex int
	Noon          float64 // local hour of the highest altitude sample
	Midnight      float64 // local hour of the lowest altitude sample
}

// FindExtrema returns the local hours at which altitudes is highest and
// lowest. Ties go to the earliest sample and NaN samples are skipped; if
// every sample is NaN both extrema are at index 0. A single sample gives
// noon == midnight.
func FindExtrema(hours, altitudes []float64) (Extrema, error) {
	if len(altitudes) == 0 {
		return Extrema{}, fmt.Errorf("%w: no altitude samples", ErrEmptySample)
	}
	if len(hours) != len(altitudes) {
		return Extrema{}, fmt.Errorf("%w: %d hours for %d altitudes", ErrEmptySample, len(hours), len(altitudes))
	}
	maxIdx, minIdx := -1, -1
	for i, a := range altitudes {
		if math.IsNaN(a) {
			continue
		}
		if maxIdx < 0 || a > altitudes[maxIdx] {
			maxIdx = i
		}
		if minIdx < 0 || a < altitudes[minIdx] {
			minIdx = i
		}
	}
	if maxIdx < 0 {
		maxIdx, minIdx = 0, 0
	}
	return Extrema{
		NoonIndex:     maxIdx,
		MidnightIndex: minIdx,
		Noon:          hours[maxIdx],
		Midnight:      hours[minIdx],
	}, nil
}

// DetectWraps flags, for each index i > 0, whether series[i] differs from
// series[i-1] by more than threshold. The first element is never flagged.
// A consumer drawing the series should break the line before every flagged
// index rather than interpolate across it.
func DetectWraps(series []float64, threshold float64) []bool {
	wraps := make([]bool, len(series))
	for i := 1; i < len(series); i++ {
		wraps[i] = math.Abs(series[i]-series[i-1]) > threshold
	}
	return wraps
}

// Segment is a half-open index range [Start, End) of a series that
// contains no wrap.
type Segment struct {
	Start, End int
}

// Segments splits a series of len(wraps) values into runs separated by the
// flagged wraps.
func Segments(wraps []bool) []Segment {
	if len(wraps) == 0 {
		return nil
	}
	var segs []Segment
	start := 0
	for i := 1; i < len(wraps); i++ {
		if wraps[i] {
			segs = append(segs, Segment{Start: start, End: i})
			start = i
		}
	}
	return append(segs, Segment{Start: start, End: len(wraps)})
}
