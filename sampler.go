package duskgrid

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/thurmanmarka/duskgrid/internal/timeutil"
)

const (
	// DefaultSampleCount is the number of samples per day.
	DefaultSampleCount = 512

	// DefaultDayEndEpsilon, in hours, keeps the last sample short of 24:00,
	// which would duplicate 00:00 of the following day.
	DefaultDayEndEpsilon = 1.0 / 3600
)

// SamplerConfig controls how a day is sampled.
type SamplerConfig struct {
	Count         int     // samples per day, at least 1
	DayEndEpsilon float64 // hours; the last sample is at 24 - DayEndEpsilon
}

// DefaultSamplerConfig returns the default sampling of 512 samples per day.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{Count: DefaultSampleCount, DayEndEpsilon: DefaultDayEndEpsilon}
}

// DayGrid is one date's sampled local hours and the matching UTC instants.
type DayGrid struct {
	Date          civil.Date
	OffsetSeconds int
	Hours         []float64   // local hour-of-day in [0, 24)
	Instants      []time.Time // UTC
}

// SampleHours returns cfg.Count local hours evenly spaced from 0 to
// 24 - cfg.DayEndEpsilon inclusive. A single sample is at hour 0.
func SampleHours(cfg SamplerConfig) ([]float64, error) {
	if cfg.Count < 1 {
		return nil, fmt.Errorf("%w: %d samples per day", ErrEmptySample, cfg.Count)
	}
	if cfg.DayEndEpsilon < 0 || cfg.DayEndEpsilon >= 24 {
		return nil, fmt.Errorf("day end epsilon %v hours outside [0, 24)", cfg.DayEndEpsilon)
	}
	hours := make([]float64, cfg.Count)
	if cfg.Count == 1 {
		return hours, nil
	}
	end := 24 - cfg.DayEndEpsilon
	step := end / float64(cfg.Count-1)
	for i := range hours {
		hours[i] = float64(i) * step
	}
	// Pin the endpoint exactly rather than trusting i*step.
	hours[len(hours)-1] = end
	return hours, nil
}

// SampleDay samples the given local date. The UTC offset is looked up for
// this date only; each local hour h becomes the instant date 00:00 UTC + h −
// offset. The reported local hour is then re-derived from that instant by
// re-applying the same offset, so it never depends on a time zone database's
// own absolute-to-local conversion.
func SampleDay(date civil.Date, offsets OffsetSource, cfg SamplerConfig) (DayGrid, error) {
	hours, err := SampleHours(cfg)
	if err != nil {
		return DayGrid{}, err
	}
	return sampleWithHours(date, offsets, hours)
}

func sampleWithHours(date civil.Date, offsets OffsetSource, hours []float64) (DayGrid, error) {
	offset, err := offsetFor(offsets, date)
	if err != nil {
		return DayGrid{}, err
	}
	origin := timeutil.MidnightUTC(date)
	grid := DayGrid{
		Date:          date,
		OffsetSeconds: int(offset / time.Second),
		Hours:         make([]float64, len(hours)),
		Instants:      make([]time.Time, len(hours)),
	}
	for i, h := range hours {
		instant := origin.Add(timeutil.HoursToDuration(h) - offset)
		grid.Instants[i] = instant
		grid.Hours[i] = timeutil.Normalize24(timeutil.HoursSinceMidnight(origin, instant.Add(offset)))
	}
	return grid, nil
}

// localHour re-derives the local hour of an instant on the grid's date.
func (g DayGrid) localHour(t time.Time) float64 {
	offset := time.Duration(g.OffsetSeconds) * time.Second
	return timeutil.Normalize24(timeutil.HoursSinceMidnight(timeutil.MidnightUTC(g.Date), t.Add(offset)))
}
