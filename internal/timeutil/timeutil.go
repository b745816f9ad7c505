package timeutil

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
)

// -----------------------------
// Calendar dates and fractional hours
// -----------------------------

// MidnightUTC returns 00:00 UTC on the given calendar date. It is the common
// origin used when converting local hours-of-day to absolute instants.
func MidnightUTC(d civil.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// HoursToDuration converts fractional hours into a duration, rounded to the
// nearest nanosecond. h can be negative or >24; callers let time.Add handle
// day rollover.
func HoursToDuration(h float64) time.Duration {
	return time.Duration(math.Round(h * float64(time.Hour)))
}

// DurationToHours converts a duration into fractional hours.
func DurationToHours(d time.Duration) float64 {
	return float64(d) / float64(time.Hour)
}

// HoursSinceMidnight returns the fractional hours between origin and t.
func HoursSinceMidnight(origin, t time.Time) float64 {
	return DurationToHours(t.Sub(origin))
}

// -----------------------------
// Time relative to J2000
// -----------------------------

// j2000 is the J2000.0 epoch: 2000-01-01 12:00:00 UTC.
var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// DaysSinceJ2000 returns the number of (UTC) days since the J2000.0 epoch.
//
// This is an approximation suitable for low/medium-precision astronomy.
// No TT/UT distinction is made.
func DaysSinceJ2000(t time.Time) float64 {
	return t.UTC().Sub(j2000).Hours() / 24.0
}

// -----------------------------
// Basic degree/radian helpers.
// -----------------------------

func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180.0
}

func Rad2Deg(r float64) float64 {
	return r * 180.0 / math.Pi
}

func Normalize360(d float64) float64 {
	d = math.Mod(d, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}

// Normalize24 wraps h into [0, 24).
func Normalize24(h float64) float64 {
	h = math.Mod(h, 24.0)
	if h < 0 {
		h += 24.0
	}
	// math.Mod of a tiny negative value can round back up to exactly 24.
	if h >= 24.0 {
		h = 0
	}
	return h
}

// ApproxRefraction returns an approximation of atmospheric refraction (in
// degrees) at a given apparent altitude altDeg (degrees) under standard
// conditions.
//
// Positive return means "add this to the geometric altitude to get apparent
// altitude". This uses a Saemundsson-style formula and is reasonably accurate
// for altitudes near the horizon and above.
//
//	R (arcmin) ≈ 1.02 / tan( (alt + 10.3 / (alt + 5.11)) in degrees )
func ApproxRefraction(altDeg float64) float64 {
	// Below -1° refraction isn't meaningfully defined for our purposes.
	if altDeg < -1.0 {
		return 0
	}

	alt := altDeg
	if alt < -0.5 {
		alt = -0.5
	}

	// (alt + 10.3/(alt+5.11)) is in degrees.
	argRad := Deg2Rad(alt + 10.3/(alt+5.11))

	t := math.Tan(argRad)
	if t == 0 {
		return 0
	}

	// Result is in arcminutes; convert to degrees.
	return (1.02 / t) / 60.0
}
