package sun

import (
	"math"
	"time"

	"github.com/thurmanmarka/duskgrid/internal/timeutil"
)

// Position is the Sun's geocentric equatorial position, in radians.
type Position struct {
	RA  float64 // right ascension, [0, 2π)
	Dec float64 // declination
}

// orbit holds the Sun's low-precision mean elements, in radians, for a day
// number counted from J2000.0.
type orbit struct {
	anomaly   float64
	longitude float64
	obliquity float64
}

func orbitAt(d float64) orbit {
	return orbit{
		anomaly:   timeutil.Deg2Rad(357.529 + 0.98560028*d),
		longitude: timeutil.Deg2Rad(280.459 + 0.98564736*d),
		obliquity: timeutil.Deg2Rad(23.439 - 0.00000036*d),
	}
}

// eclipticLongitude is the mean longitude plus the equation of center.
func (o orbit) eclipticLongitude() float64 {
	center := 1.915*math.Sin(o.anomaly) + 0.020*math.Sin(2*o.anomaly)
	return o.longitude + timeutil.Deg2Rad(center)
}

// PositionAt returns the Sun's position at t, good to about an arcminute
// for present-day dates.
func PositionAt(t time.Time) Position {
	o := orbitAt(timeutil.DaysSinceJ2000(t))
	sinL, cosL := math.Sincos(o.eclipticLongitude())

	ra := math.Atan2(math.Cos(o.obliquity)*sinL, cosL)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	return Position{
		RA:  ra,
		Dec: math.Asin(math.Sin(o.obliquity) * sinL),
	}
}

// SiderealAngle returns the local mean sidereal time at longitude lon
// (degrees, east positive) as an angle in radians, [0, 2π).
func SiderealAngle(lon float64, t time.Time) float64 {
	d := timeutil.DaysSinceJ2000(t)
	return timeutil.Deg2Rad(timeutil.Normalize360(280.46061837 + 360.98564736629*d + lon))
}
