// Package sun implements the built-in low-precision solar altitude model.
package sun

import (
	"math"
	"time"

	"github.com/thurmanmarka/duskgrid/internal/timeutil"
)

// ApparentHorizonAltitude is the altitude (in degrees) of the Sun's center
// when the apparent upper limb is on the horizon under "standard" conditions.
const ApparentHorizonAltitude = -0.833

// Altitude computes the Sun's geometric altitude (in degrees) at geographic
// location (lat, lon) at time t, using the solar RA/Dec model and a simple
// sidereal time approximation. When refraction is set, the Saemundsson
// approximation is added for altitudes near and above the horizon.
func Altitude(lat, lon float64, t time.Time, refraction bool) float64 {
	pos := PositionAt(t)
	latRad := timeutil.Deg2Rad(lat)
	H := HourAngle(lon, t, pos)

	sinAlt := math.Sin(latRad)*math.Sin(pos.Dec) + math.Cos(latRad)*math.Cos(pos.Dec)*math.Cos(H)
	// Clamp to handle numerical noise at the poles.
	if sinAlt > 1 {
		sinAlt = 1
	} else if sinAlt < -1 {
		sinAlt = -1
	}
	geomAlt := timeutil.Rad2Deg(math.Asin(sinAlt))

	if refraction {
		return geomAlt + timeutil.ApproxRefraction(geomAlt)
	}
	return geomAlt
}

// HourAngle returns the Sun's local hour angle in radians, normalized to
// (-π, π], for longitude lon at time t given the Sun's position. Zero is the
// upper meridian transit (apparent solar noon).
func HourAngle(lon float64, t time.Time, pos Position) float64 {
	H := SiderealAngle(lon, t) - pos.RA
	for H > math.Pi {
		H -= 2 * math.Pi
	}
	for H <= -math.Pi {
		H += 2 * math.Pi
	}
	return H
}
