package duskgrid

import (
	"context"
	"time"

	"github.com/thurmanmarka/duskgrid/internal/sun"
)

// AltitudeProvider returns the Sun's altitude above the horizon, in degrees,
// for an observer at c at each of the given instants. The result must have
// one value per instant, in the same order.
//
// Providers may block (for example when backed by a remote ephemeris
// service) and should honour ctx. The computer does not retry a failing
// provider, nor does it validate the returned values unless strict
// altitudes are requested.
type AltitudeProvider interface {
	Altitudes(ctx context.Context, c Coordinates, instants []time.Time) ([]float64, error)
}

// AltitudeFunc adapts a pure altitude function to an AltitudeProvider.
type AltitudeFunc func(t time.Time, c Coordinates) float64

// Altitudes implements AltitudeProvider.
func (f AltitudeFunc) Altitudes(ctx context.Context, c Coordinates, instants []time.Time) ([]float64, error) {
	out := make([]float64, len(instants))
	for i, t := range instants {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out[i] = f(t, c)
	}
	return out, nil
}

// Model is the built-in low-precision solar model: an approximate
// geocentric solar position plus mean sidereal time, good to a few
// hundredths of a degree in altitude for present-day dates.
type Model struct {
	// Refraction adds standard atmospheric refraction near the horizon.
	Refraction bool
}

// Altitudes implements AltitudeProvider.
func (m Model) Altitudes(ctx context.Context, c Coordinates, instants []time.Time) ([]float64, error) {
	return AltitudeFunc(func(t time.Time, c Coordinates) float64 {
		return sun.Altitude(c.Lat, c.Lon, t, m.Refraction)
	}).Altitudes(ctx, c, instants)
}

// altitudeAt queries p for a single instant.
func altitudeAt(ctx context.Context, p AltitudeProvider, c Coordinates, t time.Time) (float64, error) {
	alts, err := p.Altitudes(ctx, c, []time.Time{t})
	if err != nil {
		return 0, err
	}
	if len(alts) != 1 {
		return 0, errWrongLength(len(alts), 1)
	}
	return alts[0], nil
}
