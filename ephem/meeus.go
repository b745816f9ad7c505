// Package ephem provides duskgrid.AltitudeProvider implementations beyond the
// built-in model, and wrappers that add retries and memoization to any
// provider.
package ephem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/thurmanmarka/duskgrid"
	"github.com/thurmanmarka/duskgrid/internal/timeutil"
)

// deltaT is TT − UT in seconds, held constant at its early-2020s value.
const deltaT = 69.2

// Meeus computes the apparent solar position with the method of Meeus'
// Astronomical Algorithms, ch. 25 (nutation and aberration included), and
// turns it into altitude with apparent sidereal time.
type Meeus struct {
	Refraction bool
}

// Altitudes implements duskgrid.AltitudeProvider.
func (m Meeus) Altitudes(ctx context.Context, c duskgrid.Coordinates, instants []time.Time) ([]float64, error) {
	φ := unit.AngleFromDeg(c.Lat)
	// Meeus measures longitude positive west.
	ψ := unit.AngleFromDeg(-c.Lon)
	out := make([]float64, len(instants))
	for i, t := range instants {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		jd := julian.TimeToJD(t.UTC())
		α, δ := solar.ApparentEquatorial(jd + deltaT/86400)
		_, h := coord.EqToHz(α, δ, φ, ψ, sidereal.Apparent(jd))
		alt := h.Deg()
		if m.Refraction {
			alt += timeutil.ApproxRefraction(alt)
		}
		out[i] = alt
	}
	return out, nil
}

// Providers lists the names accepted by ByName.
func Providers() []string {
	return []string{"model", "meeus"}
}

// ByName returns the provider registered under name.
func ByName(name string, refraction bool) (duskgrid.AltitudeProvider, error) {
	switch strings.ToLower(name) {
	case "", "model":
		return duskgrid.Model{Refraction: refraction}, nil
	case "meeus":
		return Meeus{Refraction: refraction}, nil
	default:
		return nil, fmt.Errorf("unknown altitude provider %q (want one of %s)", name, strings.Join(Providers(), ", "))
	}
}
