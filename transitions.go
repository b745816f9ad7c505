package duskgrid

import (
	"context"
	"time"

	"github.com/thurmanmarka/duskgrid/internal/solver"
)

// Transition records a change of twilight band between two consecutive
// samples of one day, e.g. sunset (Day -> Civil) or the end of astronomical
// dusk (Astronomical -> Night).
type Transition struct {
	Index   int          `json:"index"` // first sample in the new band
	From    TwilightBand `json:"from"`
	To      TwilightBand `json:"to"`
	Hour    float64      `json:"hour"`    // local hour of the crossing
	Instant time.Time    `json:"instant"` // UTC
	// Refined is set when Hour and Instant were narrowed down by bisection;
	// otherwise they are those of sample Index.
	Refined bool `json:"refined"`
}

// Darkening reports whether the sky gets darker across the transition.
func (t Transition) Darkening() bool {
	return t.To > t.From
}

// FindTransitions returns the band changes between consecutive samples of
// day, at sample resolution.
func FindTransitions(day DaySample) []Transition {
	var out []Transition
	for i := 1; i < len(day.Bands); i++ {
		if day.Bands[i] == day.Bands[i-1] {
			continue
		}
		out = append(out, Transition{
			Index:   i,
			From:    day.Bands[i-1],
			To:      day.Bands[i],
			Hour:    day.Hours[i],
			Instant: day.Instants[i],
		})
	}
	return out
}

// refineTransitions narrows each transition down to the first band boundary
// crossed between samples Index-1 and Index. Transitions that the provider
// does not bracket (e.g. a non-monotonic provider) are left unrefined.
func (c *Computer) refineTransitions(ctx context.Context, loc Coordinates, day DaySample, trs []Transition) error {
	f := func(t time.Time) (float64, error) {
		return altitudeAt(ctx, c.opts.provider, loc, t)
	}
	grid := DayGrid{Date: day.Date, OffsetSeconds: day.OffsetSeconds}
	for i := range trs {
		tr := &trs[i]
		var (
			target float64
			dir    solver.Direction
		)
		if tr.Darkening() {
			target, dir = c.classifier.LowerBound(tr.From), solver.Setting
		} else {
			target, dir = c.classifier.LowerBound(tr.From-1), solver.Rising
		}
		res, err := solver.Bisect(f, day.Instants[tr.Index-1], day.Instants[tr.Index], target, dir, c.opts.refineTolerance)
		if err != nil {
			return err
		}
		if !res.OK {
			continue
		}
		tr.Instant = res.Time
		tr.Hour = grid.localHour(res.Time)
		tr.Refined = true
	}
	return nil
}
