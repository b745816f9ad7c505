// Package solver locates the instant at which an altitude function crosses a
// target altitude inside a bracketing interval.
package solver

import (
	"time"
)

// AltitudeFunc returns altitude in degrees at time t. It may fail, for example
// when backed by a remote ephemeris.
type AltitudeFunc func(t time.Time) (float64, error)

// Direction describes whether the altitude is rising or setting through the
// target value.
type Direction int

const (
	// Rising means altitude is increasing through the target value.
	Rising Direction = iota
	// Setting means altitude is decreasing through the target value.
	Setting
)

// Result holds the output of an altitude crossing search.
type Result struct {
	Time time.Time // approximate time of the crossing
	OK   bool      // true if [a, b] bracketed a crossing
}

// Bisect narrows [a, b] down to tol around the instant where f crosses
// targetDeg in direction dir. The target is treated as the closed lower bound
// of the brighter side: a setting crossing goes from >= target to < target and
// a rising crossing from < target to >= target.
//
// If the endpoints do not bracket such a crossing, Result.OK is false and no
// further evaluations are made.
func Bisect(f AltitudeFunc, a, b time.Time, targetDeg float64, dir Direction, tol time.Duration) (Result, error) {
	if !a.Before(b) {
		return Result{}, nil
	}
	if tol <= 0 {
		tol = time.Second
	}

	altA, err := f(a)
	if err != nil {
		return Result{}, err
	}
	altB, err := f(b)
	if err != nil {
		return Result{}, err
	}
	altA -= targetDeg
	altB -= targetDeg

	if !hasCrossing(altA, altB, dir) {
		return Result{}, nil
	}

	for b.Sub(a) > tol {
		mid := a.Add(b.Sub(a) / 2)
		altM, err := f(mid)
		if err != nil {
			return Result{}, err
		}
		altM -= targetDeg

		if hasCrossing(altA, altM, dir) {
			b = mid
		} else {
			a = mid
			altA = altM
		}
	}

	return Result{
		Time: a.Add(b.Sub(a) / 2),
		OK:   true,
	}, nil
}

func hasCrossing(a1, a2 float64, dir Direction) bool {
	switch dir {
	case Rising:
		return a1 < 0 && a2 >= 0
	case Setting:
		return a1 >= 0 && a2 < 0
	default:
		return false
	}
}
