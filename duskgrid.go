// Package duskgrid computes the local-time schedule of solar illumination for
// an observer over a range of calendar dates: the Sun's altitude sampled
// across each local day, the moments of solar noon and solar midnight, and the
// twilight band (day, civil, nautical, astronomical, night) of every sample.
//
// Computer.Compute is the entry point. The stages it is built from are
// exported so they can be used on their own:
//   - ResolveDates turns an optional start date and day offsets into a date grid.
//   - SampleDay spreads local times-of-day over one date and converts them to
//     UTC instants using the offset that applies on that date.
//   - AltitudeProvider answers the Sun's altitude for a batch of instants.
//   - Classifier maps an altitude to a TwilightBand.
//   - FindExtrema and DetectWraps extract solar noon/midnight and flag the
//     days where the midnight series wraps across the day boundary.
package duskgrid

import (
	"errors"
	"fmt"
	"math"

	"cloud.google.com/go/civil"
	cerrors "cloudeng.io/errors"
)

// Coordinates represent an observer's location.
type Coordinates struct {
	Lat       float64 `json:"lat"`                 // degrees, north positive
	Lon       float64 `json:"lon"`                 // degrees, east positive (west negative, e.g. -105 for 105°W)
	Elevation float64 `json:"elevation,omitempty"` // meters above sea level (not used by the built-in model)
}

// Validate returns an error wrapping ErrInvalidLocation if the latitude is
// outside [-90, 90] or the longitude outside [-180, 180]. All problems are
// reported together.
func (c Coordinates) Validate() error {
	errs := &cerrors.M{}
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		errs.Append(fmt.Errorf("latitude %v outside [-90, 90]", c.Lat))
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		errs.Append(fmt.Errorf("longitude %v outside [-180, 180]", c.Lon))
	}
	if err := errs.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	return nil
}

var (
	// ErrInvalidRange is returned for empty or malformed date/offset input.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrEmptySample is returned when fewer than one sample per day is requested.
	ErrEmptySample = errors.New("empty sample")

	// ErrProviderFailure is matched by every *ProviderError.
	ErrProviderFailure = errors.New("altitude provider failure")

	// ErrInvalidLocation is returned when the coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")
)

// ProviderError reports that the altitude provider failed, or returned an
// unusable result, for one date. It matches ErrProviderFailure with errors.Is.
type ProviderError struct {
	Date civil.Date
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrProviderFailure, e.Date, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrProviderFailure.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailure
}
