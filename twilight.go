package duskgrid

import (
	"fmt"
	"math"
	"strings"
)

// TwilightBand identifies how dark the sky is for a given solar altitude.
// Bands are ordered by increasing darkness and the numeric codes are part of
// the public contract: renderers map them directly onto a brightness scale.
type TwilightBand int

const (
	// BandDay: the Sun's center is on or above the horizon.
	BandDay TwilightBand = iota
	// BandCivil: the Sun's center is between 0 and -6 degrees.
	BandCivil
	// BandNautical: between -6 and -12 degrees.
	BandNautical
	// BandAstronomical: between -12 and -18 degrees.
	BandAstronomical
	// BandNight: more than 18 degrees below the horizon.
	BandNight
)

// NumBands is the number of twilight bands.
const NumBands = 5

var bandNames = [NumBands]string{"day", "civil", "nautical", "astronomical", "night"}

func (b TwilightBand) String() string {
	if b < 0 || int(b) >= NumBands {
		return fmt.Sprintf("TwilightBand(%d)", int(b))
	}
	return bandNames[b]
}

// ParseBand returns the band with the given (case insensitive) name.
func ParseBand(name string) (TwilightBand, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, bn := range bandNames {
		if n == bn {
			return TwilightBand(i), nil
		}
	}
	return 0, fmt.Errorf("unknown twilight band %q", name)
}

// Bands returns all bands from brightest to darkest.
func Bands() []TwilightBand {
	return []TwilightBand{BandDay, BandCivil, BandNautical, BandAstronomical, BandNight}
}

// Thresholds holds the altitudes, in degrees, that separate the bands. Each
// value is the closed lower bound of the brighter band and the open upper
// bound of the darker one.
type Thresholds struct {
	Horizon      float64 `yaml:"horizon" json:"horizon"`           // Day ≥ Horizon > Civil
	Civil        float64 `yaml:"civil" json:"civil"`               // Civil ≥ Civil > Nautical
	Nautical     float64 `yaml:"nautical" json:"nautical"`         // Nautical ≥ Nautical > Astronomical
	Astronomical float64 `yaml:"astronomical" json:"astronomical"` // Astronomical ≥ Astronomical > Night
}

// DefaultThresholds returns the conventional 0/-6/-12/-18 degree thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Horizon:      0,
		Civil:        -6,
		Nautical:     -12,
		Astronomical: -18,
	}
}

// Validate checks that the thresholds are finite and strictly decreasing.
func (t Thresholds) Validate() error {
	vals := []float64{t.Horizon, t.Civil, t.Nautical, t.Astronomical}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("twilight threshold %d is not finite: %v", i, v)
		}
		if i > 0 && v >= vals[i-1] {
			return fmt.Errorf("twilight thresholds must be strictly decreasing: %v", vals)
		}
	}
	return nil
}

type bandInterval struct {
	band      TwilightBand
	low, high float64 // [low, high)
	unbounded bool    // no upper bound
}

// Classifier maps altitudes to twilight bands. It is immutable once created
// and safe for concurrent use. Use NewClassifier to create one.
type Classifier struct {
	primary    [4]bandInterval
	nightBelow float64
}

// NewClassifier returns a Classifier for the given thresholds.
func NewClassifier(t Thresholds) (Classifier, error) {
	if err := t.Validate(); err != nil {
		return Classifier{}, err
	}
	return Classifier{
		primary: [4]bandInterval{
			{band: BandDay, low: t.Horizon, unbounded: true},
			{band: BandCivil, low: t.Civil, high: t.Horizon},
			{band: BandNautical, low: t.Nautical, high: t.Civil},
			{band: BandAstronomical, low: t.Astronomical, high: t.Nautical},
		},
		nightBelow: t.Astronomical,
	}, nil
}

var defaultClassifier, _ = NewClassifier(DefaultThresholds())

// Classify maps alt to a band using DefaultThresholds.
func Classify(alt float64) TwilightBand {
	return defaultClassifier.Classify(alt)
}

// Classify maps alt (degrees) to exactly one band. Every altitude below the
// astronomical threshold is Night, and so is NaN, which falls through every
// interval.
func (c Classifier) Classify(alt float64) TwilightBand {
	band, _ := c.classifyPrimary(alt)
	if alt < c.nightBelow {
		band = BandNight
	}
	return band
}

// classifyPrimary applies the Day/Civil/Nautical/Astronomical intervals only.
// It reports false if none matched.
func (c Classifier) classifyPrimary(alt float64) (TwilightBand, bool) {
	for _, iv := range c.primary {
		if alt >= iv.low && (iv.unbounded || alt < iv.high) {
			return iv.band, true
		}
	}
	return BandNight, false
}

// ClassifyAll classifies each altitude in order.
func (c Classifier) ClassifyAll(alts []float64) []TwilightBand {
	out := make([]TwilightBand, len(alts))
	for i, a := range alts {
		out[i] = c.Classify(a)
	}
	return out
}

// LowerBound returns the lowest altitude that still belongs to band b. Night
// has no lower bound and returns -Inf.
func (c Classifier) LowerBound(b TwilightBand) float64 {
	for _, iv := range c.primary {
		if iv.band == b {
			return iv.low
		}
	}
	return math.Inf(-1)
}
