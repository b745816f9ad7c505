package duskgrid

import (
	"math"
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		alt  float64
		want TwilightBand
	}{
		{90, BandDay},
		{0.0, BandDay},
		{-0.0001, BandCivil},
		{-6.0, BandCivil},
		{-6.0001, BandNautical},
		{-12.0, BandNautical},
		{-12.0001, BandAstronomical},
		{-18.0, BandAstronomical},
		{-18.0001, BandNight},
		{-90, BandNight},
		{math.Inf(1), BandDay},
		{math.Inf(-1), BandNight},
	}
	for _, tc := range cases {
		if got := Classify(tc.alt); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.alt, got, tc.want)
		}
	}
}

func TestClassifyNaNIsNight(t *testing.T) {
	if got := Classify(math.NaN()); got != BandNight {
		t.Errorf("Classify(NaN) = %v, want night", got)
	}
}

// The primary intervals alone must already place everything at or above the
// astronomical threshold, so the trailing night pass only ever touches values
// the primary pass left unmatched.
func TestNightPassIsRedundant(t *testing.T) {
	c, err := NewClassifier(DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	for alt := -95.0; alt <= 95.0; alt += 0.01 {
		primary, ok := c.classifyPrimary(alt)
		final := c.Classify(alt)
		if ok && primary != final {
			t.Fatalf("alt %.4f: primary %v overwritten with %v", alt, primary, final)
		}
		if !ok && final != BandNight {
			t.Fatalf("alt %.4f: unmatched by primary intervals but classified %v", alt, final)
		}
		if !ok && alt >= -18 {
			t.Fatalf("alt %.4f: gap in primary intervals", alt)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(100)
	for alt := 100.0; alt >= -100; alt -= 0.05 {
		b := Classify(alt)
		if b < prev {
			t.Fatalf("band got brighter going down: %v -> %v at %.2f", prev, b, alt)
		}
		prev = b
	}
}

func TestCustomThresholds(t *testing.T) {
	th := Thresholds{Horizon: -0.833, Civil: -6, Nautical: -12, Astronomical: -18}
	c, err := NewClassifier(th)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Classify(-0.5); got != BandDay {
		t.Errorf("Classify(-0.5) = %v, want day", got)
	}
	if got := c.Classify(-0.833); got != BandDay {
		t.Errorf("Classify(-0.833) = %v, want day", got)
	}
	if got := c.Classify(-0.9); got != BandCivil {
		t.Errorf("Classify(-0.9) = %v, want civil", got)
	}
	if got := c.LowerBound(BandDay); got != -0.833 {
		t.Errorf("LowerBound(day) = %v", got)
	}
	if got := c.LowerBound(BandNight); !math.IsInf(got, -1) {
		t.Errorf("LowerBound(night) = %v, want -Inf", got)
	}
}

func TestThresholdsValidate(t *testing.T) {
	cases := []struct {
		name string
		th   Thresholds
		ok   bool
	}{
		{"default", DefaultThresholds(), true},
		{"equal", Thresholds{0, -6, -6, -18}, false},
		{"increasing", Thresholds{0, 6, -12, -18}, false},
		{"nan", Thresholds{0, math.NaN(), -12, -18}, false},
		{"inf", Thresholds{math.Inf(1), -6, -12, -18}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.th.Validate()
			if (err == nil) != tc.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tc.ok)
			}
			if _, err := NewClassifier(tc.th); (err == nil) != tc.ok {
				t.Errorf("NewClassifier() = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestBandNames(t *testing.T) {
	for i, b := range Bands() {
		if int(b) != i {
			t.Errorf("Bands()[%d] = %d", i, b)
		}
		parsed, err := ParseBand(b.String())
		if err != nil || parsed != b {
			t.Errorf("ParseBand(%q) = %v, %v", b.String(), parsed, err)
		}
	}
	if _, err := ParseBand("dusk"); err == nil {
		t.Error("ParseBand(dusk) should fail")
	}
	if got := mustParseBand(t, " Nautical "); got != BandNautical {
		t.Errorf("ParseBand is not case/space insensitive: %v", got)
	}
	if s := TwilightBand(7).String(); s != "TwilightBand(7)" {
		t.Errorf("String() of unknown band = %q", s)
	}
}

func mustParseBand(t *testing.T, s string) TwilightBand {
	t.Helper()
	b, err := ParseBand(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
